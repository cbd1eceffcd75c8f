package authService

import (
	"FaceGate/internal/entity"
	"context"
)

func (s *userDomainImpl) GetByID(c context.Context, id string) (entity.User, error) {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return entity.User{}, err
	}

	return repo.Users.GetByID(c, id)
}
