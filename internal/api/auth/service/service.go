package authService

import (
	"FaceGate/internal/api/auth"
	authRepository "FaceGate/internal/api/auth/repository"
	verificationService "FaceGate/internal/api/verification/service"
	"FaceGate/internal/entity"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type AuthService interface {
	User() UserDomain
	Auth() AuthDomain
}

type UserDomain interface {
	GetByID(c context.Context, id string) (entity.User, error)
}

type AuthDomain interface {
	FaceLogin(c context.Context, input auth.FaceLoginInput) (auth.LoginUserResponse, error)
}

type authService struct {
	userDomain UserDomain
	authDomain AuthDomain
}

func (a *authService) User() UserDomain {
	return a.userDomain
}

func (a *authService) Auth() AuthDomain {
	return a.authDomain
}

type userDomainImpl struct {
	log  *logrus.Logger
	repo authRepository.Repository
}

type authDomainImpl struct {
	log                 *logrus.Logger
	repo                authRepository.Repository
	verificationService verificationService.IVerificationService
	tokenTTL            time.Duration
}

func New(log *logrus.Logger,
	authRepo authRepository.Repository,
	vs verificationService.IVerificationService,
	tokenTTL time.Duration,
) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}

	return &authService{
		userDomain: &userDomainImpl{log: log, repo: authRepo},
		authDomain: &authDomainImpl{log: log, repo: authRepo, verificationService: vs, tokenTTL: tokenTTL},
	}
}
