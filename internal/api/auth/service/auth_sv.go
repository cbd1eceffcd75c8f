package authService

import (
	"FaceGate/internal/api/auth"
	"FaceGate/internal/api/verification"
	"FaceGate/internal/entity"
	contextPkg "FaceGate/pkg/context"
	jwtPkg "FaceGate/pkg/jwt"
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

func (s *authDomainImpl) FaceLogin(c context.Context, input auth.FaceLoginInput) (auth.LoginUserResponse, error) {
	requestID := contextPkg.GetRequestID(c)
	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return auth.LoginUserResponse{}, err
	}

	user, err := repo.Users.GetByEmail(c, input.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
			}).Warn("Face login for unknown email")
		}
		return auth.LoginUserResponse{}, err
	}

	outcome, err := s.verificationService.Verify(c, verification.VerifyInput{
		UserID:     user.ID,
		Purpose:    entity.PurposeLogin,
		Frames:     input.Frames,
		Descriptor: input.Descriptor,
	})
	if err != nil {
		return auth.LoginUserResponse{}, err
	}

	res := auth.LoginUserResponse{Verification: verification.NewVerifyResponse(outcome)}
	if !outcome.Verified {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    user.ID,
			"reason":     outcome.Reason,
		}).Warn("Face login rejected")
		return res, auth.ErrFaceNotVerified
	}

	token, expiresAt, err := jwtPkg.SignUser(MakeUserData(user), s.tokenTTL)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to sign token")
		return auth.LoginUserResponse{}, err
	}

	res.AccessToken = token
	res.ExpiresAt = expiresAt
	return res, nil
}

func MakeUserData(user entity.User) entity.UserLoginData {
	return entity.UserLoginData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
}
