package authService

import (
	"FaceGate/internal/api/auth"
	authRepository "FaceGate/internal/api/auth/repository"
	"FaceGate/internal/api/verification"
	verificationService "FaceGate/internal/api/verification/service"
	"FaceGate/internal/entity"
	jwtPkg "FaceGate/pkg/jwt"
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users map[string]entity.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (entity.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return entity.User{}, auth.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (entity.User, error) {
	u, ok := f.users[email]
	if !ok {
		return entity.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

type fakeRepository struct {
	users *fakeUsers
}

func (f *fakeRepository) NewClient(bool) (authRepository.Client, error) {
	return authRepository.Client{
		Users:    f.users,
		Commit:   func() error { return nil },
		Rollback: func() error { return nil },
	}, nil
}

type fakeVerifier struct {
	verificationService.IVerificationService
	outcome entity.VerificationOutcome
	inputs  []verification.VerifyInput
}

func (f *fakeVerifier) Verify(_ context.Context, input verification.VerifyInput) (entity.VerificationOutcome, error) {
	f.inputs = append(f.inputs, input)
	return f.outcome, nil
}

func newTestService(verifier *fakeVerifier) AuthService {
	log := logrus.New()
	log.SetOutput(io.Discard)

	repo := &fakeRepository{users: &fakeUsers{users: map[string]entity.User{
		"ana@example.com": {ID: "u1", Email: "ana@example.com", Name: "Ana"},
	}}}
	return New(log, repo, verifier, time.Hour)
}

func TestFaceLoginIssuesToken(t *testing.T) {
	t.Setenv(jwtPkg.AccessTokenSecretEnv, "test-secret")

	similarity := 0.9
	verifier := &fakeVerifier{outcome: entity.VerificationOutcome{Verified: true, Similarity: &similarity, Threshold: 0.55}}
	svc := newTestService(verifier)

	res, err := svc.Auth().FaceLogin(context.Background(), auth.FaceLoginInput{Email: "ana@example.com", Frames: [][]byte{{1}}})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	assert.Greater(t, res.ExpiresAt, time.Now().Unix())
	assert.True(t, res.Verification.Verified)

	require.Len(t, verifier.inputs, 1)
	assert.Equal(t, "u1", verifier.inputs[0].UserID)
	assert.Equal(t, entity.PurposeLogin, verifier.inputs[0].Purpose)

	token, err := jwtPkg.ParseToken(res.AccessToken, jwtPkg.AccessTokenSecretEnv)
	require.NoError(t, err)
	user, err := jwtPkg.UserFromClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestFaceLoginRejected(t *testing.T) {
	t.Setenv(jwtPkg.AccessTokenSecretEnv, "test-secret")

	similarity := 0.4
	verifier := &fakeVerifier{outcome: entity.VerificationOutcome{Similarity: &similarity, Threshold: 0.55, Reason: entity.ReasonBelowThreshold}}
	svc := newTestService(verifier)

	res, err := svc.Auth().FaceLogin(context.Background(), auth.FaceLoginInput{Email: "ana@example.com"})
	assert.ErrorIs(t, err, auth.ErrFaceNotVerified)
	assert.Empty(t, res.AccessToken)
	assert.Equal(t, entity.ReasonBelowThreshold, res.Verification.Reason)
	require.NotNil(t, res.Verification.Similarity)
	assert.Equal(t, 0.4, *res.Verification.Similarity)
}

func TestFaceLoginUnknownUser(t *testing.T) {
	verifier := &fakeVerifier{}
	svc := newTestService(verifier)

	_, err := svc.Auth().FaceLogin(context.Background(), auth.FaceLoginInput{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
	assert.Empty(t, verifier.inputs)
}

func TestGetByID(t *testing.T) {
	svc := newTestService(&fakeVerifier{})

	user, err := svc.User().GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)

	_, err = svc.User().GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}
