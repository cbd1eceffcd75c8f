package authHandler

import (
	"FaceGate/internal/api/auth"
	authService "FaceGate/internal/api/auth/service"
	"FaceGate/internal/api/verification"
	"FaceGate/internal/entity"
	"FaceGate/internal/middleware"
	jwtPkg "FaceGate/pkg/jwt"
	"FaceGate/pkg/utils"
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngFrame = base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))

type fakeAuth struct {
	res    auth.LoginUserResponse
	err    error
	inputs []auth.FaceLoginInput
}

func (f *fakeAuth) FaceLogin(_ context.Context, input auth.FaceLoginInput) (auth.LoginUserResponse, error) {
	f.inputs = append(f.inputs, input)
	return f.res, f.err
}

type fakeUsers struct{}

func (fakeUsers) GetByID(_ context.Context, id string) (entity.User, error) {
	if id != "u1" {
		return entity.User{}, auth.ErrUserNotFound
	}
	return entity.User{ID: "u1", Email: "ana@example.com", Name: "Ana"}, nil
}

type fakeService struct {
	auth *fakeAuth
}

func (f *fakeService) User() authService.UserDomain { return fakeUsers{} }
func (f *fakeService) Auth() authService.AuthDomain { return f.auth }

func newTestApp(t *testing.T, svc *fakeService) *fiber.App {
	t.Helper()
	t.Setenv(jwtPkg.AccessTokenSecretEnv, "test-secret")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mw := middleware.New(logger)
	app := fiber.New()
	app.Use(mw.NewRequestIDMiddleware())

	New(logger, svc, validator.New(validator.WithRequiredStructEnabled()), mw, utils.New()).Start(app.Group("/api/v1"))
	return app
}

func loginRequest(t *testing.T, body auth.FaceLoginRequest) *http.Request {
	t.Helper()
	payload, err := jsoniter.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/auth/face-login", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestFaceLoginSuccess(t *testing.T) {
	svc := &fakeService{auth: &fakeAuth{res: auth.LoginUserResponse{
		AccessToken:  "token",
		ExpiresAt:    123,
		Verification: verification.VerifyResponse{Verified: true},
	}}}
	app := newTestApp(t, svc)

	resp, err := app.Test(loginRequest(t, auth.FaceLoginRequest{Email: "ana@example.com", Frames: []string{pngFrame}}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "token", decode(t, resp)["access_token"])

	require.Len(t, svc.auth.inputs, 1)
	assert.Equal(t, "ana@example.com", svc.auth.inputs[0].Email)
	assert.Len(t, svc.auth.inputs[0].Frames, 1)
}

func TestFaceLoginNotVerified(t *testing.T) {
	svc := &fakeService{auth: &fakeAuth{
		res: auth.LoginUserResponse{Verification: verification.VerifyResponse{Reason: entity.ReasonNoFace, Retryable: true}},
		err: auth.ErrFaceNotVerified,
	}}
	app := newTestApp(t, svc)

	resp, err := app.Test(loginRequest(t, auth.FaceLoginRequest{Email: "ana@example.com", Frames: []string{pngFrame}}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "FACE_NOT_VERIFIED", body["code"])
	result, ok := body["verification"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(entity.ReasonNoFace), result["reason"])
}

func TestFaceLoginValidation(t *testing.T) {
	app := newTestApp(t, &fakeService{auth: &fakeAuth{}})

	resp, err := app.Test(loginRequest(t, auth.FaceLoginRequest{Email: "not-an-email", Frames: []string{pngFrame}}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(loginRequest(t, auth.FaceLoginRequest{Email: "ana@example.com"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFaceLoginUnknownUser(t *testing.T) {
	app := newTestApp(t, &fakeService{auth: &fakeAuth{err: auth.ErrUserNotFound}})

	resp, err := app.Test(loginRequest(t, auth.FaceLoginRequest{Email: "x@example.com", Frames: []string{pngFrame}}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestFaceLoginThrottledPerClient(t *testing.T) {
	svc := &fakeService{auth: &fakeAuth{res: auth.LoginUserResponse{AccessToken: "token"}}}
	app := newTestApp(t, svc)

	var last int
	for i := 0; i < 6; i++ {
		resp, err := app.Test(loginRequest(t, auth.FaceLoginRequest{Email: "ana@example.com", Frames: []string{pngFrame}}))
		require.NoError(t, err)
		last = resp.StatusCode
	}

	assert.Equal(t, fiber.StatusTooManyRequests, last)
	assert.Len(t, svc.auth.inputs, 5)
}

func TestMe(t *testing.T) {
	app := newTestApp(t, &fakeService{auth: &fakeAuth{}})

	token, _, err := jwtPkg.SignUser(entity.UserLoginData{ID: "u1"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ana", decode(t, resp)["name"])
}
