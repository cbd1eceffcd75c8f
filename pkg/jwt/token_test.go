package jwtPkg

import (
	"FaceGate/internal/entity"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUserRoundTrip(t *testing.T) {
	t.Setenv(AccessTokenSecretEnv, "test-secret")

	user := entity.UserLoginData{ID: "01HZX", Email: "ana@example.com", Name: "Ana"}
	token, exp, err := SignUser(user, time.Hour)
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	parsed, err := ParseToken(token, AccessTokenSecretEnv)
	require.NoError(t, err)

	got, err := UserFromClaims(parsed)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv(AccessTokenSecretEnv, "first")
	token, _, err := SignUser(entity.UserLoginData{ID: "u1"}, time.Hour)
	require.NoError(t, err)

	t.Setenv(AccessTokenSecretEnv, "second")
	_, err = ParseToken(token, AccessTokenSecretEnv)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	t.Setenv(AccessTokenSecretEnv, "test-secret")
	token, _, err := SignUser(entity.UserLoginData{ID: "u1"}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, AccessTokenSecretEnv)
	assert.Error(t, err)
}

func TestSignWithoutSecret(t *testing.T) {
	t.Setenv(AccessTokenSecretEnv, "")
	_, _, err := Sign(nil, time.Hour)
	assert.Error(t, err)
}

func TestVerifyTokenHeader(t *testing.T) {
	t.Setenv(AccessTokenSecretEnv, "test-secret")
	token, _, err := SignUser(entity.UserLoginData{ID: "u1"}, time.Hour)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if _, err := VerifyTokenHeader(c, AccessTokenSecretEnv); err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		header string
		status int
	}{
		{header: "Bearer " + token, status: fiber.StatusOK},
		{header: "", status: fiber.StatusUnauthorized},
		{header: "Token " + token, status: fiber.StatusUnauthorized},
		{header: "Bearer ", status: fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, tt.header)
	}
}
