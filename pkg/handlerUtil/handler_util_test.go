package handlerUtil

import (
	"FaceGate/pkg/biometric"
	"FaceGate/pkg/response"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return New(logger).Handle(c, "req-1", err, c.Path(), "test")
	})

	resp, testErr := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, testErr)
	defer resp.Body.Close()

	var body ErrorResponse
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "coded response error",
			err:    response.NewCodedError(409, "ATTEMPT_IN_FLIGHT", "busy"),
			status: fiber.StatusConflict,
			code:   "ATTEMPT_IN_FLIGHT",
		},
		{
			name:   "wrapped response error without slug",
			err:    fmt.Errorf("load: %w", response.NewError(404, "reference missing")),
			status: fiber.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "fiber error",
			err:    fiber.NewError(fiber.StatusBadRequest, "invalid request body"),
			status: fiber.StatusBadRequest,
			code:   "BAD_REQUEST",
		},
		{
			name:   "session in flight",
			err:    biometric.ErrAttemptInFlight,
			status: fiber.StatusConflict,
			code:   "ATTEMPT_IN_FLIGHT",
		},
		{
			name:   "deadline",
			err:    context.DeadlineExceeded,
			status: fiber.StatusRequestTimeout,
			code:   "REQUEST_TIMEOUT",
		},
		{
			name:   "unknown",
			err:    errors.New("boom"),
			status: fiber.StatusInternalServerError,
			code:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := respond(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestCodeOf(t *testing.T) {
	err := response.NewCodedError(422, "NO_USABLE_FRAME", "no frame passed the capture checks")
	assert.Equal(t, "NO_USABLE_FRAME", CodeOf(err))
	assert.Equal(t, "UNPROCESSABLE_ENTITY", CodeOf(response.NewError(422, "x")))
}
