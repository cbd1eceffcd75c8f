package middleware

import (
	contextPkg "FaceGate/pkg/context"
	jwtPkg "FaceGate/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenSecret = jwtPkg.AccessTokenSecretEnv

	// Browsers cannot set headers on a websocket handshake.
	wsTokenQuery = "access_token"
)

func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	userToken, err := m.verifyToken(ctx)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": m.GetRequestID(ctx),
			"path":       ctx.Path(),
			"error":      err.Error(),
		}).Warn("Token verification failed")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized, access token invalid or expired",
			"code":  "UNAUTHORIZED",
		})
	}

	user, err := jwtPkg.UserFromClaims(userToken)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": m.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Token claims check")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized, access token invalid or expired",
			"code":  "UNAUTHORIZED",
		})
	}

	ctx.Locals("user", user)
	ctx.SetUserContext(contextPkg.WithUserID(ctx.UserContext(), user.ID))

	return ctx.Next()
}

func (m *middleware) verifyToken(ctx *fiber.Ctx) (*jwt.Token, error) {
	token, err := jwtPkg.VerifyTokenHeader(ctx, AccessTokenSecret)
	if err == nil {
		return token, nil
	}

	if query := ctx.Query(wsTokenQuery); query != "" && websocket.IsWebSocketUpgrade(ctx) {
		return jwtPkg.ParseToken(query, AccessTokenSecret)
	}

	return nil, err
}
