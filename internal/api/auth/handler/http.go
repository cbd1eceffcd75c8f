package authHandler

import (
	authService "FaceGate/internal/api/auth/service"
	"FaceGate/internal/middleware"
	"FaceGate/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	log         *logrus.Logger
	authService authService.AuthService
	validator   *validator.Validate
	middleware  middleware.Middleware
	utils       utils.IUtils
}

func New(
	log *logrus.Logger,
	as authService.AuthService,
	validate *validator.Validate,
	middleware middleware.Middleware,
	utils utils.IUtils) *AuthHandler {
	return &AuthHandler{
		log:         log,
		authService: as,
		validator:   validate,
		middleware:  middleware,
		utils:       utils,
	}
}

func (h *AuthHandler) Start(srv fiber.Router) {
	auth := srv.Group("/auth")
	auth.Post("/face-login", h.middleware.NewVerificationRateLimiter, h.HandleFaceLogin)
	auth.Get("/me", h.middleware.NewTokenMiddleware, h.HandleMe)
}
