package verificationHandler

import (
	verificationService "FaceGate/internal/api/verification/service"
	"FaceGate/internal/middleware"
	"FaceGate/pkg/utils"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type VerificationHandler struct {
	log                 *logrus.Logger
	validator           *validator.Validate
	middleware          middleware.Middleware
	verificationService verificationService.IVerificationService
	utils               utils.IUtils
	requestTimeout      time.Duration
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	verificationService verificationService.IVerificationService,
	utils utils.IUtils,
	requestTimeout time.Duration,
) *VerificationHandler {
	if requestTimeout <= 0 {
		requestTimeout = 20 * time.Second
	}

	return &VerificationHandler{
		log:                 log,
		validator:           validate,
		middleware:          middleware,
		verificationService: verificationService,
		utils:               utils,
		requestTimeout:      requestTimeout,
	}
}

func (h *VerificationHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	face := srv.Group("/verification")

	face.Post("/quality", h.middleware.NewTokenMiddleware, h.AssessQuality)
	face.Post("/verify", h.middleware.NewTokenMiddleware, h.middleware.NewVerificationRateLimiter, h.Verify)
	face.Post("/enroll", h.middleware.NewTokenMiddleware, h.middleware.NewVerificationRateLimiter, h.Enroll)
	face.Get("/reference", h.middleware.NewTokenMiddleware, h.GetReferenceStatus)
	face.Delete("/reference", h.middleware.NewTokenMiddleware, h.DeleteReference)
	face.Get("/attempts", h.middleware.NewTokenMiddleware, h.GetAttempts)

	face.Use("/ws", wsMiddleware)
	face.Get("/ws", h.middleware.NewTokenMiddleware, h.middleware.NewVerificationRateLimiter, websocket.New(h.handleStream))
}
