package attendanceHandler

import (
	attendanceService "FaceGate/internal/api/attendance/service"
	"FaceGate/internal/middleware"
	"FaceGate/pkg/utils"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AttendanceHandler struct {
	log               *logrus.Logger
	validator         *validator.Validate
	middleware        middleware.Middleware
	attendanceService attendanceService.IAttendanceService
	utils             utils.IUtils
	requestTimeout    time.Duration
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	attendanceService attendanceService.IAttendanceService,
	utils utils.IUtils,
	requestTimeout time.Duration,
) *AttendanceHandler {
	if requestTimeout <= 0 {
		requestTimeout = 20 * time.Second
	}

	return &AttendanceHandler{
		log:               log,
		validator:         validate,
		middleware:        middleware,
		attendanceService: attendanceService,
		utils:             utils,
		requestTimeout:    requestTimeout,
	}
}

func (h *AttendanceHandler) Start(srv fiber.Router) {
	attendance := srv.Group("/attendance")

	attendance.Post("/clock-in", h.middleware.NewTokenMiddleware, h.middleware.NewVerificationRateLimiter, h.ClockIn)
	attendance.Post("/clock-out", h.middleware.NewTokenMiddleware, h.middleware.NewVerificationRateLimiter, h.ClockOut)
	attendance.Get("", h.middleware.NewTokenMiddleware, h.GetHistory)
}
