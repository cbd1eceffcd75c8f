package config

import (
	"FaceGate/database/postgres"
	"FaceGate/internal/api/attendance"
	attendanceHandler "FaceGate/internal/api/attendance/handler"
	attendanceRepository "FaceGate/internal/api/attendance/repository"
	attendanceService "FaceGate/internal/api/attendance/service"
	authHandler "FaceGate/internal/api/auth/handler"
	authRepository "FaceGate/internal/api/auth/repository"
	authService "FaceGate/internal/api/auth/service"
	verificationHandler "FaceGate/internal/api/verification/handler"
	verificationRepository "FaceGate/internal/api/verification/repository"
	verificationService "FaceGate/internal/api/verification/service"
	"FaceGate/internal/middleware"
	"FaceGate/pkg/redis"
	"FaceGate/pkg/s3"
	"FaceGate/pkg/utils"
	websocketPkg "FaceGate/pkg/websocket"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine        *fiber.App
	db            *sqlx.DB
	log           *logrus.Logger
	middleware    middleware.Middleware
	validator     *validator.Validate
	utils         utils.IUtils
	handlers      []handler
	redisServer   redis.IRedis
	faceWebsocket websocketPkg.IWebsocket
	s3Client      s3.ItfS3
	verification  VerificationConfig
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.faceWebsocket == nil {
		return nil, fmt.Errorf("face AI client is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithWebSocket(webSocket websocketPkg.IWebsocket) ServerOption {
	return func(s *Server) error {
		s.faceWebsocket = webSocket
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

// WithS3Client is optional. Without it snapshots are not stored.
func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithVerificationConfig(cfg VerificationConfig) ServerOption {
	return func(s *Server) error {
		s.verification = cfg
		return nil
	}
}

func (s *Server) RegisterHandler() {
	cfg := s.verification

	// Verification Domain
	verificationRepo := verificationRepository.New(s.db, s.log)
	verificationServices := verificationService.NewVerificationService(
		s.log,
		verificationRepo,
		s.redisServer,
		s.s3Client,
		s.utils,
		s.faceWebsocket,
		s.faceWebsocket,
		cfg.Biometric,
		verificationService.Options{
			AttemptLockTTL:        cfg.AttemptLockTTL,
			ReferenceCacheTTL:     cfg.ReferenceCacheTTL,
			AuditTimeout:          cfg.AuditTimeout,
			TrustClientDescriptor: cfg.TrustClientDescriptor,
			StoreSnapshots:        cfg.StoreSnapshots,
			AutoDetectInterval:    cfg.AutoDetectInterval,
			AutoDetectMaxAttempts: cfg.AutoDetectMaxAttempts,
		},
	)
	verificationHandlers := verificationHandler.New(s.log, s.validator, s.middleware, verificationServices, s.utils, cfg.RequestTimeout)

	// Attendance Domain
	attendanceRepo := attendanceRepository.New(s.db, s.log)
	attendanceServices := attendanceService.NewAttendanceService(s.log, attendanceRepo, verificationServices, s.utils, attendance.Geofence{
		Enabled:      cfg.GeofenceEnabled,
		Latitude:     cfg.OfficeLatitude,
		Longitude:    cfg.OfficeLongitude,
		RadiusMeters: cfg.OfficeRadiusMeters,
	})
	attendanceHandlers := attendanceHandler.New(s.log, s.validator, s.middleware, attendanceServices, s.utils, cfg.RequestTimeout)

	// Auth Domain
	authRepo := authRepository.New(s.db, s.log)
	authServices := authService.New(s.log, authRepo, verificationServices, getenvDuration("JWT_ACCESS_TOKEN_TTL", time.Hour))
	authHandlers := authHandler.New(s.log, authServices, s.validator, s.middleware, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, verificationHandlers, attendanceHandlers, authHandlers)

	s.log.WithFields(logrus.Fields{
		"match_threshold":     cfg.Biometric.MatchThreshold,
		"min_capture_quality": cfg.Biometric.MinCaptureQuality,
		"geofence":            cfg.GeofenceEnabled,
		"snapshots":           cfg.StoreSnapshots && s.s3Client != nil,
	}).Info("Verification handlers registered")
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests and releases the backing connections.
func (s *Server) Shutdown(timeout time.Duration) error {
	err := s.engine.ShutdownWithTimeout(timeout)

	s.faceWebsocket.CloseConnections()
	if s.db != nil {
		if dbErr := s.db.Close(); dbErr != nil && err == nil {
			err = dbErr
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		c, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
		defer cancel()

		status := fiber.Map{
			"message":  "Server is Healthy!",
			"database": "ok",
			"redis":    "ok",
			"face_ai":  "ok",
		}
		code := fiber.StatusOK

		if s.db == nil || s.db.PingContext(c) != nil {
			status["database"] = "unavailable"
			code = fiber.StatusServiceUnavailable
		}
		if s.redisServer == nil || s.redisServer.Ping(c) != nil {
			status["redis"] = "unavailable"
		}
		if !s.faceWebsocket.IsConnected() {
			status["face_ai"] = "connecting"
		}
		if code != fiber.StatusOK {
			status["message"] = "Server is degraded"
		}

		return ctx.Status(code).JSON(status)
	})
}
