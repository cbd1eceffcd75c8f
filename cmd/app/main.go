package main

import (
	"FaceGate/internal/config"
	"FaceGate/pkg/log"
	"FaceGate/pkg/redis"
	websocketPkg "FaceGate/pkg/websocket"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// setupLogger loads the env files first so LOG_* settings from .env reach
// the logger.
func setupLogger(envFiles ...string) (*logrus.Logger, error) {
	envErr := godotenv.Load(envFiles...)
	return log.NewLogger(), envErr
}

func main() {
	logger, err := setupLogger()
	if err != nil {
		logger.Warnf("No .env file loaded: %v", err)
	}

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()
	redisServer := redis.New(logger)
	websocket := websocketPkg.NewAIWebSocketClient(logger)

	options := []config.ServerOption{
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithDatabase(),
		config.WithRedisServer(redisServer),
		config.WithWebSocket(websocket),
		config.WithMiddleware(),
		config.WithUtils(),
		config.WithVerificationConfig(config.LoadVerificationConfig()),
	}
	if os.Getenv("AWS_BUCKET_NAME") != "" {
		options = append(options, config.WithS3Client())
	} else {
		logger.Warn("AWS_BUCKET_NAME not set, face snapshots will not be stored")
	}

	server, err := config.NewServer(options...)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.Errorf("Shutdown error: %v", err)
	}
}
