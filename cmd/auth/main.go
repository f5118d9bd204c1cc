package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/piresc/otpgate/internal/pkg/circuitbreaker"
	"github.com/piresc/otpgate/internal/pkg/config"
	"github.com/piresc/otpgate/internal/pkg/database"
	"github.com/piresc/otpgate/internal/pkg/health"
	"github.com/piresc/otpgate/internal/pkg/logger"
	"github.com/piresc/otpgate/internal/pkg/middleware"
	natspkg "github.com/piresc/otpgate/internal/pkg/nats"
	nrpkg "github.com/piresc/otpgate/internal/pkg/newrelic"
	"github.com/piresc/otpgate/internal/pkg/server"
	"github.com/piresc/otpgate/internal/utils"
	"github.com/piresc/otpgate/services/auth/gateway"
	"github.com/piresc/otpgate/services/auth/handler"
	httpHandler "github.com/piresc/otpgate/services/auth/handler/http"
	"github.com/piresc/otpgate/services/auth/repository"
	"github.com/piresc/otpgate/services/auth/usecase"
	"go.uber.org/zap"
)

func main() {
	appName := "auth-service"
	configPath := "config/auth.env"
	configs := config.InitConfig(configPath)

	// Initialize New Relic and Zap logger
	nrApp := nrpkg.InitNewRelic(configs)
	if nrApp != nil {
		if err := nrApp.WaitForConnection(10 * time.Second); err != nil {
			log.Printf("Warning: New Relic connection timeout: %v", err)
		}
	}

	zapLogger, err := logger.InitZapLoggerFromConfig(configs, nrApp)
	if err != nil {
		log.Fatalf("Failed to create Zap logger: %v", err)
	}
	defer zapLogger.Close()
	logger.SetGlobalLogger(zapLogger)

	zapLogger.Info("Starting application",
		zap.String("app", appName),
		zap.String("version", configs.App.Version),
		zap.String("environment", configs.App.Environment),
		zap.String("sms_provider", configs.SMS.Provider),
	)

	healthService := health.NewHealthService()

	// Initialize PostgreSQL database connection
	postgresClient, err := database.NewPostgresClient(configs.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	healthService.AddChecker("postgres", health.NewPostgresHealthChecker(postgresClient))

	// Initialize Redis client
	redisClient, err := database.NewRedisClient(configs.Redis)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	healthService.AddChecker("redis", health.NewRedisHealthChecker(redisClient))

	// NATS is only needed when text messages are handed to the broker
	var natsClient *natspkg.Client
	if configs.SMS.Provider == "nats" {
		natsClient, err = natspkg.NewClient(configs.NATS.URL, appName)
		if err != nil {
			zapLogger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		healthService.AddChecker("nats", health.NewNATSHealthChecker(natsClient))
	}

	// Initialize repositories
	otpStore := repository.NewOTPStore(repository.WithCleanupDelay(configs.OTP.CleanupDelay))
	userRepo := repository.NewCachedUserRepo(
		repository.NewUserRepo(postgresClient.GetDB()),
		redisClient,
		configs.Redis.UserTTL,
	)

	// Initialize Gateway
	smsGW, err := gateway.NewSMSGateway(configs.SMS, natsClient)
	if err != nil {
		zapLogger.Fatal("Failed to initialize SMS gateway", zap.Error(err))
	}
	healthService.AddChecker("sms", health.CheckerFunc(func(ctx context.Context) error {
		if stats := smsGW.Stats(); stats.State == circuitbreaker.StateOpen.String() {
			return errors.New("sms circuit breaker is open")
		}
		return nil
	}))

	// Initialize UseCase
	authUC := usecase.NewAuthUC(otpStore, userRepo, smsGW, configs)

	// Initialize handlers
	h := handler.NewHandler(
		httpHandler.NewAuthHandler(authUC),
		httpHandler.NewUserHandler(authUC),
		configs,
	)

	// Initialize Echo router
	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.NewRequestValidator()

	// Add middlewares
	e.Use(middleware.RequestIDMiddleware())
	e.Use(middleware.PanicRecoveryMiddleware(zapLogger))
	e.Use(middleware.NewRelicMiddleware(nrApp))
	e.Use(logger.ZapEchoMiddleware(zapLogger))

	// Register health endpoints
	health.RegisterHealthEndpoints(e, appName, healthService)

	// Register service routes
	h.RegisterRoutes(e)

	addr := fmt.Sprintf("%s:%d", configs.Server.Host, configs.Server.Port)
	srv := server.NewGracefulServer(e, zapLogger, addr, time.Duration(configs.Server.ShutdownTimeout)*time.Second)

	// Components close in reverse order of registration
	components := srv.Components()
	components.Register("postgres", func(context.Context) error { return postgresClient.Close() })
	components.Register("redis", func(context.Context) error { return redisClient.Close() })
	if natsClient != nil {
		components.Register("nats", func(context.Context) error {
			natsClient.Close()
			return nil
		})
	}
	components.Register("otp-store", func(context.Context) error { return otpStore.Close() })
	if nrApp != nil {
		components.Register("newrelic", func(context.Context) error {
			nrApp.Shutdown(5 * time.Second)
			return nil
		})
	}

	if err := srv.Start(); err != nil {
		zapLogger.Error("Server stopped with error",
			zap.String("app", appName),
			zap.Error(err),
		)
	}
}
