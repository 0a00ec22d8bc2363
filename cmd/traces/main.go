package main

import (
	"log"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/echoatlas/tracemap/internal/pkg/config"
	"github.com/echoatlas/tracemap/internal/pkg/database"
	"github.com/echoatlas/tracemap/internal/pkg/health"
	"github.com/echoatlas/tracemap/internal/pkg/logger"
	"github.com/echoatlas/tracemap/internal/pkg/middleware"
	"github.com/echoatlas/tracemap/internal/pkg/nats"
	"github.com/echoatlas/tracemap/internal/pkg/server"
	"github.com/echoatlas/tracemap/services/traces/gateway"
	"github.com/echoatlas/tracemap/services/traces/handler"
	"github.com/echoatlas/tracemap/services/traces/repository"
	"github.com/echoatlas/tracemap/services/traces/usecase"
)

func main() {
	appName := "traces-service"
	configs := config.InitConfig(".env")

	appLogger := logger.NewAppLogger(configs.Logger)
	logger.SetGlobalLogger(appLogger)

	// Initialize Postgres client
	pgClient, err := database.NewPostgresClient(configs.Database)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgClient.Close()

	// Initialize Redis client for the cell query cache
	redisClient, err := database.NewRedisClient(configs.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize NATS client
	natsClient, err := nats.NewClient(configs.NATS.URL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsClient.Close()

	// Initialize repository
	traceRepo := repository.NewTracesRepo(configs, pgClient.GetDB(), redisClient)

	// Initialize gateway
	traceGW := gateway.NewTracesGW(natsClient)

	// Initialize usecase
	traceUC := usecase.NewTracesUC(configs, traceRepo, traceGW)

	// Initialize Echo router
	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestLogger())

	health.RegisterHealthEndpoints(e, appName)

	tracesHandler := handler.NewTracesHandler(configs, traceUC)
	tracesHandler.RegisterRoutes(e)

	// Start server with graceful shutdown
	srv := server.NewGracefulServer(e, configs.Server.Port)
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start %s: %v", appName, err)
	}
}
