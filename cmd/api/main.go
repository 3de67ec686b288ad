package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-management-api/configs"
	v1 "task-management-api/internal/api/v1"
	"task-management-api/internal/api/v1/handlers"
	"task-management-api/internal/config"
	"task-management-api/internal/credential"
	"task-management-api/internal/repository"
	"task-management-api/internal/token"
	"task-management-api/pkg/crypto"
	"task-management-api/pkg/logger"

	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	envFile := pflag.String("env-file", ".env", "path to the env file")
	port := pflag.Int("port", 0, "listen port (overrides APP_PORT)")
	initDB := pflag.Bool("init-db", true, "create tables if they do not exist")
	pflag.Parse()

	// Load config
	cfg, err := configs.LoadConfig(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.AppPort = *port
	}

	// Inisialisasi logger
	if err := logger.InitLoggers(cfg.LogDir); err != nil {
		log.Fatalf("Failed to init loggers: %v", err)
	}
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	if err := run(cfg, *initDB); err != nil {
		logger.ErrorLogger.Error("Application stopped", zap.Error(err))
		logger.SyncLoggers()
		log.Fatal(err)
	}
}

func run(cfg configs.Config, initDB bool) error {
	ctx := context.Background()

	deps, err := config.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()
	logger.SystemLogger.Info("Database Connected", zap.String("token_store", cfg.TokenStore))

	if initDB {
		if err := repository.CreateTableIfNotExists(ctx, deps.DB); err != nil {
			return err
		}
	}

	secret := cfg.TokenSecret
	if secret == "" {
		// token lama tidak berlaku lagi setelah restart
		secret, err = crypto.RandomSecret(32)
		if err != nil {
			return err
		}
		logger.SystemLogger.Warn("TOKEN_SECRET is not set, using a random secret for this process")
	}

	users := repository.NewUserRepository(deps.DB)
	credentials := credential.NewStore(users)
	tokens := token.NewIssuer([]byte(secret), deps.TokenRegistry, credentials)
	h := handlers.New(credentials, tokens, repository.NewTaskRepository(deps.DB))

	app := v1.NewApp()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	v1.RegisterRoutes(app.Group(cfg.APIPrefix), h, tokens)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.SystemLogger.Info("Shutting down")
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%d", cfg.AppPort)
	logger.SystemLogger.Info("Application ready", zap.String("addr", addr))
	return app.Listen(addr)
}
