package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/apnisec/backend/internal/config"
	"github.com/apnisec/backend/internal/db"
	"github.com/apnisec/backend/internal/handler"
	"github.com/apnisec/backend/internal/mailer"
	"github.com/apnisec/backend/internal/service"
)

// @title ApniSec API
// @version 1.0
// @description Security-issue tracking API: authentication, issues and profiles.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()

	store, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal("postgres init failed", zap.Error(err))
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("schema init failed", zap.Error(err))
	}

	tokens, err := service.NewTokenService(cfg.JWT, cfg.IsProduction())
	if err != nil {
		logger.Fatal("token service init failed", zap.Error(err))
	}

	notifier := mailer.New(cfg.Email, logger)
	defer notifier.Close()

	passwords := service.NewPasswordService(cfg.Bcrypt.Cost)
	authService := service.NewAuthService(store, passwords, tokens, notifier, logger)
	userService := service.NewUserService(store, passwords, logger)
	issueService := service.NewIssueService(store, store, notifier, logger)
	limiter := service.NewRateLimiter(store, cfg.RateLimit, logger)

	// Periodic hygiene pass over expired rate-limit windows.
	go func() {
		ticker := time.NewTicker(cfg.RateLimit.Window)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Cleanup(ctx)
		}
	}()

	router := handler.NewRouter(authService, userService, issueService, limiter, handler.RouterConfig{
		Cookie: handler.CookieConfig{
			Secure: cfg.Cookie.Secure,
			MaxAge: int(cfg.JWT.RefreshExpiry.Seconds()),
		},
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}, logger)

	logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
