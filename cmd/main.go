package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"notification_service/internal/appMiddleware"
	"notification_service/internal/auth"
	"notification_service/internal/cache"
	"notification_service/internal/config"
	"notification_service/internal/db"
	"notification_service/internal/handlers"
	"notification_service/internal/services"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	log.Info("starting notification service", slog.String("env", cfg.Env))

	ctx := context.Background()

	if err := db.RunMigrations(cfg.DB.URL); err != nil {
		log.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg.DB.URL)
	if err != nil {
		log.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisCache.Close()

	tokenService := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	userService := services.NewUserService(pool, log)
	notificationService := services.NewNotificationService(pool, log)
	feedService := services.NewFeedService(notificationService, redisCache, cfg.Cache.FeedTTL, log)
	authService := auth.NewService(userService, tokenService)

	authHandler := handlers.NewAuthHandler(authService, log)
	notificationHandler := handlers.NewNotificationHandler(feedService, log)

	r := chi.NewRouter()

	r.Use(appMiddleware.CorsMiddleware)
	r.Use(middleware.RequestID)
	r.Use(appMiddleware.LoggingMiddleware(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", handlers.Health)

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/refresh", authHandler.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.AuthMiddleware(tokenService, log))
		r.Get("/notifications", notificationHandler.List)
		r.Post("/notifications", notificationHandler.Create)
		r.Delete("/notifications/{id}", notificationHandler.Delete)
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      r,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("stopping the server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server has been stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
