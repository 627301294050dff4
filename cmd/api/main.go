package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mquintana/divscope/internal/auth"
	"github.com/mquintana/divscope/internal/background"
	"github.com/mquintana/divscope/internal/config"
	"github.com/mquintana/divscope/internal/database"
	"github.com/mquintana/divscope/internal/handlers"
	"github.com/mquintana/divscope/internal/marketdata"
	middlewareCustom "github.com/mquintana/divscope/internal/middleware"
	"github.com/mquintana/divscope/internal/repositories"
	"github.com/mquintana/divscope/internal/routes"
	"github.com/mquintana/divscope/internal/services"
	pkglogger "github.com/mquintana/divscope/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Embedded store for cache entries and usage counters
	db, err := database.NewConnection(&cfg.Data, logger)
	if err != nil {
		logger.Error("failed to open data store", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Flat-file credential store
	userStore := repositories.NewUserStore(cfg.Data.UsersFile)
	if err := userStore.EnsureFile(); err != nil {
		logger.Error("failed to prepare users file", slog.Any("error", err))
		os.Exit(1)
	}

	cacheRepo := repositories.NewCacheRepository(db)
	usageRepo := repositories.NewUsageRepository(db)

	cleanupManager := background.NewCleanupManager(cacheRepo, usageRepo, logger, cfg.Data.CleanupInterval)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	provider := marketdata.NewHTTPClient(
		cfg.Provider.BaseURL,
		cfg.Provider.Timeout,
		cfg.Provider.MaxAttempts,
		logger,
	)

	cacheService := services.NewCacheService(cacheRepo, logger, cfg.Auth.FailClosed)
	usageService := services.NewUsageService(usageRepo, cfg.Limits.DailySearches, cfg.Auth.FailClosed, logger, auditLogger)
	marketService := services.NewMarketService(provider, cacheService, cfg.Provider, logger)
	authService := services.NewAuthService(userStore, tokenManager, logger, auditLogger, cfg.Auth.FailClosed)
	userService := services.NewUserService(userStore, logger, auditLogger)

	// Seed an admin account from the environment if configured
	if err := userService.EnsureAdminFromEnv(os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		logger.Error("failed to seed admin account", slog.Any("error", err))
	}

	cookieConfig := auth.CookieConfig{
		Secure:   cfg.Server.Env == "production",
		SameSite: "lax",
	}

	authHandler := handlers.NewAuthHandler(authService, cookieConfig, tokenManager.SessionExpirySeconds())
	tickerHandler := handlers.NewTickerHandler(marketService, usageService, authService)
	userHandler := handlers.NewUserHandler(userService)
	adminHandler := handlers.NewAdminHandler(cacheService, auditLogger)

	corsConfig := middlewareCustom.NewCORSConfig(cfg.Server.AllowedOrigins)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler, tickerHandler, userHandler, adminHandler, tokenManager, userStore)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","store":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","store":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
