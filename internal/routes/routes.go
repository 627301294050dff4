package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/mquintana/divscope/internal/auth"
	"github.com/mquintana/divscope/internal/handlers"
	"github.com/mquintana/divscope/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	tickerHandler *handlers.TickerHandler,
	userHandler *handlers.UserHandler,
	adminHandler *handlers.AdminHandler,
	tokenManager *auth.TokenManager,
	users auth.UserFetcher,
) {
	loginLimit := middleware.DefaultLoginRateLimit()

	// Public routes
	router.With(middleware.RateLimitByIP(loginLimit)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(loginLimit)).Post("/auth/setup", authHandler.Setup)
	router.Get("/auth/setup", authHandler.SetupStatus)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokenManager))

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/me", authHandler.Me)
		r.Get("/usage", tickerHandler.Usage)

		r.Route("/tickers/{symbol}", func(r chi.Router) {
			r.Get("/", tickerHandler.Overview)
			r.Get("/quote", tickerHandler.Quote)
			r.Get("/profile", tickerHandler.Profile)
			r.Get("/key-stats", tickerHandler.KeyStats)
			r.Get("/dividends/kpis", tickerHandler.DividendKPIs)
			r.Get("/dividends/annual", tickerHandler.DividendAnnual)
			r.Get("/dividends/safety", tickerHandler.DividendSafety)
			r.Get("/dividends/yield-bands", tickerHandler.YieldBands)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(users))
			r.Get("/users", userHandler.List)
			r.Post("/users", userHandler.Upsert)
			r.Get("/admin/cache", adminHandler.CacheStats)
			r.Post("/admin/cache/flush", adminHandler.FlushCache)
		})
	})
}
