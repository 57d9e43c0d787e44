package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"luckabet/internal/config"
	"luckabet/internal/database"
	"luckabet/internal/handlers"
	"luckabet/internal/logger"
	"luckabet/internal/repository"
	"luckabet/internal/security"
	"luckabet/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	db, err := database.Open(database.Options{
		Type: cfg.DatabaseType,
		Path: cfg.DatabasePath,
		URL:  cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	log.Info().Str("type", cfg.DatabaseType).Msg("database connection established")

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("migrations completed")

	// Repositories
	playerRepo := repository.NewPlayerRepository(db)
	gameRepo := repository.NewGameRepository(db)
	betRepo := repository.NewBetRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	signer := security.NewTokenSigner(cfg.SessionSecret)
	authService := service.NewAuthService(db, userRepo, playerRepo, signer, cfg.SessionDuration)
	bettingService := service.NewBettingService(db, playerRepo, gameRepo, betRepo, quartz.NewReal())
	statsService := service.NewStatsService(db, playerRepo, gameRepo, betRepo)

	emailService, err := service.NewEmailService(context.Background(), cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize email service")
	}

	// Handlers
	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	limiter := security.NewRateLimiter(30, time.Minute)
	middleware := handlers.NewMiddleware(authService, csrf, limiter, cfg.TrustProxyHeaders, log)
	authHandler := handlers.NewAuthHandler(authService, emailService, csrf, handlers.BuildOAuthProviders(cfg), cfg.OAuthRedirectBaseURL, log)
	betHandler := handlers.NewBetHandler(bettingService, log)
	gameHandler := handlers.NewGameHandler(bettingService, statsService, log)
	statsHandler := handlers.NewStatsHandler(bettingService, statsService, log)
	adminHandler := handlers.NewAdminHandler(userRepo, bettingService, log)

	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("GET /api/auth/providers", authHandler.Providers)
	mux.HandleFunc("GET /api/auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /api/auth/{provider}/callback", authHandler.OAuthCallback)
	mux.HandleFunc("POST /api/auth/forgot-password", middleware.RateLimit(authHandler.ForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", middleware.RateLimit(authHandler.ResetPassword))

	// Betting
	mux.HandleFunc("GET /api/window", betHandler.Window)
	mux.HandleFunc("GET /api/bets", middleware.RequireAuth(betHandler.MyBet))
	mux.HandleFunc("POST /api/bets", middleware.RequireAuth(middleware.CSRFProtect(betHandler.PlaceBet)))
	mux.HandleFunc("DELETE /api/bets", middleware.RequireAuth(middleware.CSRFProtect(betHandler.RemoveBet)))
	mux.HandleFunc("GET /api/bets/today", middleware.RequireAuth(betHandler.TodaysBets))

	// Games
	mux.HandleFunc("GET /api/games/current", middleware.RequireAuth(gameHandler.CurrentGame))
	mux.HandleFunc("GET /api/games/history", middleware.RequireAuth(gameHandler.History))
	mux.HandleFunc("POST /api/games", middleware.RequireAdmin(middleware.CSRFProtect(gameHandler.CreateGame)))
	mux.HandleFunc("POST /api/games/settle", middleware.RequireAdmin(middleware.CSRFProtect(gameHandler.Settle)))

	// Stats
	mux.HandleFunc("GET /api/players", middleware.RequireAuth(statsHandler.Leaderboard))
	mux.HandleFunc("GET /api/stats/global", middleware.RequireAuth(statsHandler.GlobalStats))
	mux.HandleFunc("GET /api/stats/{name}", middleware.RequireAuth(statsHandler.PlayerStats))

	// Admin
	mux.HandleFunc("GET /api/admin/users", middleware.RequireAdmin(adminHandler.ListUsers))
	mux.HandleFunc("DELETE /api/admin/users/{id}", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.DeleteUser)))
	mux.HandleFunc("GET /api/admin/players", middleware.RequireAdmin(adminHandler.ListPlayers))

	handler := handlers.Logging(log, mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go cleanupExpiredSessions(authService, log)

	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// cleanupExpiredSessions removes stale session rows every hour.
func cleanupExpiredSessions(authService *service.AuthService, log zerolog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Error().Err(err).Msg("session cleanup failed")
		}
	}
}
