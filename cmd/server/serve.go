package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"algo_tracker/internal/api"
	"algo_tracker/internal/api/middleware"
	"algo_tracker/internal/app/service"
	"algo_tracker/internal/common/security"
	"algo_tracker/internal/domain/repository"
	"algo_tracker/internal/platform/config"
	"algo_tracker/internal/platform/database"
	"algo_tracker/internal/platform/logger"
	"algo_tracker/internal/platform/oauth"
	"algo_tracker/internal/platform/sessionstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if len(cfg.InvalidOrigins) > 0 {
		log.WithField("origins", cfg.InvalidOrigins).Warn("ignoring invalid ALLOWED_ORIGINS entries")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DBConnStr, log)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := sessionstore.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	userRepo := repository.NewPgUserRepository(db)
	problemRepo := repository.NewPgProblemRepository(db)
	attemptRepo := repository.NewPgUserProblemRepository(db)
	tx := database.NewTxManager(db)

	authService := service.NewAuthService(userRepo, tx, log)
	userService := service.NewUserService(userRepo, tx, log)
	problemService := service.NewProblemService(problemRepo, tx, log)
	attemptService := service.NewUserProblemService(attemptRepo, problemRepo, userRepo, tx, log)

	tokens := security.NewSessionTokens(cfg.SessionSecret, cfg.SessionTTL)
	deps := api.Deps{
		Log:                log,
		Sessions:           middleware.NewSessions(sessionstore.NewRedisStore(rdb, cfg.SessionTTL), tokens, cfg.IsProduction(), log),
		Guard:              middleware.NewGuard(authService, log),
		Limiter:            middleware.NewRateLimiter(cfg.AuthRateLimitPerSecond, cfg.AuthRateLimitBurst, log),
		Metrics:            middleware.NewMetrics(),
		AuthService:        authService,
		GoogleAuth:         authService,
		ProblemService:     problemService,
		UserService:        userService,
		UserProblemService: attemptService,
		AllowedOrigins:     cfg.AllowedOrigins,
		FrontendURL:        cfg.FrontendURL,
		TrustProxy:         cfg.TrustProxyHeaders,
	}

	if cfg.GoogleEnabled() {
		provider, err := oauth.NewGoogleProvider(ctx, oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
		if err != nil {
			return err
		}
		deps.OAuth = provider
	} else {
		log.Warn("GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set, Google sign-in disabled")
	}

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.APIPort).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("could not listen on %s: %w", cfg.APIPort, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}
