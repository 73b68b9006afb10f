package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tutorhub/internal/activity"
	"tutorhub/internal/config"
	"tutorhub/internal/database"
	"tutorhub/internal/handlers"
	"tutorhub/internal/repository"
	"tutorhub/internal/security"
	"tutorhub/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const janitorInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("database initialized", zap.String("db_type", cfg.DatabaseType))

	if err := db.RunMigrations(); err != nil {
		return err
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	tokenRepo := repository.NewResetTokenRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Activity sinks
	sinks := []activity.Sink{activityRepo, activity.NewLogSink(logger)}
	if cfg.AMQPURL != "" {
		publisher, err := activity.NewAMQPSink(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("failed to connect activity broker: %w", err)
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
		logger.Info("publishing activity events", zap.String("exchange", cfg.AMQPExchange))
	}
	recorder := activity.NewRecorder(logger, sinks...)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, logger)
	if err != nil {
		return err
	}

	perms := service.DefaultPermissions()
	if cfg.PermissionsFile != "" {
		if perms, err = service.LoadPermissions(cfg.PermissionsFile); err != nil {
			return err
		}
		logger.Info("loaded role permissions", zap.String("file", cfg.PermissionsFile))
	}

	// Services
	throttle := service.NewLoginThrottle(attemptRepo, cfg.MaxLoginAttempts, cfg.LockoutDuration)
	sessionManager := service.NewSessionManager(userRepo, sessionRepo, throttle, cfg.SessionTimeout, recorder, logger)
	resetService := service.NewPasswordResetService(userRepo, tokenRepo, sessionRepo, emailService, cfg.ResetTokenTTL, recorder, logger)
	userService := service.NewUserService(userRepo, sessionRepo, recorder, logger)
	gate := service.NewPermissionGate(perms)
	janitor := service.NewJanitor(sessionRepo, tokenRepo, attemptRepo, cfg.SessionTimeout, cfg.LockoutDuration, janitorInterval, logger)

	// HTTP
	signer := security.NewSessionTokenSigner(cfg.SessionSecret)
	csrf := security.NewCSRFGenerator(cfg.SessionSecret)
	limiter := security.NewRateLimiter(cfg.LoginRateLimit)
	respond := handlers.NewResponder(logger, cfg.APIVersion)
	mw := handlers.NewMiddleware(sessionManager, gate, signer, csrf, limiter, respond, logger, cfg.SecureCookies)
	authHandler := handlers.NewAuthHandler(sessionManager, resetService, userService, gate, signer, csrf, respond, cfg.SecureCookies)
	adminHandler := handlers.NewAdminHandler(userService, respond)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handlers.NewRouter(authHandler, adminHandler, mw, respond, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go janitor.Run(ctx)
	go limiter.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	resetService.Wait()
	return nil
}
