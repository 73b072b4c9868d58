package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/nourabuild/account-service/internal/account"
	"github.com/nourabuild/account-service/internal/app"
	"github.com/nourabuild/account-service/internal/sdk/config"
	"github.com/nourabuild/account-service/internal/sdk/jwt"
	"github.com/nourabuild/account-service/internal/sdk/sqldb"
	"github.com/nourabuild/account-service/internal/services/authcode"
	"github.com/nourabuild/account-service/internal/services/hash"
	"github.com/nourabuild/account-service/internal/services/sentry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func run() error {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)
	logger.Info("GOMAXPROCS", "cpu", runtime.GOMAXPROCS(0))

	// 2. Initialize Database
	dbService, err := sqldb.New(cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer dbService.Close()

	if cfg.DB.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := sqldb.RunMigrations(ctx, dbService)
		cancel()
		if err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	// 3. Initialize Services
	sentryService := sentry.NewSentryService(cfg.Sentry, logger)
	defer sentryService.Close()

	hashService, err := hash.NewHashService(cfg.Hash)
	if err != nil {
		return err
	}

	codes, err := authcode.NewGenerator(authcode.DefaultLength)
	if err != nil {
		return err
	}

	jwtService, err := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL())
	if err != nil {
		return err
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	photos, err := newPhotoStore(context.Background(), cfg, logger)
	if err != nil {
		return err
	}

	accounts := account.NewManager(account.Deps{
		Store:    dbService,
		Hasher:   hashService,
		Codes:    codes,
		Tokens:   jwtService,
		Notifier: notifier,
		Photos:   photos,
	}, account.Config{
		CodeTTL:       cfg.Verification.CodeTTL,
		MaxAttempts:   cfg.Verification.MaxAttempts,
		MailTimeout:   cfg.Mail.Timeout,
		MaxPhotoBytes: cfg.HTTP.MaxUpload,
	}, logger)

	// 4. Initialize App
	application := app.NewApp(accounts, dbService, jwtService, sentryService, logger, cfg.HTTP.MaxUpload)

	// 5. Configure Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      application.RegisterRoutes(),
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	// 6. Graceful Shutdown Logic
	done := make(chan bool, 1)
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		signal.Stop(sigChan)

		logger.Info("shutting down gracefully, press Ctrl+C again to force")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server forced to shutdown", "error", err)
		}
		done <- true
	}()

	// 7. Start Server
	logger.Info("Starting server", "port", srv.Addr, "mail_driver", cfg.Mail.Driver, "storage_driver", cfg.Storage.Driver)
	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	logger.Info("Graceful shutdown complete")
	return nil
}
