package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nourabuild/account-service/internal/account"
	"github.com/nourabuild/account-service/internal/sdk/config"
	"github.com/nourabuild/account-service/internal/services/mailtrap"
	"github.com/nourabuild/account-service/internal/services/minio"
	"github.com/nourabuild/account-service/internal/services/photo"
	"github.com/nourabuild/account-service/internal/services/smtp"
)

func newLogger(cfg config.Log, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newNotifier(cfg config.Config, log *slog.Logger) (account.Notifier, error) {
	switch cfg.Mail.Driver {
	case config.MailDriverSMTP:
		return smtp.NewSMTPService(cfg.SMTP, cfg.Mail, log), nil
	case config.MailDriverMailtrap:
		m, err := mailtrap.NewMailtrapService(cfg.Mailtrap, cfg.Mail, log)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownMailDriver, cfg.Mail.Driver)
	}
}

func newPhotoStore(ctx context.Context, cfg config.Config, log *slog.Logger) (account.PhotoStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverDisk:
		store, err := photo.NewDiskStore(cfg.Storage.UploadDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageDriverMinio:
		store, err := minio.NewMinioService(cfg.Minio, log)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStorage, cfg.Storage.Driver)
	}
}
