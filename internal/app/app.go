package app

import (
	"context"
	"log/slog"

	"github.com/nourabuild/account-service/internal/account"
	"github.com/nourabuild/account-service/internal/sdk/middleware"
	"github.com/nourabuild/account-service/internal/sdk/models"
	"github.com/nourabuild/account-service/internal/services/sentry"
)

// Accounts is the lifecycle API the handlers drive. *account.Manager
// satisfies it.
type Accounts interface {
	Register(ctx context.Context, p account.RegisterParams) (models.Account, error)
	Verify(ctx context.Context, email, code string) error
	ResendVerificationCode(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (account.Session, error)
	Account(ctx context.Context, id string) (models.Account, error)
	Accounts(ctx context.Context) ([]models.Account, error)
}

// HealthChecker reports storage health. sqldb.Service satisfies it.
type HealthChecker interface {
	Health() map[string]string
}

type App struct {
	accounts  Accounts
	db        HealthChecker
	tokens    middleware.TokenParser
	sentry    *sentry.SentryService
	log       *slog.Logger
	maxUpload int64
}

func NewApp(
	accounts Accounts,
	db HealthChecker,
	tokens middleware.TokenParser,
	sentry *sentry.SentryService,
	log *slog.Logger,
	maxUpload int64,
) *App {
	if log == nil {
		log = slog.Default()
	}
	useJSONFieldNames()
	return &App{
		accounts:  accounts,
		db:        db,
		tokens:    tokens,
		sentry:    sentry,
		log:       log,
		maxUpload: maxUpload,
	}
}
