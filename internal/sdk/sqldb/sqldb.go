// Package sqldb provides database operations for the account service.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nourabuild/account-service/internal/sdk/config"
	"github.com/nourabuild/account-service/internal/sdk/models"
	"github.com/nourabuild/account-service/internal/sdk/sqldb/migrations"
	"github.com/pressly/goose/v3"
)

// lib/pq errorCodeNames
// https://github.com/lib/pq/blob/master/error.go#L178
const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

var (
	ErrDBNotFound        = sql.ErrNoRows
	ErrDBDuplicatedEntry = errors.New("duplicated entry")
	ErrCheckViolation    = errors.New("check constraint violation")
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	Health() map[string]string

	// Close terminates the database connection.
	Close() error

	GetAccountByID(ctx context.Context, id string) (models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (models.Account, error)
	CreateAccount(ctx context.Context, na models.NewAccount) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)

	// ActivateAccount flips a pending account to active and clears its code,
	// but only while the stored code still equals code. ErrDBNotFound means
	// no pending row matched.
	ActivateAccount(ctx context.Context, id, code string) error

	// ClaimVerificationAttempt spends one verification attempt on a pending
	// account and returns the code the attempt may be checked against. The
	// claim is refused with ErrDBNotFound once maxAttempts have been spent
	// (zero means unlimited) or the code expired at now. Concurrent claims
	// are serialized by the row lock, so no more than maxAttempts succeed.
	ClaimVerificationAttempt(ctx context.Context, id string, maxAttempts int, now time.Time) (string, error)

	// ReplaceVerificationCode stores a fresh code on a pending account and
	// resets its attempt counter.
	ReplaceVerificationCode(ctx context.Context, id, code string, expiresAt time.Time) error

	// DeletePendingAccount removes an account that never verified. Active
	// accounts are never deleted.
	DeletePendingAccount(ctx context.Context, id string) error
}

type service struct {
	db      *sql.DB
	name    string
	timeout time.Duration
}

// New opens a pgx-backed connection pool.
func New(cfg config.DB) (Service, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return NewWithDB(db, cfg.Database, cfg.Timeout), nil
}

// NewWithDB wraps an existing handle. Every call is bounded by timeout when
// it is positive.
func NewWithDB(db *sql.DB, name string, timeout time.Duration) Service {
	return &service{db: db, name: name, timeout: timeout}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db Service) error {
	s, ok := db.(*service)
	if !ok {
		return fmt.Errorf("running migrations: unsupported service %T", db)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (s *service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	if dbStats.OpenConnections > 40 {
		stats["message"] = "The database is experiencing heavy load."
	}

	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	return s.db.Close()
}

// ---------------------------------------------
// SQL Commands
// ---------------------------------------------

const accountColumns = `
	id,
	name,
	email,
	password,
	is_active,
	verification_code,
	verification_expires_at,
	verification_attempts,
	is_admin,
	phone,
	photo,
	created_at,
	updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.Password,
		&a.IsActive,
		&a.VerificationCode,
		&a.VerificationExpiresAt,
		&a.VerificationAttempts,
		&a.IsAdmin,
		&a.Phone,
		&a.Photo,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

// GetAccountByID retrieves an account by its ID
func (s *service) GetAccountByID(ctx context.Context, id string) (models.Account, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE id = $1`

	a, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, ErrDBNotFound
		}
		return models.Account{}, fmt.Errorf("selecting account: %w", err)
	}

	return a, nil
}

// GetAccountByEmail retrieves an account by its email address
func (s *service) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE email = $1`

	a, err := scanAccount(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, ErrDBNotFound
		}
		return models.Account{}, fmt.Errorf("selecting account by email: %w", err)
	}

	return a, nil
}

// CreateAccount inserts a pending account in a single statement
func (s *service) CreateAccount(ctx context.Context, na models.NewAccount) (models.Account, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	query := `
		INSERT INTO accounts (id, name, email, password, is_active, verification_code, verification_expires_at, is_admin, phone, photo)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6, FALSE, $7, $8)
		RETURNING` + accountColumns

	a, err := scanAccount(s.db.QueryRowContext(ctx, query,
		na.ID,
		na.Name,
		na.Email,
		na.Password,
		na.VerificationCode,
		na.VerificationExpiresAt,
		NullString(na.Phone),
		NullString(na.Photo),
	))
	if err != nil {
		switch {
		case isPgError(err, uniqueViolation):
			return models.Account{}, ErrDBDuplicatedEntry
		case isPgError(err, checkViolation):
			return models.Account{}, ErrCheckViolation
		}
		return models.Account{}, fmt.Errorf("creating account: %w", err)
	}

	return a, nil
}

// ListAccounts retrieves all accounts, newest first
func (s *service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	query := `SELECT` + accountColumns + `
		FROM accounts
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}

	return accounts, nil
}

func (s *service) ActivateAccount(ctx context.Context, id, code string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	const query = `
		UPDATE accounts
		SET is_active = TRUE,
		    verification_code = NULL,
		    verification_expires_at = NULL,
		    verification_attempts = 0,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		  AND is_active = FALSE
		  AND verification_code = $2
	`

	result, err := s.db.ExecContext(ctx, query, id, code)
	if err != nil {
		return fmt.Errorf("activating account: %w", err)
	}

	return expectOneRow(result)
}

func (s *service) ClaimVerificationAttempt(ctx context.Context, id string, maxAttempts int, now time.Time) (string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	const query = `
		UPDATE accounts
		SET verification_attempts = verification_attempts + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		  AND is_active = FALSE
		  AND verification_code IS NOT NULL
		  AND ($2::int = 0 OR verification_attempts < $2::int)
		  AND (verification_expires_at IS NULL OR verification_expires_at > $3)
		RETURNING verification_code
	`

	var code string
	if err := s.db.QueryRowContext(ctx, query, id, maxAttempts, now).Scan(&code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrDBNotFound
		}
		return "", fmt.Errorf("claiming verification attempt: %w", err)
	}

	return code, nil
}

func (s *service) ReplaceVerificationCode(ctx context.Context, id, code string, expiresAt time.Time) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	const query = `
		UPDATE accounts
		SET verification_code = $2,
		    verification_expires_at = $3,
		    verification_attempts = 0,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		  AND is_active = FALSE
	`

	result, err := s.db.ExecContext(ctx, query, id, code, expiresAt)
	if err != nil {
		return fmt.Errorf("replacing verification code: %w", err)
	}

	return expectOneRow(result)
}

func (s *service) DeletePendingAccount(ctx context.Context, id string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	const query = `
		DELETE FROM accounts
		WHERE id = $1
		  AND is_active = FALSE
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting pending account: %w", err)
	}

	return expectOneRow(result)
}

// ---------------------------------------------
// Helpers
// ---------------------------------------------

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDBNotFound
	}
	return nil
}

// isPgError checks if the error is a PostgreSQL error with the given code
func isPgError(err error, code string) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == code
	}
	return false
}

// NullString creates a sql.NullString from a string pointer.
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDBNotFound)
}

// IsDuplicateEntry checks if the error is a duplicate entry error.
func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDBDuplicatedEntry) || isPgError(err, uniqueViolation)
}
