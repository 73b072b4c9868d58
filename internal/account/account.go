// Package account implements the account lifecycle: registration, email
// verification and password login.
//
// An account moves from pending (registered, code mailed) to active (code
// confirmed) and never back. Manager is the only writer of account state;
// everything it talks to is injected so that storage, mail, hashing and
// token signing can be swapped independently.
package account

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nourabuild/account-service/internal/sdk/jwt"
	"github.com/nourabuild/account-service/internal/sdk/models"
	"github.com/nourabuild/account-service/internal/sdk/sqldb"
	"github.com/nourabuild/account-service/internal/services/photo"
)

var (
	ErrDuplicateAccount        = errors.New("account already exists")
	ErrInvalidVerificationCode = errors.New("invalid verification code")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrAccountNotActive        = errors.New("account not active")
	ErrNotificationFailed      = errors.New("notification failed")
	ErrStorageUnavailable      = errors.New("storage unavailable")
	ErrInvalidPhoto            = errors.New("invalid photo")
	ErrPhotoStorage            = errors.New("photo storage failed")
	ErrAccountNotFound         = errors.New("account not found")
)

// Store is the persistence the manager needs. sqldb.Service satisfies it.
type Store interface {
	GetAccountByID(ctx context.Context, id string) (models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (models.Account, error)
	CreateAccount(ctx context.Context, na models.NewAccount) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	ActivateAccount(ctx context.Context, id, code string) error
	ClaimVerificationAttempt(ctx context.Context, id string, maxAttempts int, now time.Time) (string, error)
	ReplaceVerificationCode(ctx context.Context, id, code string, expiresAt time.Time) error
	DeletePendingAccount(ctx context.Context, id string) error
}

type Hasher interface {
	HashPassword(password string) ([]byte, error)
	CheckPasswordHash(password string, digest []byte) bool
}

type CodeGenerator interface {
	Generate() (string, error)
}

type TokenIssuer interface {
	GenerateAccessToken(ctx context.Context, accountID, email string, isAdmin bool) (jwt.Token, error)
}

// Notifier delivers a verification code to an email address. One attempt
// per call; failures are returned, never retried.
type Notifier interface {
	SendVerificationCode(ctx context.Context, to, name, code string) error
}

type PhotoStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Config holds the lifecycle knobs.
type Config struct {
	// CodeTTL is how long a verification code stays usable. Zero disables expiry.
	CodeTTL time.Duration
	// MaxAttempts caps failed verifications per code. Zero disables the cap.
	MaxAttempts int
	// MailTimeout bounds a single notification. Zero leaves it to ctx.
	MailTimeout time.Duration
	// MaxPhotoBytes rejects larger uploads. Zero disables the limit.
	MaxPhotoBytes int64
}

// Deps are the collaborators of a Manager. Photos may be nil when the
// deployment has no photo storage; registrations carrying a photo then fail.
type Deps struct {
	Store    Store
	Hasher   Hasher
	Codes    CodeGenerator
	Tokens   TokenIssuer
	Notifier Notifier
	Photos   PhotoStore
}

type Manager struct {
	Deps
	cfg   Config
	log   *slog.Logger
	now   func() time.Time
	newID func() string

	decoyOnce sync.Once
	decoy     []byte
}

type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides how account ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

func NewManager(deps Deps, cfg Config, log *slog.Logger, opts ...Option) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		Deps:  deps,
		cfg:   cfg,
		log:   log.With("component", "account"),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterParams is a registration request. Photo is optional.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Phone    *string
	Photo    io.Reader
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	ExpiresIn   time.Duration
	Account     models.Account
}

// Register creates a pending account and mails it a verification code. If
// the code cannot be delivered the account and its photo are removed again
// so the email can be registered anew.
func (m *Manager) Register(ctx context.Context, p RegisterParams) (models.Account, error) {
	email := NormalizeEmail(p.Email)

	_, err := m.Store.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		return models.Account{}, ErrDuplicateAccount
	case !sqldb.IsNotFound(err):
		return models.Account{}, storageError(err)
	}

	digest, err := m.Hasher.HashPassword(p.Password)
	if err != nil {
		return models.Account{}, fmt.Errorf("hashing password: %w", err)
	}

	code, err := m.Codes.Generate()
	if err != nil {
		return models.Account{}, fmt.Errorf("generating verification code: %w", err)
	}

	id := m.newID()

	var photoKey *string
	if p.Photo != nil {
		key, err := m.storePhoto(ctx, id, p.Photo)
		if err != nil {
			return models.Account{}, err
		}
		photoKey = &key
	}

	created, err := m.Store.CreateAccount(ctx, models.NewAccount{
		ID:                    id,
		Name:                  strings.TrimSpace(p.Name),
		Email:                 email,
		Password:              digest,
		VerificationCode:      code,
		VerificationExpiresAt: m.codeExpiry(),
		Phone:                 p.Phone,
		Photo:                 photoKey,
	})
	if err != nil {
		m.discardPhoto(ctx, photoKey)
		if sqldb.IsDuplicateEntry(err) {
			return models.Account{}, ErrDuplicateAccount
		}
		return models.Account{}, storageError(err)
	}

	if err := m.notify(ctx, created, code); err != nil {
		m.rollbackRegistration(ctx, created.ID, photoKey)
		return models.Account{}, err
	}

	m.log.Info("account registered", "account_id", created.ID)
	return created, nil
}

// Verify activates the account registered under email when code matches
// its pending code. Every failure, including an unknown email, reports
// ErrInvalidVerificationCode.
func (m *Manager) Verify(ctx context.Context, email, code string) error {
	acc, err := m.Store.GetAccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if sqldb.IsNotFound(err) {
			return ErrInvalidVerificationCode
		}
		return storageError(err)
	}

	if !acc.Pending() {
		return ErrInvalidVerificationCode
	}

	// An attempt is spent before the code is compared. At most MaxAttempts
	// comparisons ever happen per code.
	stored, err := m.Store.ClaimVerificationAttempt(ctx, acc.ID, m.cfg.MaxAttempts, m.now())
	if err != nil {
		if sqldb.IsNotFound(err) {
			m.log.Warn("verification attempt refused", "account_id", acc.ID)
			return ErrInvalidVerificationCode
		}
		return storageError(err)
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(stored)) != 1 {
		return ErrInvalidVerificationCode
	}

	if err := m.Store.ActivateAccount(ctx, acc.ID, stored); err != nil {
		if sqldb.IsNotFound(err) {
			return ErrInvalidVerificationCode
		}
		return storageError(err)
	}

	m.log.Info("account verified", "account_id", acc.ID)
	return nil
}

// Login checks the password first and the activation state second, so an
// inactive account with the right password gets ErrAccountNotActive.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	acc, err := m.Store.GetAccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if sqldb.IsNotFound(err) {
			// Unknown emails cost one hash comparison too.
			m.Hasher.CheckPasswordHash(password, m.decoyDigest())
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, storageError(err)
	}

	if !m.Hasher.CheckPasswordHash(password, acc.Password) {
		return Session{}, ErrInvalidCredentials
	}

	if !acc.IsActive {
		return Session{}, ErrAccountNotActive
	}

	token, err := m.Tokens.GenerateAccessToken(ctx, acc.ID, acc.Email, acc.IsAdmin)
	if err != nil {
		return Session{}, fmt.Errorf("issuing token: %w", err)
	}

	return Session{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		ExpiresIn:   token.ExpiresAt.Sub(m.now()),
		Account:     acc,
	}, nil
}

// ResendVerificationCode replaces the code of a pending account and mails
// the new one. Unknown and already active emails succeed silently.
func (m *Manager) ResendVerificationCode(ctx context.Context, email string) error {
	acc, err := m.Store.GetAccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if sqldb.IsNotFound(err) {
			return nil
		}
		return storageError(err)
	}
	if acc.IsActive {
		return nil
	}

	code, err := m.Codes.Generate()
	if err != nil {
		return fmt.Errorf("generating verification code: %w", err)
	}

	if err := m.Store.ReplaceVerificationCode(ctx, acc.ID, code, m.codeExpiry()); err != nil {
		if sqldb.IsNotFound(err) {
			return nil
		}
		return storageError(err)
	}

	if err := m.notify(ctx, acc, code); err != nil {
		return err
	}

	m.log.Info("verification code reissued", "account_id", acc.ID)
	return nil
}

func (m *Manager) Account(ctx context.Context, id string) (models.Account, error) {
	acc, err := m.Store.GetAccountByID(ctx, id)
	if err != nil {
		if sqldb.IsNotFound(err) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, storageError(err)
	}
	return acc, nil
}

func (m *Manager) Accounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := m.Store.ListAccounts(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return accounts, nil
}

// ---------------------------------------------
// Helpers
// ---------------------------------------------

func (m *Manager) codeExpiry() time.Time {
	ttl := m.cfg.CodeTTL
	if ttl <= 0 {
		// Far enough out to never trip the expiry check.
		ttl = 100 * 365 * 24 * time.Hour
	}
	return m.now().Add(ttl)
}

// decoyDigest is a digest of a random password made by the configured hasher.
func (m *Manager) decoyDigest() []byte {
	m.decoyOnce.Do(func() {
		digest, err := m.Hasher.HashPassword(uuid.NewString())
		if err != nil {
			m.log.Warn("building decoy digest", "error", err)
			return
		}
		m.decoy = digest
	})
	return m.decoy
}

func (m *Manager) notify(ctx context.Context, acc models.Account, code string) error {
	if m.cfg.MailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.MailTimeout)
		defer cancel()
	}
	if err := m.Notifier.SendVerificationCode(ctx, acc.Email, acc.Name, code); err != nil {
		m.log.Error("sending verification code", "account_id", acc.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return nil
}

func (m *Manager) storePhoto(ctx context.Context, accountID string, r io.Reader) (string, error) {
	if m.Photos == nil {
		return "", fmt.Errorf("%w: no photo storage configured", ErrPhotoStorage)
	}

	data, err := photo.Normalize(r, m.cfg.MaxPhotoBytes)
	if err != nil {
		if errors.Is(err, photo.ErrInvalidImage) || errors.Is(err, photo.ErrTooLarge) {
			return "", fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
		}
		return "", fmt.Errorf("%w: %v", ErrPhotoStorage, err)
	}

	key := photo.Key(accountID)
	if err := m.Photos.Save(ctx, key, bytes.NewReader(data), photo.ContentType); err != nil {
		m.log.Error("storing photo", "account_id", accountID, "error", err)
		return "", fmt.Errorf("%w: %v", ErrPhotoStorage, err)
	}
	return key, nil
}

func (m *Manager) discardPhoto(ctx context.Context, key *string) {
	if key == nil || m.Photos == nil {
		return
	}
	if err := m.Photos.Delete(context.WithoutCancel(ctx), *key); err != nil {
		m.log.Warn("removing orphaned photo", "key", *key, "error", err)
	}
}

// rollbackRegistration undoes a registration whose code never reached the
// user. It runs detached from ctx cancellation.
func (m *Manager) rollbackRegistration(ctx context.Context, id string, photoKey *string) {
	ctx = context.WithoutCancel(ctx)
	if err := m.Store.DeletePendingAccount(ctx, id); err != nil {
		m.log.Error("rolling back registration", "account_id", id, "error", err)
	}
	m.discardPhoto(ctx, photoKey)
}

func storageError(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
