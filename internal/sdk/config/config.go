// Package config loads the process-wide service configuration.
//
// Configuration is read once at startup from environment variables (a .env
// file is honoured through godotenv/autoload in cmd/api) and passed by value
// to every component. Nothing below cmd/ reads the environment directly.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	MailDriverSMTP     = "smtp"
	MailDriverMailtrap = "mailtrap"

	StorageDriverDisk  = "disk"
	StorageDriverMinio = "minio"

	HashBcrypt   = "bcrypt"
	HashArgon2id = "argon2id"
)

var (
	ErrMissingSecret     = errors.New("config: JWT_SECRET is required")
	ErrUnknownMailDriver = errors.New("config: unknown mail driver")
	ErrUnknownStorage    = errors.New("config: unknown storage driver")
	ErrUnknownHash       = errors.New("config: unknown hash algorithm")
)

// Config is the full service configuration.
type Config struct {
	HTTP         HTTP         `envPrefix:"HTTP_"`
	DB           DB           `envPrefix:"DB_"`
	JWT          JWT          `envPrefix:"JWT_"`
	Hash         Hash         `envPrefix:"HASH_"`
	Verification Verification `envPrefix:"VERIFICATION_"`
	Mail         Mail         `envPrefix:"MAIL_"`
	SMTP         SMTP         `envPrefix:"SMTP_"`
	Mailtrap     Mailtrap     `envPrefix:"MAILTRAP_"`
	Storage      Storage      `envPrefix:"STORAGE_"`
	Minio        Minio        `envPrefix:"MINIO_"`
	Sentry       Sentry       `envPrefix:"SENTRY_"`
	Log          Log          `envPrefix:"LOG_"`
}

type HTTP struct {
	Port         int           `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"1m"`
	MaxUpload    int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

type DB struct {
	Host     string        `env:"HOST" envDefault:"localhost"`
	Port     string        `env:"PORT" envDefault:"5432"`
	Database string        `env:"DATABASE" envDefault:"accounts"`
	Username string        `env:"USERNAME" envDefault:"postgres"`
	Password string        `env:"PASSWORD"`
	Schema   string        `env:"SCHEMA" envDefault:"public"`
	SSLMode  string        `env:"SSLMODE" envDefault:"disable"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"5s"`
	Migrate  bool          `env:"MIGRATE" envDefault:"true"`
}

// DSN renders the pgx connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.SSLMode, d.Schema)
}

// JWT configures the token issuer. Secret has no default: rotating it
// invalidates every token issued under the previous value.
type JWT struct {
	Secret     string `env:"SECRET"`
	Issuer     string `env:"ISSUER" envDefault:"account-service"`
	TTLMinutes int    `env:"TTL_MINUTES" envDefault:"30"`
}

func (j JWT) TTL() time.Duration {
	return time.Duration(j.TTLMinutes) * time.Minute
}

type Hash struct {
	Algorithm  string `env:"ALGORITHM" envDefault:"bcrypt"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"10"`
}

type Verification struct {
	CodeTTL     time.Duration `env:"CODE_TTL" envDefault:"24h"`
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"5"`
}

type Mail struct {
	Driver   string        `env:"DRIVER" envDefault:"smtp"`
	From     string        `env:"FROM" envDefault:"noreply@localhost"`
	FromName string        `env:"FROM_NAME" envDefault:"Account Service"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type SMTP struct {
	Host     string `env:"HOST" envDefault:"smtp.gmail.com"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

type Mailtrap struct {
	APIKey string `env:"API_KEY"`
	URL    string `env:"API_URL" envDefault:"https://send.api.mailtrap.io/api/send"`
}

type Storage struct {
	Driver    string `env:"DRIVER" envDefault:"disk"`
	UploadDir string `env:"UPLOAD_DIR" envDefault:"./uploads"`
}

type Minio struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"account-service"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

type Sentry struct {
	DSN         string `env:"DSN"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// Load parses the process environment into a Config and validates it.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses the given variables instead of the process environment.
// A nil map falls back to os.Environ.
func LoadFrom(environ map[string]string) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: environ})
	if err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration that would leave the service unable to run
// safely.
func (c Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, ErrMissingSecret)
	}
	if c.JWT.TTLMinutes <= 0 {
		errs = append(errs, fmt.Errorf("config: JWT_TTL_MINUTES must be positive, got %d", c.JWT.TTLMinutes))
	}

	switch c.Mail.Driver {
	case MailDriverSMTP, MailDriverMailtrap:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownMailDriver, c.Mail.Driver))
	}

	switch c.Storage.Driver {
	case StorageDriverDisk, StorageDriverMinio:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownStorage, c.Storage.Driver))
	}

	switch c.Hash.Algorithm {
	case HashBcrypt, HashArgon2id:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownHash, c.Hash.Algorithm))
	}

	if c.Verification.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("config: VERIFICATION_MAX_ATTEMPTS must not be negative"))
	}

	return errors.Join(errs...)
}
