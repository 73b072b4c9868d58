// Package sentry reports unexpected failures to Sentry.
package sentry

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/nourabuild/account-service/internal/sdk/config"
)

// Level is the severity attached to a captured event.
type Level = sentry.Level

const (
	LevelError   = sentry.LevelError
	LevelWarning = sentry.LevelWarning
)

// Scope carries tags and extras for a single captured event.
type Scope = sentry.Scope

// SentryService wraps the global Sentry hub. A service built without a DSN
// is a no-op.
type SentryService struct {
	initialized bool
}

// NewSentryService initializes the Sentry client from cfg.
func NewSentryService(cfg config.Sentry, log *slog.Logger) *SentryService {
	if log == nil {
		log = slog.Default()
	}
	if cfg.DSN == "" {
		log.Info("SENTRY_DSN not set, Sentry disabled")
		return &SentryService{}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: 1.0,
		EnableTracing:    true,
	})
	if err != nil {
		log.Error("sentry initialization failed", "error", err)
		return &SentryService{}
	}

	log.Info("sentry initialized", "environment", cfg.Environment)
	return &SentryService{initialized: true}
}

// Enabled reports whether events are actually delivered.
func (s *SentryService) Enabled() bool {
	return s.initialized
}

// CaptureException captures an error and sends it to Sentry
func (s *SentryService) CaptureException(err error) {
	if !s.initialized {
		return
	}
	sentry.CaptureException(err)
}

// WithScope executes a function with a new Sentry scope
func (s *SentryService) WithScope(fn func(scope *Scope)) {
	if !s.initialized {
		return
	}
	sentry.WithScope(fn)
}

// Flush waits for all events to be sent to Sentry
func (s *SentryService) Flush(timeout time.Duration) bool {
	if !s.initialized {
		return true
	}
	return sentry.Flush(timeout)
}

// Close flushes buffered events.
func (s *SentryService) Close() {
	s.Flush(2 * time.Second)
}
