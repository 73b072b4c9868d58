package sentry

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nourabuild/account-service/internal/sdk/config"
)

func TestNewSentryService_Disabled(t *testing.T) {
	s := NewSentryService(config.Sentry{}, slog.New(slog.DiscardHandler))

	assert.False(t, s.Enabled())
	assert.NotPanics(t, func() { s.CaptureException(errors.New("boom")) })
	assert.True(t, s.Flush(time.Millisecond))

	called := false
	s.WithScope(func(scope *Scope) { called = true })
	assert.False(t, called)
	assert.NotPanics(t, s.Close)
}

func TestNewSentryService_BadDSN(t *testing.T) {
	s := NewSentryService(config.Sentry{DSN: "::not a dsn::"}, slog.New(slog.DiscardHandler))
	assert.False(t, s.Enabled())
}
