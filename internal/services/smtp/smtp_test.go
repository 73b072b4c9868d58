package smtp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/nourabuild/account-service/internal/sdk/config"
)

type fakeDialer struct {
	sent  []*gomail.Message
	err   error
	delay time.Duration
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.sent = append(f.sent, m...)
	return f.err
}

func newTestService(d sender) *SMTPService {
	s := NewSMTPService(config.SMTP{Host: "localhost", Port: 2525}, config.Mail{From: "noreply@x.com", FromName: "Accounts"}, slog.New(slog.DiscardHandler))
	s.dialer = d
	return s
}

func TestSendVerificationCode(t *testing.T) {
	d := &fakeDialer{}
	s := newTestService(d)

	err := s.SendVerificationCode(context.Background(), "ann@x.com", "Ann", "Ab3dE9")
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	msg := d.sent[0]
	assert.Equal(t, []string{`"Ann" <ann@x.com>`}, msg.GetHeader("To"))
	assert.Equal(t, []string{`"Accounts" <noreply@x.com>`}, msg.GetHeader("From"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Ab3dE9")
}

func TestSendVerificationCode_NoRecipient(t *testing.T) {
	s := newTestService(&fakeDialer{})
	assert.ErrorIs(t, s.SendVerificationCode(context.Background(), "", "Ann", "Ab3dE9"), ErrNoRecipient)
}

func TestSendVerificationCode_TransportError(t *testing.T) {
	s := newTestService(&fakeDialer{err: errors.New("535 auth failed")})

	err := s.SendVerificationCode(context.Background(), "ann@x.com", "Ann", "Ab3dE9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535 auth failed")
}

func TestSendVerificationCode_ContextDeadline(t *testing.T) {
	s := newTestService(&fakeDialer{delay: 200 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := s.SendVerificationCode(ctx, "ann@x.com", "Ann", "Ab3dE9")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
