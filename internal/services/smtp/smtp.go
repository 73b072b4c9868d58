// Package smtp delivers account emails over SMTP.
package smtp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/nourabuild/account-service/internal/sdk/config"
	"github.com/nourabuild/account-service/internal/services/emails"
)

var ErrNoRecipient = errors.New("smtp: no recipient specified")

// sender is satisfied by *gomail.Dialer.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPService struct {
	dialer   sender
	from     string
	fromName string
	log      *slog.Logger
}

func NewSMTPService(smtp config.SMTP, mail config.Mail, log *slog.Logger) *SMTPService {
	if log == nil {
		log = slog.Default()
	}
	return &SMTPService{
		dialer:   gomail.NewDialer(smtp.Host, smtp.Port, smtp.Username, smtp.Password),
		from:     mail.From,
		fromName: mail.FromName,
		log:      log,
	}
}

// SendVerificationCode mails code to the given address. The call returns
// once the server accepted the message or ctx is done, whichever is first.
func (s *SMTPService) SendVerificationCode(ctx context.Context, to, name, code string) error {
	if to == "" {
		return ErrNoRecipient
	}
	return s.send(ctx, to, name, emails.Verification(name, code))
}

func (s *SMTPService) send(ctx context.Context, to, name string, email emails.Message) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.from, s.fromName)
	msg.SetAddressHeader("To", to, name)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/plain", email.Text)
	if email.HTML != "" {
		msg.AddAlternative("text/html", email.HTML)
	}

	// gomail has no context support; the buffered channel lets the
	// goroutine finish even after the caller gave up.
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("sending %s email: %w", email.Category, err)
		}
		s.log.Debug("email sent", "category", email.Category, "to", to)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sending %s email: %w", email.Category, ctx.Err())
	}
}
