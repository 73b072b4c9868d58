// Package mailtrap provides email sending functionality via Mailtrap API.
package mailtrap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/nourabuild/account-service/internal/sdk/config"
	"github.com/nourabuild/account-service/internal/services/emails"
)

var ErrMissingAPIKey = errors.New("mailtrap: api key is required")

type MailtrapService struct {
	apiKey string
	url    string
	from   EmailRecipient
	client *http.Client
	log    *slog.Logger
}

func NewMailtrapService(cfg config.Mailtrap, mail config.Mail, log *slog.Logger) (*MailtrapService, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if log == nil {
		log = slog.Default()
	}
	return &MailtrapService{
		apiKey: cfg.APIKey,
		url:    cfg.URL,
		from:   EmailRecipient{Email: mail.From, Name: mail.FromName},
		client: &http.Client{Timeout: mail.Timeout},
		log:    log,
	}, nil
}

// EmailRecipient represents an email recipient
type EmailRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// EmailRequest represents the request payload for sending an email
type EmailRequest struct {
	From     EmailRecipient   `json:"from"`
	To       []EmailRecipient `json:"to"`
	Subject  string           `json:"subject"`
	HTML     string           `json:"html,omitempty"`
	Text     string           `json:"text,omitempty"`
	Category string           `json:"category,omitempty"`
}

// SendVerificationCode sends the account verification code
func (m *MailtrapService) SendVerificationCode(ctx context.Context, toEmail, toName, code string) error {
	msg := emails.Verification(toName, code)

	return m.sendEmail(ctx, EmailRequest{
		From:     m.from,
		To:       []EmailRecipient{{Email: toEmail, Name: toName}},
		Subject:  msg.Subject,
		HTML:     msg.HTML,
		Text:     msg.Text,
		Category: msg.Category,
	})
}

// sendEmail sends an email via the Mailtrap API
func (m *MailtrapService) sendEmail(ctx context.Context, emailReq EmailRequest) error {
	payload, err := json.Marshal(emailReq)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mailtrap API returned status: %d", resp.StatusCode)
	}

	m.log.Debug("email sent", "category", emailReq.Category, "provider", "mailtrap")
	return nil
}
