package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
)

// SendGridSender delivers email through the SendGrid v3 API.
type SendGridSender struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
}

// NewSendGridSender constructs a SendGrid-backed sender.
func NewSendGridSender(apiKey, fromName, fromAddr string) (*SendGridSender, error) {
	if apiKey == "" {
		return nil, errors.New("mail: sendgrid api key is required")
	}
	if fromAddr == "" {
		return nil, errors.New("mail: sendgrid from address is required")
	}
	return &SendGridSender{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
	}, nil
}

func (s *SendGridSender) Channel() string { return "sendgrid" }

func (s *SendGridSender) Send(ctx context.Context, email OutboundEmail) error {
	from := sgmail.NewEmail(s.fromName, s.fromAddr)
	to := sgmail.NewEmail(email.ToName, email.To)

	text := email.TextBody
	if text == "" {
		text = email.HTMLBody
	}
	message := sgmail.NewSingleEmail(from, email.Subject, to, text, email.HTMLBody)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("mail: sendgrid send: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// A bad API key fails every recipient identically; surface it as an
		// auth failure so batch senders stop instead of retrying per recipient.
		return apperrors.ErrMailAuthFailed.WithInternal(
			fmt.Errorf("mail: sendgrid send: status %d: %s", resp.StatusCode, resp.Body))
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("mail: sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
