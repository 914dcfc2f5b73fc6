package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/betadeskhq/betadesk/internal/mail"
	"github.com/betadeskhq/betadesk/internal/oauth"
	"github.com/betadeskhq/betadesk/internal/services"
	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
)

// SenderFactory resolves the email channel a request asked for. SMTP and
// SendGrid are server-wide; Gmail is per user and requires a connected
// mail account.
type SenderFactory struct {
	smtp     mail.Sender
	sendgrid mail.Sender
	accounts *services.MailAccountService
	google   *oauth.GoogleFlow
}

// NewSenderFactory wires the available channels. Nil senders mean the channel
// is not configured; resolution fails with a client error rather than a panic.
func NewSenderFactory(smtp, sendgrid mail.Sender, accounts *services.MailAccountService, google *oauth.GoogleFlow) *SenderFactory {
	return &SenderFactory{smtp: smtp, sendgrid: sendgrid, accounts: accounts, google: google}
}

// Resolve returns the sender for a channel name. An empty channel falls back
// to the first configured server-wide channel.
func (f *SenderFactory) Resolve(ctx context.Context, channel, userID string) (mail.Sender, error) {
	switch channel {
	case "":
		if f.smtp != nil {
			return f.smtp, nil
		}
		if f.sendgrid != nil {
			return f.sendgrid, nil
		}
		return nil, apperrors.NewBadRequest("no email channel is configured")
	case "smtp":
		if f.smtp == nil {
			return nil, apperrors.NewBadRequest("smtp channel is not configured")
		}
		return f.smtp, nil
	case "sendgrid":
		if f.sendgrid == nil {
			return nil, apperrors.NewBadRequest("sendgrid channel is not configured")
		}
		return f.sendgrid, nil
	case "gmail":
		return f.gmailSender(ctx, userID)
	default:
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown email channel %q", channel))
	}
}

func (f *SenderFactory) gmailSender(ctx context.Context, userID string) (mail.Sender, error) {
	if f.google == nil || f.accounts == nil {
		return nil, apperrors.NewBadRequest("gmail channel is not configured")
	}

	token, account, err := f.accounts.Token(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrMailAccountNotFound) {
			return nil, apperrors.NewBadRequest("no gmail account is connected for this user")
		}
		return nil, err
	}

	return mail.NewGmailSender(f.google.TokenSource(ctx, token), account.Email)
}
