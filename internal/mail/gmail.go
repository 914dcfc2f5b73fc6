package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
)

// GmailSender delivers email through the Gmail API on behalf of a connected
// user account. The token source refreshes expired access tokens transparently.
type GmailSender struct {
	tokens oauth2.TokenSource
	from   string
}

// NewGmailSender constructs a Gmail-backed sender for the given account.
func NewGmailSender(tokens oauth2.TokenSource, from string) (*GmailSender, error) {
	if tokens == nil {
		return nil, errors.New("mail: gmail token source is required")
	}
	if from == "" {
		return nil, errors.New("mail: gmail from address is required")
	}
	return &GmailSender{tokens: tokens, from: from}, nil
}

func (s *GmailSender) Channel() string { return "gmail" }

func (s *GmailSender) Send(ctx context.Context, email OutboundEmail) error {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(s.tokens))
	if err != nil {
		return fmt.Errorf("mail: gmail service: %w", err)
	}

	raw := base64.URLEncoding.EncodeToString([]byte(formatRFC2822(s.from, email)))
	_, err = svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == 401 || gerr.Code == 403) {
			return apperrors.ErrMailAuthFailed.WithInternal(err)
		}
		return fmt.Errorf("mail: gmail send: %w", err)
	}
	return nil
}

func formatRFC2822(from string, email OutboundEmail) string {
	contentType := "text/plain; charset=UTF-8"
	body := email.TextBody
	if email.HTMLBody != "" {
		contentType = "text/html; charset=UTF-8"
		body = email.HTMLBody
	}

	to := email.To
	if email.ToName != "" {
		to = fmt.Sprintf("%s <%s>", email.ToName, email.To)
	}

	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", sanitizeHeader(email.Subject)),
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: %s", contentType),
		"",
	}

	return strings.Join(headers, "\r\n") + body
}

func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return value
}
