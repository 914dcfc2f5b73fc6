package mail

import (
	"context"
	"errors"
	"net/textproto"

	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
	pkgmail "github.com/betadeskhq/betadesk/pkg/mail"
)

// SMTPSender delivers email through the configured SMTP relay.
type SMTPSender struct {
	mailer pkgmail.Mailer
	from   string
}

// NewSMTPSender wraps an SMTP mailer in the Sender interface.
func NewSMTPSender(mailer pkgmail.Mailer, from string) (*SMTPSender, error) {
	if mailer == nil {
		return nil, errors.New("mail: smtp mailer is required")
	}
	return &SMTPSender{mailer: mailer, from: from}, nil
}

func (s *SMTPSender) Channel() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, email OutboundEmail) error {
	msg := pkgmail.Message{
		From:    s.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Body:    email.HTMLBody,
		HTML:    true,
	}
	if email.HTMLBody == "" {
		msg.Body = email.TextBody
		msg.HTML = false
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		// 530/534/535 are the relay's credential rejections; every further
		// attempt through this relay would fail the same way.
		var protoErr *textproto.Error
		if errors.As(err, &protoErr) {
			switch protoErr.Code {
			case 530, 534, 535:
				return apperrors.ErrMailAuthFailed.WithInternal(err)
			}
		}
		return err
	}
	return nil
}
