package mail

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
	pkgmail "github.com/betadeskhq/betadesk/pkg/mail"
)

func newSendGridTestSender(t *testing.T, status int, body string) (*SendGridSender, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)

	sender, err := NewSendGridSender("sg-key", "BetaDesk", "beta@example.com")
	require.NoError(t, err)
	sender.client.BaseURL = server.URL
	return sender, server
}

func TestSendGridSenderDelivers(t *testing.T) {
	sender, _ := newSendGridTestSender(t, http.StatusAccepted, "")

	err := sender.Send(context.Background(), OutboundEmail{
		To:       "ada@example.com",
		Subject:  "Join Orion Beta",
		HTMLBody: "<p>Hi Ada</p>",
	})
	require.NoError(t, err)
}

func TestSendGridSenderMapsAuthFailure(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		sender, _ := newSendGridTestSender(t, status, `{"errors":[{"message":"authorization required"}]}`)

		err := sender.Send(context.Background(), OutboundEmail{To: "ada@example.com", Subject: "s", TextBody: "b"})
		require.ErrorIs(t, err, apperrors.ErrMailAuthFailed, "status %d", status)
	}
}

func TestSendGridSenderOtherFailuresAreNotAuth(t *testing.T) {
	sender, _ := newSendGridTestSender(t, http.StatusBadRequest, `{"errors":[{"message":"bad payload"}]}`)

	err := sender.Send(context.Background(), OutboundEmail{To: "ada@example.com", Subject: "s", TextBody: "b"})
	require.Error(t, err)
	require.NotErrorIs(t, err, apperrors.ErrMailAuthFailed)
}

// stubMailer fails every send with a fixed error.
type stubMailer struct {
	err error
}

func (m *stubMailer) Send(context.Context, pkgmail.Message) error { return m.err }

func TestSMTPSenderMapsAuthFailure(t *testing.T) {
	relayReject := fmt.Errorf("smtp: auth: %w", &textproto.Error{Code: 535, Msg: "authentication credentials invalid"})
	sender, err := NewSMTPSender(&stubMailer{err: relayReject}, "beta@example.com")
	require.NoError(t, err)

	sendErr := sender.Send(context.Background(), OutboundEmail{To: "ada@example.com", Subject: "s", TextBody: "b"})
	require.ErrorIs(t, sendErr, apperrors.ErrMailAuthFailed)
}

func TestSMTPSenderPassesThroughDeliveryErrors(t *testing.T) {
	bounce := fmt.Errorf("smtp: rcpt to ada@example.com: %w", &textproto.Error{Code: 550, Msg: "mailbox unavailable"})
	sender, err := NewSMTPSender(&stubMailer{err: bounce}, "beta@example.com")
	require.NoError(t, err)

	sendErr := sender.Send(context.Background(), OutboundEmail{To: "ada@example.com", Subject: "s", TextBody: "b"})
	require.Error(t, sendErr)
	require.NotErrorIs(t, sendErr, apperrors.ErrMailAuthFailed)
}
