package oauth

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
)

func stateFromURL(t *testing.T, rawURL string) string {
	t.Helper()
	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func newTestFlow(t *testing.T, opts ...Option) *GoogleFlow {
	t.Helper()
	flow, err := NewGoogleFlow(GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8000/api/oauth/google/callback",
	}, opts...)
	require.NoError(t, err)
	return flow
}

func TestNewGoogleFlowRequiresCredentials(t *testing.T) {
	_, err := NewGoogleFlow(GoogleConfig{RedirectURL: "http://localhost/cb"})
	require.Error(t, err)

	_, err = NewGoogleFlow(GoogleConfig{ClientID: "id", ClientSecret: "secret"})
	require.Error(t, err)
}

func TestAuthorizeURLEmbedsState(t *testing.T) {
	flow := newTestFlow(t)

	url, err := flow.AuthorizeURL("user-1")
	require.NoError(t, err)
	require.Contains(t, url, "client_id=client-id")
	require.Contains(t, url, "access_type=offline")
	require.Contains(t, url, "state=")

	_, err = flow.AuthorizeURL("  ")
	require.Error(t, err)
}

func TestConsumeStateIsSingleUse(t *testing.T) {
	flow := newTestFlow(t)

	url, err := flow.AuthorizeURL("user-1")
	require.NoError(t, err)
	state := stateFromURL(t, url)

	userID, err := flow.ConsumeState(state)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)

	_, err = flow.ConsumeState(state)
	require.ErrorIs(t, err, apperrors.ErrOAuthStateInvalid)

	_, err = flow.ConsumeState("")
	require.ErrorIs(t, err, apperrors.ErrOAuthStateInvalid)
}

func TestConsumeStateExpires(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	flow := newTestFlow(t,
		WithStateTTL(time.Minute),
		WithClock(func() time.Time { return now }),
	)

	url, err := flow.AuthorizeURL("user-1")
	require.NoError(t, err)
	state := stateFromURL(t, url)

	now = now.Add(2 * time.Minute)

	_, err = flow.ConsumeState(state)
	require.ErrorIs(t, err, apperrors.ErrOAuthStateInvalid)
}

func TestScopesIncludeGmailSend(t *testing.T) {
	flow := newTestFlow(t)

	scopes := flow.Scopes()
	require.Contains(t, scopes, "https://www.googleapis.com/auth/gmail.send")

	// Mutating the returned slice must not affect the flow.
	scopes[0] = "tampered"
	require.NotContains(t, flow.Scopes(), "tampered")
}
