package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/betadeskhq/betadesk/pkg/crypto"
	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
)

// DefaultStateTTL bounds how long an authorization round-trip may take.
const DefaultStateTTL = 10 * time.Minute

// GoogleConfig carries the OAuth client registration for the Gmail integration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type stateEntry struct {
	userID    string
	expiresAt time.Time
}

// GoogleFlow implements the server-side authorization code flow used to connect
// a staff account to Gmail. The client secret never leaves the server; browsers
// only ever see the authorization URL and the state nonce.
type GoogleFlow struct {
	cfg      *oauth2.Config
	stateTTL time.Duration
	now      func() time.Time

	mu     sync.Mutex
	states map[string]stateEntry
}

// Option customises the GoogleFlow.
type Option func(*GoogleFlow)

// WithClock overrides the clock, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(f *GoogleFlow) {
		if now != nil {
			f.now = now
		}
	}
}

// WithStateTTL overrides the state nonce lifetime.
func WithStateTTL(ttl time.Duration) Option {
	return func(f *GoogleFlow) {
		if ttl > 0 {
			f.stateTTL = ttl
		}
	}
}

// NewGoogleFlow constructs the Google authorization flow.
func NewGoogleFlow(cfg GoogleConfig, opts ...Option) (*GoogleFlow, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("oauth: google client id and secret are required")
	}
	if strings.TrimSpace(cfg.RedirectURL) == "" {
		return nil, errors.New("oauth: redirect url is required")
	}

	flow := &GoogleFlow{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				gmail.GmailSendScope,
				goauth2.UserinfoEmailScope,
			},
		},
		stateTTL: DefaultStateTTL,
		now:      time.Now,
		states:   make(map[string]stateEntry),
	}

	for _, opt := range opts {
		opt(flow)
	}

	return flow, nil
}

// AuthorizeURL issues a single-use state nonce bound to the user and returns
// the Google consent URL. Offline access is requested so a refresh token is
// granted on first consent.
func (f *GoogleFlow) AuthorizeURL(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("oauth: user id is required")
	}

	nonce, err := crypto.GenerateToken(24)
	if err != nil {
		return "", fmt.Errorf("oauth: generate state: %w", err)
	}

	now := f.now()

	f.mu.Lock()
	for key, entry := range f.states {
		if now.After(entry.expiresAt) {
			delete(f.states, key)
		}
	}
	f.states[nonce] = stateEntry{userID: userID, expiresAt: now.Add(f.stateTTL)}
	f.mu.Unlock()

	url := f.cfg.AuthCodeURL(nonce,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return url, nil
}

// ConsumeState validates a returned state nonce and yields the user it was
// issued for. Each nonce is valid exactly once.
func (f *GoogleFlow) ConsumeState(state string) (string, error) {
	state = strings.TrimSpace(state)
	if state == "" {
		return "", apperrors.ErrOAuthStateInvalid
	}

	f.mu.Lock()
	entry, ok := f.states[state]
	if ok {
		delete(f.states, state)
	}
	f.mu.Unlock()

	if !ok || f.now().After(entry.expiresAt) {
		return "", apperrors.ErrOAuthStateInvalid
	}
	return entry.userID, nil
}

// Exchange swaps an authorization code for tokens and resolves the Gmail
// address of the consenting account.
func (f *GoogleFlow) Exchange(ctx context.Context, code string) (*oauth2.Token, string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, "", errors.New("oauth: authorization code is required")
	}

	token, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("oauth: exchange code: %w", err)
	}

	svc, err := goauth2.NewService(ctx, option.WithTokenSource(f.cfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, "", fmt.Errorf("oauth: userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("oauth: fetch userinfo: %w", err)
	}

	return token, info.Email, nil
}

// TokenSource wraps stored tokens in a refreshing source for the Gmail sender.
func (f *GoogleFlow) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return f.cfg.TokenSource(ctx, token)
}

// Scopes exposes the scopes requested during authorization.
func (f *GoogleFlow) Scopes() []string {
	return append([]string(nil), f.cfg.Scopes...)
}
