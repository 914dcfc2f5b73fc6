package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/betadeskhq/betadesk/internal/models"
	"github.com/betadeskhq/betadesk/pkg/crypto"
)

var (
	// ErrMailAccountNotFound indicates no mail account is connected for the user.
	ErrMailAccountNotFound = errors.New("mail account service: mail account not found")
)

// UpsertMailAccountInput stores OAuth credentials for a user's sending account.
type UpsertMailAccountInput struct {
	UserID   string
	Provider string
	Email    string
	Token    *oauth2.Token
	Scope    string
}

// MailAccountService persists per-user OAuth mail credentials, encrypted at rest.
type MailAccountService struct {
	db            *gorm.DB
	encryptionKey []byte
	auditService  *AuditService
}

// NewMailAccountService constructs a MailAccountService instance.
func NewMailAccountService(db *gorm.DB, encryptionKey []byte, auditService *AuditService) (*MailAccountService, error) {
	if db == nil {
		return nil, errors.New("mail account service: db is required")
	}
	if len(encryptionKey) == 0 {
		return nil, errors.New("mail account service: encryption key is required")
	}
	return &MailAccountService{
		db:            db,
		encryptionKey: encryptionKey,
		auditService:  auditService,
	}, nil
}

// Upsert stores or replaces the OAuth credentials for a user. A missing
// refresh token on re-consent keeps the previously stored one.
func (s *MailAccountService) Upsert(ctx context.Context, input UpsertMailAccountInput) (*models.MailAccount, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("mail account service: user id is required")
	}
	if input.Token == nil || input.Token.AccessToken == "" {
		return nil, errors.New("mail account service: access token is required")
	}
	email := normaliseEmail(input.Email)
	if email == "" {
		return nil, errors.New("mail account service: email is required")
	}

	provider := strings.TrimSpace(input.Provider)
	if provider == "" {
		provider = "google"
	}

	encryptedAccess, err := crypto.Encrypt([]byte(input.Token.AccessToken), s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("mail account service: encrypt access token: %w", err)
	}

	var account models.MailAccount
	err = s.db.WithContext(ctx).First(&account, "user_id = ?", userID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		account = models.MailAccount{
			UserID:      userID,
			Provider:    provider,
			Email:       email,
			AccessToken: encryptedAccess,
			Scope:       strings.TrimSpace(input.Scope),
		}
	case err != nil:
		return nil, fmt.Errorf("mail account service: load account: %w", err)
	default:
		account.Provider = provider
		account.Email = email
		account.AccessToken = encryptedAccess
		if input.Scope != "" {
			account.Scope = strings.TrimSpace(input.Scope)
		}
	}

	if input.Token.RefreshToken != "" {
		encryptedRefresh, err := crypto.Encrypt([]byte(input.Token.RefreshToken), s.encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("mail account service: encrypt refresh token: %w", err)
		}
		account.RefreshToken = encryptedRefresh
	}

	if !input.Token.Expiry.IsZero() {
		expiry := input.Token.Expiry
		account.TokenExpiry = &expiry
	} else {
		account.TokenExpiry = nil
	}

	if err := s.db.WithContext(ctx).Save(&account).Error; err != nil {
		return nil, fmt.Errorf("mail account service: save account: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "mail_account.connect",
		Resource: account.ID,
		Result:   "success",
		Metadata: map[string]any{"provider": provider, "email": email},
	})

	return &account, nil
}

// Get loads the stored account for a user without decrypting tokens.
func (s *MailAccountService) Get(ctx context.Context, userID string) (*models.MailAccount, error) {
	ctx = ensureContext(ctx)

	var account models.MailAccount
	err := s.db.WithContext(ctx).First(&account, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMailAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mail account service: get account: %w", err)
	}
	return &account, nil
}

// Token decrypts and reconstructs the stored OAuth token for sending.
func (s *MailAccountService) Token(ctx context.Context, userID string) (*oauth2.Token, *models.MailAccount, error) {
	account, err := s.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	access, err := crypto.Decrypt(account.AccessToken, s.encryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("mail account service: decrypt access token: %w", err)
	}

	token := &oauth2.Token{AccessToken: string(access)}
	if account.RefreshToken != "" {
		refresh, err := crypto.Decrypt(account.RefreshToken, s.encryptionKey)
		if err != nil {
			return nil, nil, fmt.Errorf("mail account service: decrypt refresh token: %w", err)
		}
		token.RefreshToken = string(refresh)
	}
	if account.TokenExpiry != nil {
		token.Expiry = *account.TokenExpiry
	} else {
		// Force a refresh on first use when expiry is unknown.
		token.Expiry = time.Now().Add(-time.Minute)
	}

	return token, account, nil
}

// Delete disconnects the user's sending account.
func (s *MailAccountService) Delete(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	account, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(account).Error; err != nil {
		return fmt.Errorf("mail account service: delete account: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &account.UserID,
		Action:   "mail_account.disconnect",
		Resource: account.ID,
		Result:   "success",
	})

	return nil
}
