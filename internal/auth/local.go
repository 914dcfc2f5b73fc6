package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/betadeskhq/betadesk/internal/models"
	"github.com/betadeskhq/betadesk/pkg/crypto"
)

var (
	// ErrInvalidCredentials is returned when the supplied email/password pair is invalid.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountLocked signals that the user has exceeded the permitted failed attempts.
	ErrAccountLocked = errors.New("auth: account locked")
	// ErrAccountDisabled signals that the user has been deactivated.
	ErrAccountDisabled = errors.New("auth: account disabled")
)

// LocalConfig defines tunable behaviour for the password authenticator.
type LocalConfig struct {
	LockoutThreshold int
	LockoutDuration  time.Duration
	Clock            func() time.Time
}

// AuthenticateInput contains the credentials and client metadata for a login attempt.
type AuthenticateInput struct {
	Email     string
	Password  string
	IPAddress string
}

// RegisterInput captures the details required to register a new staff user.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LocalAuthenticator implements email/password authentication with account lockout controls.
type LocalAuthenticator struct {
	db        *gorm.DB
	clock     func() time.Time
	threshold int
	duration  time.Duration
}

// NewLocalAuthenticator builds an authenticator with sane defaults.
func NewLocalAuthenticator(db *gorm.DB, cfg LocalConfig) (*LocalAuthenticator, error) {
	if db == nil {
		return nil, errors.New("local auth: db is required")
	}

	threshold := cfg.LockoutThreshold
	if threshold <= 0 {
		threshold = 5
	}

	duration := cfg.LockoutDuration
	if duration <= 0 {
		duration = 15 * time.Minute
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &LocalAuthenticator{
		db:        db,
		clock:     clock,
		threshold: threshold,
		duration:  duration,
	}, nil
}

// Authenticate verifies the supplied credentials and returns the associated user when successful.
func (a *LocalAuthenticator) Authenticate(input AuthenticateInput) (*models.User, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := a.db.Where("LOWER(email) = LOWER(?)", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("local auth: query user: %w", err)
	}

	now := a.clock()

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, ErrAccountLocked
	}

	// Unlock the account if the lockout duration has elapsed.
	if user.LockedUntil != nil && !user.LockedUntil.After(now) {
		user.LockedUntil = nil
		user.FailedAttempts = 0
		if err := a.db.Model(&user).Updates(map[string]any{
			"locked_until":    nil,
			"failed_attempts": 0,
		}).Error; err != nil {
			return nil, fmt.Errorf("local auth: reset lock state: %w", err)
		}
	}

	if !crypto.VerifyPassword(user.Password, input.Password) {
		return nil, a.handleFailedAttempt(&user, now)
	}

	user.FailedAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	user.LastLoginIP = strings.TrimSpace(input.IPAddress)

	if err := a.db.Model(&user).Updates(map[string]any{
		"failed_attempts": 0,
		"locked_until":    nil,
		"last_login_at":   now,
		"last_login_ip":   user.LastLoginIP,
	}).Error; err != nil {
		return nil, fmt.Errorf("local auth: update user: %w", err)
	}

	return &user, nil
}

func (a *LocalAuthenticator) handleFailedAttempt(user *models.User, now time.Time) error {
	user.FailedAttempts++

	updates := map[string]any{
		"failed_attempts": user.FailedAttempts,
	}

	if user.FailedAttempts >= a.threshold {
		lockUntil := now.Add(a.duration)
		user.LockedUntil = &lockUntil
		updates["locked_until"] = lockUntil
	}

	if err := a.db.Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("local auth: update failed attempts: %w", err)
	}

	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return ErrAccountLocked
	}

	return ErrInvalidCredentials
}

// Register creates a new staff user with a hashed password.
func (a *LocalAuthenticator) Register(input RegisterInput) (*models.User, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, errors.New("local auth: email and password are required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("local auth: hash password: %w", err)
	}

	user := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Password:  hashed,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		IsActive:  true,
	}

	if err := a.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("local auth: create user: %w", err)
	}

	return user, nil
}

// BootstrapAdmin registers the initial staff user on an empty deployment.
// Once any user exists this is a no-op, so a restart never resets a password
// that was changed after first boot. The bool reports whether a user was
// created.
func (a *LocalAuthenticator) BootstrapAdmin(input RegisterInput) (*models.User, bool, error) {
	var count int64
	if err := a.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, false, fmt.Errorf("local auth: count users: %w", err)
	}
	if count > 0 {
		return nil, false, nil
	}

	user, err := a.Register(input)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
