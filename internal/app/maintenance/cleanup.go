package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	iauth "github.com/betadeskhq/betadesk/internal/auth"
	"github.com/betadeskhq/betadesk/internal/models"
	"github.com/betadeskhq/betadesk/internal/services"
	"github.com/betadeskhq/betadesk/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultSessionSpec        = "@hourly"
	defaultAuditSpec          = "@daily"
	defaultExpirySpec         = "@hourly"
)

// Cleaner coordinates background maintenance tasks such as purging expired sessions,
// pruning stale audit logs, and expiring overdue invitations and NDA requests.
type Cleaner struct {
	db        *gorm.DB
	sessions  *iauth.SessionService
	audit     *services.AuditService
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	enabled   bool
	retention int

	sessionSchedule string
	auditSchedule   string
	expirySchedule  string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for scheduling and cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithSessionSchedule overrides the cron specification for session cleanup.
func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// WithExpirySchedule overrides the cron specification for invitation and NDA expiry.
func WithExpirySchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.expirySchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency results in
// the corresponding cleanup job being skipped.
func NewCleaner(db *gorm.DB, sessions *iauth.SessionService, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:              db,
		sessions:        sessions,
		audit:           audit,
		now:             time.Now,
		retention:       defaultAuditRetentionDays,
		sessionSchedule: defaultSessionSpec,
		auditSchedule:   defaultAuditSpec,
		expirySchedule:  defaultExpirySpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	// Determine whether any job is enabled.
	cleaner.enabled = cleaner.sessions != nil || cleaner.audit != nil || cleaner.db != nil

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.sessions != nil {
		if _, err := c.cron.AddFunc(c.sessionSchedule, func() {
			ctx := context.Background()
			if _, err := c.sessions.CleanupExpired(ctx); err != nil {
				c.log.Warn("session cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			ctx := context.Background()
			if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.db != nil {
		if _, err := c.cron.AddFunc(c.expirySchedule, func() {
			ctx := context.Background()
			if _, err := ExpireOverdue(ctx, c.db, c.now()); err != nil {
				c.log.Warn("expiry sweep failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.sessions != nil {
		if _, err := c.sessions.CleanupExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.db != nil {
		if _, err := ExpireOverdue(ctx, c.db, c.now()); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// ExpiryStats captures the number of records transitioned by an expiry sweep.
type ExpiryStats struct {
	Invitations int64
	NDARequests int64
}

// ExpireOverdue marks sent invitations and pending NDA requests whose deadlines have
// passed as expired. Responded and signed records are never touched.
func ExpireOverdue(ctx context.Context, db *gorm.DB, now time.Time) (ExpiryStats, error) {
	if db == nil {
		return ExpiryStats{}, errors.New("expire overdue: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := ExpiryStats{}

	if result := db.WithContext(ctx).
		Model(&models.BetaInvitation{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.InvitationSent, now).
		Update("status", models.InvitationExpired); result.Error != nil {
		return stats, fmt.Errorf("expire overdue: invitations: %w", result.Error)
	} else {
		stats.Invitations = result.RowsAffected
	}

	if result := db.WithContext(ctx).
		Model(&models.NDADocument{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.NDAPending, now).
		Update("status", models.NDAExpired); result.Error != nil {
		return stats, fmt.Errorf("expire overdue: nda requests: %w", result.Error)
	} else {
		stats.NDARequests = result.RowsAffected
	}

	return stats, nil
}
