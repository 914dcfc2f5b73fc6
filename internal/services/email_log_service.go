package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/betadeskhq/betadesk/internal/models"
	"github.com/betadeskhq/betadesk/pkg/metrics"
)

// RecordEmailInput captures one outbound send attempt.
type RecordEmailInput struct {
	Channel       string
	TemplateType  string
	Recipient     string
	Subject       string
	Success       bool
	Error         string
	BetaProgramID string
	CustomerID    string
}

// EmailLogFilters narrows email log listings.
type EmailLogFilters struct {
	BetaProgramID string
	Recipient     string
	Channel       string
	Status        string
}

// EmailLogListOptions controls pagination and filtering for email log queries.
type EmailLogListOptions struct {
	Page     int
	PageSize int
	Filters  EmailLogFilters
}

// EmailLogService records and queries the outbound email history.
type EmailLogService struct {
	db *gorm.DB
}

// NewEmailLogService constructs an EmailLogService instance.
func NewEmailLogService(db *gorm.DB) (*EmailLogService, error) {
	if db == nil {
		return nil, errors.New("email log service: db is required")
	}
	return &EmailLogService{db: db}, nil
}

// Record appends a send attempt to the log and updates send metrics.
func (s *EmailLogService) Record(ctx context.Context, input RecordEmailInput) error {
	ctx = ensureContext(ctx)

	recipient := normaliseEmail(input.Recipient)
	if recipient == "" {
		return errors.New("email log service: recipient is required")
	}
	channel := strings.TrimSpace(input.Channel)
	if channel == "" {
		return errors.New("email log service: channel is required")
	}

	status := models.EmailSent
	result := "sent"
	if !input.Success {
		status = models.EmailFailed
		result = "failed"
	}

	log := models.EmailLog{
		Channel:      channel,
		TemplateType: strings.TrimSpace(input.TemplateType),
		Recipient:    recipient,
		Subject:      input.Subject,
		Status:       status,
		Error:        input.Error,
	}
	if id := strings.TrimSpace(input.BetaProgramID); id != "" {
		log.BetaProgramID = &id
	}
	if id := strings.TrimSpace(input.CustomerID); id != "" {
		log.CustomerID = &id
	}

	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		return fmt.Errorf("email log service: record send: %w", err)
	}

	metrics.EmailSends.WithLabelValues(channel, result).Inc()
	return nil
}

// List returns paginated email logs ordered newest first.
func (s *EmailLogService) List(ctx context.Context, opts EmailLogListOptions) ([]models.EmailLog, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	query := s.db.WithContext(ctx).Model(&models.EmailLog{})
	if opts.Filters.BetaProgramID != "" {
		query = query.Where("beta_program_id = ?", opts.Filters.BetaProgramID)
	}
	if opts.Filters.Recipient != "" {
		query = query.Where("recipient = ?", normaliseEmail(opts.Filters.Recipient))
	}
	if opts.Filters.Channel != "" {
		query = query.Where("channel = ?", opts.Filters.Channel)
	}
	if opts.Filters.Status != "" {
		query = query.Where("status = ?", opts.Filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("email log service: count logs: %w", err)
	}

	var logs []models.EmailLog
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("email log service: list logs: %w", err)
	}

	return logs, total, nil
}
