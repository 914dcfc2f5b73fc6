package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/betadeskhq/betadesk/internal/mail"
	"github.com/betadeskhq/betadesk/internal/models"
	"github.com/betadeskhq/betadesk/pkg/crypto"
	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
)

var (
	// ErrInvitationNotFound indicates the requested invitation does not exist.
	ErrInvitationNotFound = errors.New("invitation service: invitation not found")
)

// DefaultInvitationExpiryDays is applied when no explicit expiry is chosen.
const DefaultInvitationExpiryDays = 14

// SendBatchInput describes one invitation batch.
type SendBatchInput struct {
	ProgramID   string
	CustomerIDs []string
	Subject     string
	Content     string
	ExpiryDays  int
	Sender      mail.Sender
}

// RecipientResult reports the outcome for one recipient in a batch.
type RecipientResult struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchResult aggregates a batch send.
type BatchResult struct {
	Results []RecipientResult `json:"results"`
	Sent    int               `json:"sent"`
	Failed  int               `json:"failed"`
}

// InvitationService creates, sends, and tracks beta invitations.
type InvitationService struct {
	db           *gorm.DB
	emailLogs    *EmailLogService
	auditService *AuditService
	now          func() time.Time
}

// NewInvitationService constructs an InvitationService instance.
func NewInvitationService(db *gorm.DB, emailLogs *EmailLogService, auditService *AuditService) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}
	if emailLogs == nil {
		return nil, errors.New("invitation service: email log service is required")
	}
	return &InvitationService{
		db:           db,
		emailLogs:    emailLogs,
		auditService: auditService,
		now:          time.Now,
	}, nil
}

// WithClock overrides the clock, primarily for tests.
func (s *InvitationService) WithClock(now func() time.Time) *InvitationService {
	if now != nil {
		s.now = now
	}
	return s
}

// SendBatch renders and sends one invitation per recipient. Recipients are
// isolated: one failed delivery does not stop the rest. A channel
// authentication failure is the exception, it aborts the remaining batch
// because every further attempt would fail identically. Every attempt is
// recorded in the email log; successes create sent invitation rows with
// booking tokens, failures create draft rows that can be resent.
func (s *InvitationService) SendBatch(ctx context.Context, input SendBatchInput) (*BatchResult, error) {
	ctx = ensureContext(ctx)

	if input.Sender == nil {
		return nil, errors.New("invitation service: sender is required")
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewBadRequest("invitation subject is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.NewBadRequest("invitation content is required")
	}

	customerIDs := normaliseIDs(input.CustomerIDs)
	if len(customerIDs) == 0 {
		return nil, apperrors.NewBadRequest("at least one recipient is required")
	}

	var program models.BetaProgram
	err := s.db.WithContext(ctx).First(&program, "id = ?", input.ProgramID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invitation service: load program: %w", err)
	}

	var customers []models.Customer
	if err := s.db.WithContext(ctx).Where("id IN ?", customerIDs).Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("invitation service: load customers: %w", err)
	}
	if len(customers) == 0 {
		return nil, apperrors.NewBadRequest("no matching recipients found")
	}

	expiryDays := input.ExpiryDays
	if expiryDays <= 0 {
		expiryDays = DefaultInvitationExpiryDays
	}

	result := &BatchResult{}
	var authFailure error

	for _, customer := range customers {
		if authFailure != nil {
			break
		}

		vars := map[string]string{
			"first_name":   customer.FirstName,
			"last_name":    customer.LastName,
			"email":        customer.Email,
			"program_name": program.Name,
		}
		renderedSubject := mail.Render(subject, vars)
		renderedContent := mail.Render(input.Content, vars)

		sendErr := input.Sender.Send(ctx, mail.OutboundEmail{
			To:       customer.Email,
			ToName:   customer.FullName(),
			Subject:  renderedSubject,
			HTMLBody: renderedContent,
		})

		_ = s.emailLogs.Record(ctx, RecordEmailInput{
			Channel:       input.Sender.Channel(),
			TemplateType:  models.TemplateInvitation,
			Recipient:     customer.Email,
			Subject:       renderedSubject,
			Success:       sendErr == nil,
			Error:         errorMessage(sendErr),
			BetaProgramID: program.ID,
			CustomerID:    customer.ID,
		})

		if sendErr != nil {
			result.Failed++
			result.Results = append(result.Results, RecipientResult{
				Email:   customer.Email,
				Success: false,
				Error:   errorMessage(sendErr),
			})

			if _, err := s.createInvitation(ctx, program.ID, customer.ID, renderedSubject, renderedContent, models.InvitationDraft, 0); err != nil {
				return result, err
			}

			if errors.Is(sendErr, apperrors.ErrMailAuthFailed) {
				authFailure = sendErr
			}
			continue
		}

		result.Sent++
		result.Results = append(result.Results, RecipientResult{Email: customer.Email, Success: true})

		if _, err := s.createInvitation(ctx, program.ID, customer.ID, renderedSubject, renderedContent, models.InvitationSent, expiryDays); err != nil {
			return result, err
		}
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "invitation.send_batch",
		Resource: program.ID,
		Result:   "success",
		Metadata: map[string]any{"sent": result.Sent, "failed": result.Failed},
	})

	if authFailure != nil {
		return result, authFailure
	}
	return result, nil
}

func (s *InvitationService) createInvitation(ctx context.Context, programID, customerID, subject, content, status string, expiryDays int) (*models.BetaInvitation, error) {
	token, err := crypto.GenerateToken(24)
	if err != nil {
		return nil, fmt.Errorf("invitation service: generate token: %w", err)
	}

	invitation := &models.BetaInvitation{
		CustomerID:    customerID,
		BetaProgramID: programID,
		Token:         token,
		Status:        status,
		Subject:       subject,
		Content:       content,
	}

	if status == models.InvitationSent {
		now := s.now()
		invitation.SentAt = &now
		if expiryDays > 0 {
			expires := now.AddDate(0, 0, expiryDays)
			invitation.ExpiresAt = &expires
		}
	}

	if err := s.db.WithContext(ctx).Create(invitation).Error; err != nil {
		return nil, fmt.Errorf("invitation service: create invitation: %w", err)
	}
	return invitation, nil
}

// Resend delivers an existing invitation again and promotes drafts to sent.
func (s *InvitationService) Resend(ctx context.Context, id string, sender mail.Sender) (*models.BetaInvitation, error) {
	ctx = ensureContext(ctx)

	if sender == nil {
		return nil, errors.New("invitation service: sender is required")
	}

	invitation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invitation.Customer == nil {
		return nil, fmt.Errorf("invitation service: invitation %s has no customer", id)
	}

	sendErr := sender.Send(ctx, mail.OutboundEmail{
		To:       invitation.Customer.Email,
		ToName:   invitation.Customer.FullName(),
		Subject:  invitation.Subject,
		HTMLBody: invitation.Content,
	})

	_ = s.emailLogs.Record(ctx, RecordEmailInput{
		Channel:       sender.Channel(),
		TemplateType:  models.TemplateInvitation,
		Recipient:     invitation.Customer.Email,
		Subject:       invitation.Subject,
		Success:       sendErr == nil,
		Error:         errorMessage(sendErr),
		BetaProgramID: invitation.BetaProgramID,
		CustomerID:    invitation.CustomerID,
	})

	if sendErr != nil {
		return nil, sendErr
	}

	now := s.now()
	updates := map[string]any{"sent_at": now}
	if invitation.Status == models.InvitationDraft || invitation.Status == models.InvitationExpired {
		updates["status"] = models.InvitationSent
		expires := now.AddDate(0, 0, DefaultInvitationExpiryDays)
		updates["expires_at"] = expires
	}
	if err := s.db.WithContext(ctx).Model(invitation).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("invitation service: mark resent: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID loads an invitation with its customer and program.
func (s *InvitationService) GetByID(ctx context.Context, id string) (*models.BetaInvitation, error) {
	ctx = ensureContext(ctx)

	var invitation models.BetaInvitation
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("BetaProgram").
		First(&invitation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invitation service: get invitation: %w", err)
	}
	return &invitation, nil
}

// GetByToken resolves the booking-link token embedded in invitation emails.
func (s *InvitationService) GetByToken(ctx context.Context, token string) (*models.BetaInvitation, error) {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvitationNotFound
	}

	var invitation models.BetaInvitation
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("BetaProgram").
		First(&invitation, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invitation service: get invitation by token: %w", err)
	}
	return &invitation, nil
}

// ListForProgram returns all invitations for a program, newest first.
func (s *InvitationService) ListForProgram(ctx context.Context, programID string) ([]models.BetaInvitation, error) {
	ctx = ensureContext(ctx)

	var invitations []models.BetaInvitation
	if err := s.db.WithContext(ctx).
		Preload("Customer").
		Where("beta_program_id = ?", programID).
		Order("created_at DESC").
		Find(&invitations).Error; err != nil {
		return nil, fmt.Errorf("invitation service: list invitations: %w", err)
	}
	return invitations, nil
}

// MarkResponded records that the tester followed their invitation link.
// Already-responded invitations are left untouched so the first response wins.
func (s *InvitationService) MarkResponded(ctx context.Context, token string) (*models.BetaInvitation, error) {
	ctx = ensureContext(ctx)

	invitation, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if invitation.Status == models.InvitationResponded {
		return invitation, nil
	}

	now := s.now()
	updates := map[string]any{
		"status":       models.InvitationResponded,
		"responded_at": now,
	}
	if err := s.db.WithContext(ctx).Model(invitation).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("invitation service: mark responded: %w", err)
	}

	return s.GetByToken(ctx, token)
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
