package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
	"github.com/betadeskhq/betadesk/internal/models"
)

var (
	// ErrNDANotFound indicates the requested NDA document does not exist.
	ErrNDANotFound = errors.New("nda service: nda document not found")
)

// DefaultNDAExpiryDays is applied when no explicit expiry is chosen.
const DefaultNDAExpiryDays = 30

// CreateNDAInput describes the NDA documents to create for a program cohort.
type CreateNDAInput struct {
	ProgramID    string
	CustomerIDs  []string
	Handling     string
	Title        string
	Content      string
	Instructions string
	ExpiryDays   int
}

// NDAService tracks non-disclosure agreements through their signature lifecycle.
type NDAService struct {
	db           *gorm.DB
	auditService *AuditService
	now          func() time.Time
}

// NewNDAService constructs an NDAService instance.
func NewNDAService(db *gorm.DB, auditService *AuditService) (*NDAService, error) {
	if db == nil {
		return nil, errors.New("nda service: db is required")
	}
	return &NDAService{db: db, auditService: auditService, now: time.Now}, nil
}

// WithClock overrides the clock, primarily for tests.
func (s *NDAService) WithClock(now func() time.Time) *NDAService {
	if now != nil {
		s.now = now
	}
	return s
}

// CreateForProgram creates one pending NDA document per selected customer.
// External handling delegates the signature ceremony to another system, so it
// is rejected unless instructions for the tester are provided.
func (s *NDAService) CreateForProgram(ctx context.Context, input CreateNDAInput) ([]models.NDADocument, error) {
	ctx = ensureContext(ctx)

	handling := strings.TrimSpace(input.Handling)
	if handling == "" {
		handling = NDAHandlingInternal
	}
	if handling != NDAHandlingInternal && handling != NDAHandlingExternal {
		return nil, apperrors.NewBadRequest("invalid nda handling type")
	}
	if handling == NDAHandlingExternal && strings.TrimSpace(input.Instructions) == "" {
		return nil, apperrors.NewBadRequest("external nda handling requires instructions for testers")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("nda title is required")
	}

	customerIDs := normaliseIDs(input.CustomerIDs)
	if len(customerIDs) == 0 {
		return nil, apperrors.NewBadRequest("at least one customer is required")
	}

	var program models.BetaProgram
	err := s.db.WithContext(ctx).First(&program, "id = ?", input.ProgramID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("nda service: load program: %w", err)
	}

	content := input.Content
	if handling == NDAHandlingExternal {
		content = strings.TrimSpace(input.Instructions)
	}

	expiryDays := input.ExpiryDays
	if expiryDays <= 0 {
		expiryDays = DefaultNDAExpiryDays
	}
	expires := s.now().AddDate(0, 0, expiryDays)

	documents := make([]models.NDADocument, 0, len(customerIDs))
	for _, customerID := range customerIDs {
		documents = append(documents, models.NDADocument{
			CustomerID:    customerID,
			BetaProgramID: program.ID,
			Title:         title,
			Content:       content,
			Status:        models.NDAPending,
			ExpiresAt:     &expires,
		})
	}

	if err := s.db.WithContext(ctx).Create(&documents).Error; err != nil {
		return nil, fmt.Errorf("nda service: create documents: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "nda.create_batch",
		Resource: program.ID,
		Result:   "success",
		Metadata: map[string]any{"count": len(documents), "handling": handling},
	})

	return documents, nil
}

// GetByID loads an NDA document with its customer and program.
func (s *NDAService) GetByID(ctx context.Context, id string) (*models.NDADocument, error) {
	ctx = ensureContext(ctx)

	var document models.NDADocument
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("BetaProgram").
		First(&document, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNDANotFound
	}
	if err != nil {
		return nil, fmt.Errorf("nda service: get document: %w", err)
	}
	return &document, nil
}

// ListForProgram returns all NDA documents for a program, newest first.
func (s *NDAService) ListForProgram(ctx context.Context, programID string) ([]models.NDADocument, error) {
	ctx = ensureContext(ctx)

	var documents []models.NDADocument
	if err := s.db.WithContext(ctx).
		Preload("Customer").
		Where("beta_program_id = ?", programID).
		Order("created_at DESC").
		Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("nda service: list documents: %w", err)
	}
	return documents, nil
}

// Sign marks a pending NDA as signed. The signature ceremony itself happens in
// an external flow; this records its outcome.
func (s *NDAService) Sign(ctx context.Context, id string) (*models.NDADocument, error) {
	return s.transition(ctx, id, models.NDASigned)
}

// Decline marks a pending NDA as declined.
func (s *NDAService) Decline(ctx context.Context, id string) (*models.NDADocument, error) {
	return s.transition(ctx, id, models.NDADeclined)
}

func (s *NDAService) transition(ctx context.Context, id, status string) (*models.NDADocument, error) {
	ctx = ensureContext(ctx)

	document, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if document.Status != models.NDAPending {
		return nil, apperrors.NewConflict("nda document is no longer pending")
	}

	updates := map[string]any{"status": status}
	if status == models.NDASigned {
		now := s.now()
		updates["signed_at"] = now
	}

	if err := s.db.WithContext(ctx).Model(document).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("nda service: update document: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "nda." + status,
		Resource: document.ID,
		Result:   "success",
	})

	return s.GetByID(ctx, id)
}
