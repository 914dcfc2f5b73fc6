package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
	"github.com/betadeskhq/betadesk/internal/models"
)

var (
	// ErrProgramNotFound indicates the requested beta program does not exist.
	ErrProgramNotFound = errors.New("program service: program not found")
)

// draftDateLayout is the wire format for wizard dates.
const draftDateLayout = "2006-01-02"

// UpdateProgramInput represents mutable program fields.
type UpdateProgramInput struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// ProgramService manages beta program records and their serialized drafts.
type ProgramService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewProgramService constructs a ProgramService instance.
func NewProgramService(db *gorm.DB, auditService *AuditService) (*ProgramService, error) {
	if db == nil {
		return nil, errors.New("program service: db is required")
	}
	return &ProgramService{db: db, auditService: auditService}, nil
}

// SaveDraft persists wizard state. With an empty id a new unlaunched program
// is created; otherwise the existing draft is replaced. The program's name and
// description columns track the draft so listings stay meaningful.
func (s *ProgramService) SaveDraft(ctx context.Context, id string, draft ProgramDraft, createdByID string) (*models.BetaProgram, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("program name is required")
	}

	data, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("program service: marshal draft: %w", err)
	}

	startDate, err := parseDraftDate(draft.StartDate)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid start date")
	}
	endDate, err := parseDraftDate(draft.EndDate)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid end date")
	}

	if strings.TrimSpace(id) == "" {
		program := &models.BetaProgram{
			Name:        name,
			Description: strings.TrimSpace(draft.Description),
			StartDate:   startDate,
			EndDate:     endDate,
			IsActive:    false,
			Draft:       datatypes.JSON(data),
		}
		if createdByID = strings.TrimSpace(createdByID); createdByID != "" {
			program.CreatedByID = &createdByID
		}

		if err := s.db.WithContext(ctx).Create(program).Error; err != nil {
			return nil, fmt.Errorf("program service: create draft: %w", err)
		}

		recordAudit(s.auditService, ctx, AuditEntry{
			Action:   "program.draft.create",
			Resource: program.ID,
			Result:   "success",
			Metadata: map[string]any{"name": name},
		})

		return program, nil
	}

	program, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"name":        name,
		"description": strings.TrimSpace(draft.Description),
		"draft":       datatypes.JSON(data),
		"start_date":  startDate,
		"end_date":    endDate,
	}
	if err := s.db.WithContext(ctx).Model(program).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("program service: save draft: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "program.draft.save",
		Resource: program.ID,
		Result:   "success",
	})

	return s.GetByID(ctx, id)
}

// Draft deserializes the stored wizard state for a program.
func (s *ProgramService) Draft(ctx context.Context, id string) (*models.BetaProgram, *ProgramDraft, error) {
	program, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	draft := &ProgramDraft{}
	if len(program.Draft) > 0 {
		if err := json.Unmarshal(program.Draft, draft); err != nil {
			return nil, nil, fmt.Errorf("program service: unmarshal draft: %w", err)
		}
	}
	if draft.Name == "" {
		draft.Name = program.Name
	}
	if draft.Description == "" {
		draft.Description = program.Description
	}

	return program, draft, nil
}

// GetByID loads a program with its invitations and slots.
func (s *ProgramService) GetByID(ctx context.Context, id string) (*models.BetaProgram, error) {
	ctx = ensureContext(ctx)

	var program models.BetaProgram
	err := s.db.WithContext(ctx).
		Preload("Invitations").
		Preload("Slots").
		First(&program, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("program service: get program: %w", err)
	}
	return &program, nil
}

// List returns all programs ordered newest first.
func (s *ProgramService) List(ctx context.Context) ([]models.BetaProgram, error) {
	ctx = ensureContext(ctx)

	var programs []models.BetaProgram
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("program service: list programs: %w", err)
	}
	return programs, nil
}

// ListActive returns launched programs, used by the public booking surface.
func (s *ProgramService) ListActive(ctx context.Context) ([]models.BetaProgram, error) {
	ctx = ensureContext(ctx)

	var programs []models.BetaProgram
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("program service: list active programs: %w", err)
	}
	return programs, nil
}

// Update modifies program metadata outside the wizard flow.
func (s *ProgramService) Update(ctx context.Context, id string, input UpdateProgramInput) (*models.BetaProgram, error) {
	ctx = ensureContext(ctx)

	program, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			updates["name"] = name
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.StartDate != nil {
		updates["start_date"] = *input.StartDate
	}
	if input.EndDate != nil {
		updates["end_date"] = *input.EndDate
	}

	if len(updates) == 0 {
		return program, nil
	}

	if err := s.db.WithContext(ctx).Model(program).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("program service: update program: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "program.update",
		Resource: program.ID,
		Result:   "success",
	})

	return s.GetByID(ctx, id)
}

// MarkActive flips a program live once launch completes.
func (s *ProgramService) MarkActive(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.BetaProgram{}).
		Where("id = ?", id).
		Update("is_active", true)
	if result.Error != nil {
		return fmt.Errorf("program service: mark active: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProgramNotFound
	}
	return nil
}

// Delete removes a program and leaves related records for audit history.
func (s *ProgramService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	program, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(program).Error; err != nil {
		return fmt.Errorf("program service: delete program: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "program.delete",
		Resource: program.ID,
		Result:   "success",
	})

	return nil
}

func parseDraftDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(draftDateLayout, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
