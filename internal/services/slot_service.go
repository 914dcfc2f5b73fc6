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
	// ErrSlotNotFound indicates the requested calendar slot does not exist.
	ErrSlotNotFound = errors.New("slot service: slot not found")
)

// SlotService manages bookable calendar slots.
type SlotService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewSlotService constructs a SlotService instance.
func NewSlotService(db *gorm.DB, auditService *AuditService) (*SlotService, error) {
	if db == nil {
		return nil, errors.New("slot service: db is required")
	}
	return &SlotService{db: db, auditService: auditService}, nil
}

// CreateForProgram materialises the draft slot list as calendar rows.
func (s *SlotService) CreateForProgram(ctx context.Context, programID string, specs []DraftSlotSpec) ([]models.CalendarSlot, error) {
	ctx = ensureContext(ctx)

	if len(specs) == 0 {
		return nil, apperrors.NewBadRequest("at least one slot is required")
	}

	var program models.BetaProgram
	err := s.db.WithContext(ctx).First(&program, "id = ?", programID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("slot service: load program: %w", err)
	}

	slots := make([]models.CalendarSlot, 0, len(specs))
	for _, spec := range specs {
		date, err := time.Parse(draftDateLayout, strings.TrimSpace(spec.Date))
		if err != nil {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid slot date %q", spec.Date))
		}
		start := strings.TrimSpace(spec.StartTime)
		end := strings.TrimSpace(spec.EndTime)
		if start == "" || end == "" {
			return nil, apperrors.NewBadRequest("slot start and end times are required")
		}

		capacity := spec.Capacity
		if capacity <= 0 {
			capacity = 1
		}

		slots = append(slots, models.CalendarSlot{
			BetaProgramID: program.ID,
			Date:          date,
			StartTime:     start,
			EndTime:       end,
			Capacity:      capacity,
			Status:        models.SlotAvailable,
			MeetingLink:   strings.TrimSpace(spec.MeetingLink),
		})
	}

	if err := s.db.WithContext(ctx).Create(&slots).Error; err != nil {
		return nil, fmt.Errorf("slot service: create slots: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "slot.create_batch",
		Resource: program.ID,
		Result:   "success",
		Metadata: map[string]any{"count": len(slots)},
	})

	return slots, nil
}

// GetByID loads a slot with its bookings.
func (s *SlotService) GetByID(ctx context.Context, id string) (*models.CalendarSlot, error) {
	ctx = ensureContext(ctx)

	var slot models.CalendarSlot
	err := s.db.WithContext(ctx).
		Preload("Bookings").
		First(&slot, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("slot service: get slot: %w", err)
	}
	return &slot, nil
}

// ListForProgram returns every slot for a program in chronological order.
func (s *SlotService) ListForProgram(ctx context.Context, programID string) ([]models.CalendarSlot, error) {
	ctx = ensureContext(ctx)

	var slots []models.CalendarSlot
	if err := s.db.WithContext(ctx).
		Preload("Bookings").
		Where("beta_program_id = ?", programID).
		Order("date ASC, start_time ASC").
		Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("slot service: list slots: %w", err)
	}
	return slots, nil
}

// GetAvailable returns slots a tester can still book: status available and
// fewer non-cancelled bookings than capacity, computed with a count subquery
// so a cancelled booking frees the seat.
func (s *SlotService) GetAvailable(ctx context.Context, programID string) ([]models.CalendarSlot, error) {
	ctx = ensureContext(ctx)

	active := s.db.Model(&models.CalendarBooking{}).
		Select("COUNT(*)").
		Where("calendar_bookings.calendar_slot_id = calendar_slots.id").
		Where("calendar_bookings.cancelled_at IS NULL")

	var slots []models.CalendarSlot
	if err := s.db.WithContext(ctx).
		Where("beta_program_id = ?", programID).
		Where("status = ?", models.SlotAvailable).
		Where("capacity > (?)", active).
		Order("date ASC, start_time ASC").
		Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("slot service: list available slots: %w", err)
	}
	return slots, nil
}

// UpdateStatus sets a slot's availability state.
func (s *SlotService) UpdateStatus(ctx context.Context, id, status string) (*models.CalendarSlot, error) {
	ctx = ensureContext(ctx)

	if status != models.SlotAvailable && status != models.SlotBooked {
		return nil, apperrors.NewBadRequest("invalid slot status")
	}

	slot, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(slot).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("slot service: update status: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Delete removes a slot that has no active bookings.
func (s *SlotService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	slot, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	var active int64
	if err := s.db.WithContext(ctx).
		Model(&models.CalendarBooking{}).
		Where("calendar_slot_id = ? AND cancelled_at IS NULL", id).
		Count(&active).Error; err != nil {
		return fmt.Errorf("slot service: count bookings: %w", err)
	}
	if active > 0 {
		return apperrors.NewConflict("slot has active bookings")
	}

	if err := s.db.WithContext(ctx).Delete(slot).Error; err != nil {
		return fmt.Errorf("slot service: delete slot: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "slot.delete",
		Resource: slot.ID,
		Result:   "success",
	})

	return nil
}
