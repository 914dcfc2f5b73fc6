package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/betadeskhq/betadesk/internal/models"
	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
	"github.com/betadeskhq/betadesk/pkg/metrics"
)

var (
	// ErrBookingNotFound indicates the requested booking does not exist.
	ErrBookingNotFound = errors.New("booking service: booking not found")
)

// ConfirmBookingInput captures a tester's slot reservation request from the
// public booking page.
type ConfirmBookingInput struct {
	SlotID    string
	Token     string
	FirstName string
	LastName  string
	Email     string
	Notes     string
}

// BookingContext is what the public booking page needs to render: the program
// being booked, the invited customer when a token was presented, and the slots
// still open. An empty slot list means the page disables submission.
type BookingContext struct {
	Program  *models.BetaProgram   `json:"program,omitempty"`
	Programs []models.BetaProgram  `json:"programs,omitempty"`
	Customer *models.Customer      `json:"customer,omitempty"`
	Slots    []models.CalendarSlot `json:"slots"`
}

// BookingService reserves calendar slots for testers.
type BookingService struct {
	db           *gorm.DB
	customers    *CustomerService
	invitations  *InvitationService
	slots        *SlotService
	programs     *ProgramService
	auditService *AuditService
	now          func() time.Time
}

// NewBookingService constructs a BookingService instance.
func NewBookingService(db *gorm.DB, customers *CustomerService, invitations *InvitationService, slots *SlotService, programs *ProgramService, auditService *AuditService) (*BookingService, error) {
	if db == nil {
		return nil, errors.New("booking service: db is required")
	}
	if customers == nil {
		return nil, errors.New("booking service: customer service is required")
	}
	if invitations == nil {
		return nil, errors.New("booking service: invitation service is required")
	}
	if slots == nil {
		return nil, errors.New("booking service: slot service is required")
	}
	if programs == nil {
		return nil, errors.New("booking service: program service is required")
	}
	return &BookingService{
		db:           db,
		customers:    customers,
		invitations:  invitations,
		slots:        slots,
		programs:     programs,
		auditService: auditService,
		now:          time.Now,
	}, nil
}

// WithClock overrides the clock, primarily for tests.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	if now != nil {
		s.now = now
	}
	return s
}

// EntryContext resolves what the booking page should show. A token maps to the
// invitation's program and customer; a program id maps to that program; with
// neither, the page lists all active programs for self-service selection.
func (s *BookingService) EntryContext(ctx context.Context, token, programID string) (*BookingContext, error) {
	ctx = ensureContext(ctx)

	if token = strings.TrimSpace(token); token != "" {
		invitation, err := s.invitations.GetByToken(ctx, token)
		if err != nil {
			return nil, err
		}

		slots, err := s.slots.GetAvailable(ctx, invitation.BetaProgramID)
		if err != nil {
			return nil, err
		}

		return &BookingContext{
			Program:  invitation.BetaProgram,
			Customer: invitation.Customer,
			Slots:    slots,
		}, nil
	}

	if programID = strings.TrimSpace(programID); programID != "" {
		program, err := s.programs.GetByID(ctx, programID)
		if err != nil {
			return nil, err
		}

		slots, err := s.slots.GetAvailable(ctx, program.ID)
		if err != nil {
			return nil, err
		}

		return &BookingContext{Program: program, Slots: slots}, nil
	}

	programs, err := s.programs.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return &BookingContext{Programs: programs, Slots: []models.CalendarSlot{}}, nil
}

// Confirm reserves a seat in a slot. The capacity check and the booking insert
// happen inside one transaction so two concurrent requests for the last seat
// cannot both succeed.
func (s *BookingService) Confirm(ctx context.Context, input ConfirmBookingInput) (*models.CalendarBooking, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(input.SlotID) == "" {
		return nil, apperrors.NewBadRequest("slot id is required")
	}

	customer, invitationID, err := s.resolveCustomer(ctx, input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	booking := &models.CalendarBooking{
		CalendarSlotID:   input.SlotID,
		CustomerID:       customer.ID,
		BetaInvitationID: invitationID,
		Notes:            strings.TrimSpace(input.Notes),
		ConfirmedAt:      &now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Competing confirmations must serialize on the slot row before the
		// capacity count. Postgres and MySQL take a locking read: blocking on
		// FOR UPDATE defers the transaction's first consistent read until the
		// winner has committed, so the count below sees its booking. SQLite
		// rejects FOR UPDATE, so there the write below is the serialization
		// point (the whole database locks on first write).
		slotQuery := tx
		if tx.Dialector.Name() != "sqlite" {
			slotQuery = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var slot models.CalendarSlot
		err := slotQuery.First(&slot, "id = ?", input.SlotID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSlotNotFound
		}
		if err != nil {
			return fmt.Errorf("booking service: load slot: %w", err)
		}

		if err := tx.Model(&models.CalendarSlot{}).
			Where("id = ?", slot.ID).
			Update("updated_at", now).Error; err != nil {
			return fmt.Errorf("booking service: lock slot: %w", err)
		}

		var active int64
		if err := tx.Model(&models.CalendarBooking{}).
			Where("calendar_slot_id = ? AND cancelled_at IS NULL", slot.ID).
			Count(&active).Error; err != nil {
			return fmt.Errorf("booking service: count bookings: %w", err)
		}

		if active >= int64(slot.Capacity) {
			return apperrors.ErrSlotFull
		}

		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("booking service: create booking: %w", err)
		}

		if active+1 >= int64(slot.Capacity) {
			if err := tx.Model(&slot).Update("status", models.SlotBooked).Error; err != nil {
				return fmt.Errorf("booking service: mark slot booked: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrSlotFull) {
			metrics.BookingAttempts.WithLabelValues("full").Inc()
		} else {
			metrics.BookingAttempts.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.BookingAttempts.WithLabelValues("confirmed").Inc()

	if token := strings.TrimSpace(input.Token); token != "" {
		if _, err := s.invitations.MarkResponded(ctx, token); err != nil && !errors.Is(err, ErrInvitationNotFound) {
			return nil, err
		}
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "booking.confirm",
		Resource: booking.ID,
		Result:   "success",
		Metadata: map[string]any{"slot_id": input.SlotID, "customer_id": customer.ID},
	})

	return s.GetByID(ctx, booking.ID)
}

// Cancel releases a booking's seat and reopens the slot.
func (s *BookingService) Cancel(ctx context.Context, id string) (*models.CalendarBooking, error) {
	ctx = ensureContext(ctx)

	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.CancelledAt != nil {
		return booking, nil
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(booking).Update("cancelled_at", now).Error; err != nil {
			return fmt.Errorf("booking service: cancel booking: %w", err)
		}
		if err := tx.Model(&models.CalendarSlot{}).
			Where("id = ?", booking.CalendarSlotID).
			Update("status", models.SlotAvailable).Error; err != nil {
			return fmt.Errorf("booking service: reopen slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "booking.cancel",
		Resource: booking.ID,
		Result:   "success",
	})

	return s.GetByID(ctx, id)
}

// GetByID loads a booking with its slot and customer.
func (s *BookingService) GetByID(ctx context.Context, id string) (*models.CalendarBooking, error) {
	ctx = ensureContext(ctx)

	var booking models.CalendarBooking
	err := s.db.WithContext(ctx).
		Preload("CalendarSlot").
		Preload("Customer").
		First(&booking, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("booking service: get booking: %w", err)
	}
	return &booking, nil
}

// ListForSlot returns bookings against a slot, newest first.
func (s *BookingService) ListForSlot(ctx context.Context, slotID string) ([]models.CalendarBooking, error) {
	ctx = ensureContext(ctx)

	var bookings []models.CalendarBooking
	if err := s.db.WithContext(ctx).
		Preload("Customer").
		Where("calendar_slot_id = ?", slotID).
		Order("created_at DESC").
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("booking service: list bookings for slot: %w", err)
	}
	return bookings, nil
}

// ListForCustomer returns a tester's bookings, newest first.
func (s *BookingService) ListForCustomer(ctx context.Context, customerID string) ([]models.CalendarBooking, error) {
	ctx = ensureContext(ctx)

	var bookings []models.CalendarBooking
	if err := s.db.WithContext(ctx).
		Preload("CalendarSlot").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("booking service: list bookings for customer: %w", err)
	}
	return bookings, nil
}

// ListForProgram returns all bookings under a program's slots, newest first.
func (s *BookingService) ListForProgram(ctx context.Context, programID string) ([]models.CalendarBooking, error) {
	ctx = ensureContext(ctx)

	var bookings []models.CalendarBooking
	if err := s.db.WithContext(ctx).
		Preload("CalendarSlot").
		Preload("Customer").
		Joins("JOIN calendar_slots ON calendar_slots.id = calendar_bookings.calendar_slot_id").
		Where("calendar_slots.beta_program_id = ?", programID).
		Order("calendar_bookings.created_at DESC").
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("booking service: list bookings for program: %w", err)
	}
	return bookings, nil
}

// resolveCustomer finds the booking customer: by invitation token when the
// tester followed an emailed link, otherwise by email, creating a directory
// entry for walk-in bookings.
func (s *BookingService) resolveCustomer(ctx context.Context, input ConfirmBookingInput) (*models.Customer, *string, error) {
	if token := strings.TrimSpace(input.Token); token != "" {
		invitation, err := s.invitations.GetByToken(ctx, token)
		if err != nil {
			return nil, nil, err
		}
		if invitation.Customer == nil {
			return nil, nil, fmt.Errorf("booking service: invitation %s has no customer", invitation.ID)
		}
		return invitation.Customer, &invitation.ID, nil
	}

	email := normaliseEmail(input.Email)
	if email == "" {
		return nil, nil, apperrors.NewBadRequest("email is required")
	}

	customer, err := s.customers.GetByEmail(ctx, email)
	if err == nil {
		return customer, nil, nil
	}
	if !errors.Is(err, ErrCustomerNotFound) {
		return nil, nil, err
	}

	customer, err = s.customers.Create(ctx, CreateCustomerInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     email,
		Status:    models.ParticipationActive,
	})
	if err != nil {
		return nil, nil, err
	}
	return customer, nil, nil
}
