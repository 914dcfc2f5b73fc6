package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/betadeskhq/betadesk/internal/database/testutil"
	"github.com/betadeskhq/betadesk/internal/models"
	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
)

type bookingFixture struct {
	db          *gorm.DB
	bookings    *BookingService
	invitations *InvitationService
	customers   *CustomerService
	slots       *SlotService
	programs    *ProgramService
	program     *models.BetaProgram
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	orgSvc, err := NewOrganizationService(db, nil)
	require.NoError(t, err)
	customerSvc, err := NewCustomerService(db, orgSvc, nil)
	require.NoError(t, err)
	emailLogSvc, err := NewEmailLogService(db)
	require.NoError(t, err)
	invitationSvc, err := NewInvitationService(db, emailLogSvc, nil)
	require.NoError(t, err)
	slotSvc, err := NewSlotService(db, nil)
	require.NoError(t, err)
	programSvc, err := NewProgramService(db, nil)
	require.NoError(t, err)
	bookingSvc, err := NewBookingService(db, customerSvc, invitationSvc, slotSvc, programSvc, nil)
	require.NoError(t, err)

	program, err := programSvc.SaveDraft(context.Background(), "", ProgramDraft{Name: "Orion Beta"}, "")
	require.NoError(t, err)

	return &bookingFixture{
		db:          db,
		bookings:    bookingSvc,
		invitations: invitationSvc,
		customers:   customerSvc,
		slots:       slotSvc,
		programs:    programSvc,
		program:     program,
	}
}

func (fx *bookingFixture) createSlot(t *testing.T, capacity int) *models.CalendarSlot {
	t.Helper()

	slots, err := fx.slots.CreateForProgram(context.Background(), fx.program.ID, []DraftSlotSpec{
		{Date: "2026-09-15", StartTime: "10:00", EndTime: "11:00", Capacity: capacity},
	})
	require.NoError(t, err)
	return &slots[0]
}

func TestConfirmBookingForWalkIn(t *testing.T) {
	fx := newBookingFixture(t)
	slot := fx.createSlot(t, 2)
	ctx := context.Background()

	booking, err := fx.bookings.Confirm(ctx, ConfirmBookingInput{
		SlotID:    slot.ID,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Notes:     "prefers morning sessions",
	})
	require.NoError(t, err)
	require.NotNil(t, booking.ConfirmedAt)
	require.Equal(t, "prefers morning sessions", booking.Notes)

	// A directory entry was created for the walk-in tester.
	customer, err := fx.customers.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, models.ParticipationActive, customer.ParticipationStatus)
	require.Equal(t, customer.ID, booking.CustomerID)

	// A second booking by the same email reuses the record.
	_, err = fx.bookings.Confirm(ctx, ConfirmBookingInput{SlotID: slot.ID, Email: "ada@example.com"})
	require.NoError(t, err)
	_, total, err := fx.customers.List(ctx, CustomerListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}

func TestConfirmBookingEnforcesCapacity(t *testing.T) {
	fx := newBookingFixture(t)
	slot := fx.createSlot(t, 1)
	ctx := context.Background()

	_, err := fx.bookings.Confirm(ctx, ConfirmBookingInput{SlotID: slot.ID, Email: "first@example.com", FirstName: "First", LastName: "Tester"})
	require.NoError(t, err)

	// The slot is now full: status flipped and further confirmations fail.
	reloaded, err := fx.slots.GetByID(ctx, slot.ID)
	require.NoError(t, err)
	require.Equal(t, models.SlotBooked, reloaded.Status)

	_, err = fx.bookings.Confirm(ctx, ConfirmBookingInput{SlotID: slot.ID, Email: "second@example.com", FirstName: "Second", LastName: "Tester"})
	require.ErrorIs(t, err, apperrors.ErrSlotFull)
}

func TestConfirmBookingWithInvitationToken(t *testing.T) {
	fx := newBookingFixture(t)
	slot := fx.createSlot(t, 1)
	ctx := context.Background()

	customer, err := fx.customers.Create(ctx, CreateCustomerInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = fx.invitations.SendBatch(ctx, SendBatchInput{
		ProgramID:   fx.program.ID,
		CustomerIDs: []string{customer.ID},
		Subject:     "Join us",
		Content:     "Hello",
		Sender:      &fakeSender{},
	})
	require.NoError(t, err)

	invitations, err := fx.invitations.ListForProgram(ctx, fx.program.ID)
	require.NoError(t, err)
	token := invitations[0].Token

	booking, err := fx.bookings.Confirm(ctx, ConfirmBookingInput{SlotID: slot.ID, Token: token})
	require.NoError(t, err)
	require.Equal(t, customer.ID, booking.CustomerID)
	require.NotNil(t, booking.BetaInvitationID)

	// Following the booking link counts as responding to the invitation.
	responded, err := fx.invitations.GetByToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, models.InvitationResponded, responded.Status)
}

func TestConfirmBookingValidation(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	_, err := fx.bookings.Confirm(ctx, ConfirmBookingInput{Email: "ada@example.com"})
	require.Error(t, err)

	slot := fx.createSlot(t, 1)
	_, err = fx.bookings.Confirm(ctx, ConfirmBookingInput{SlotID: slot.ID})
	require.Error(t, err)

	_, err = fx.bookings.Confirm(ctx, ConfirmBookingInput{SlotID: "00000000-0000-0000-0000-000000000000", Email: "a@b.com", FirstName: "A", LastName: "B"})
	require.ErrorIs(t, err, ErrSlotNotFound)
}

func TestCancelBookingReopensSlot(t *testing.T) {
	fx := newBookingFixture(t)
	slot := fx.createSlot(t, 1)
	ctx := context.Background()

	booking, err := fx.bookings.Confirm(ctx, ConfirmBookingInput{SlotID: slot.ID, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)

	cancelled, err := fx.bookings.Cancel(ctx, booking.ID)
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledAt)

	reopened, err := fx.slots.GetByID(ctx, slot.ID)
	require.NoError(t, err)
	require.Equal(t, models.SlotAvailable, reopened.Status)

	// The freed seat can be booked again.
	_, err = fx.bookings.Confirm(ctx, ConfirmBookingInput{SlotID: slot.ID, Email: "grace@example.com", FirstName: "Grace", LastName: "Hopper"})
	require.NoError(t, err)

	// Cancelling twice is a no-op.
	again, err := fx.bookings.Cancel(ctx, booking.ID)
	require.NoError(t, err)
	require.Equal(t, cancelled.CancelledAt.Unix(), again.CancelledAt.Unix())
}

func TestEntryContextWithToken(t *testing.T) {
	fx := newBookingFixture(t)
	fx.createSlot(t, 1)
	ctx := context.Background()

	customer, err := fx.customers.Create(ctx, CreateCustomerInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = fx.invitations.SendBatch(ctx, SendBatchInput{
		ProgramID:   fx.program.ID,
		CustomerIDs: []string{customer.ID},
		Subject:     "Join us",
		Content:     "Hello",
		Sender:      &fakeSender{},
	})
	require.NoError(t, err)
	invitations, err := fx.invitations.ListForProgram(ctx, fx.program.ID)
	require.NoError(t, err)

	entry, err := fx.bookings.EntryContext(ctx, invitations[0].Token, "")
	require.NoError(t, err)
	require.NotNil(t, entry.Program)
	require.Equal(t, fx.program.ID, entry.Program.ID)
	require.NotNil(t, entry.Customer)
	require.Equal(t, customer.ID, entry.Customer.ID)
	require.Len(t, entry.Slots, 1)
}

func TestEntryContextWithProgramID(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	entry, err := fx.bookings.EntryContext(ctx, "", fx.program.ID)
	require.NoError(t, err)
	require.NotNil(t, entry.Program)
	require.Nil(t, entry.Customer)
	// No slots yet: the booking page renders but disables submission.
	require.Empty(t, entry.Slots)
}

func TestEntryContextListsActivePrograms(t *testing.T) {
	fx := newBookingFixture(t)
	ctx := context.Background()

	entry, err := fx.bookings.EntryContext(ctx, "", "")
	require.NoError(t, err)
	require.Empty(t, entry.Programs) // draft program is not public yet

	require.NoError(t, fx.programs.MarkActive(ctx, fx.program.ID))

	entry, err = fx.bookings.EntryContext(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, entry.Programs, 1)
	require.NotNil(t, entry.Slots)

	_, err = fx.bookings.EntryContext(ctx, "missing-token", "")
	require.ErrorIs(t, err, ErrInvitationNotFound)
}
