package models

import "time"

// CalendarBooking is a tester's reservation against a CalendarSlot.
// Cancellation sets a timestamp rather than deleting the row.
type CalendarBooking struct {
	BaseModel

	CalendarSlotID string        `gorm:"type:uuid;not null;index" json:"calendar_slot_id"`
	CalendarSlot   *CalendarSlot `json:"calendar_slot,omitempty"`

	CustomerID string    `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *Customer `json:"customer,omitempty"`

	BetaInvitationID *string         `gorm:"type:uuid;index" json:"beta_invitation_id"`
	BetaInvitation   *BetaInvitation `json:"beta_invitation,omitempty"`

	Notes       string     `json:"notes"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
}

// Active reports whether the booking still occupies slot capacity.
func (b *CalendarBooking) Active() bool {
	return b.CancelledAt == nil
}
