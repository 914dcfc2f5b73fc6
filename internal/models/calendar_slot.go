package models

import "time"

// Calendar slot statuses.
const (
	SlotAvailable = "available"
	SlotBooked    = "booked"
)

// CalendarSlot is a bookable time window for a testing session.
type CalendarSlot struct {
	BaseModel

	BetaProgramID string       `gorm:"type:uuid;not null;index" json:"beta_program_id"`
	BetaProgram   *BetaProgram `json:"beta_program,omitempty"`

	Date      time.Time `gorm:"not null;index" json:"date"`
	StartTime string    `gorm:"not null" json:"start_time"`
	EndTime   string    `gorm:"not null" json:"end_time"`

	Capacity    int    `gorm:"not null;default:1" json:"capacity"`
	Status      string `gorm:"default:available;index" json:"status"`
	MeetingLink string `json:"meeting_link"`

	Bookings []CalendarBooking `gorm:"foreignKey:CalendarSlotID" json:"bookings,omitempty"`
}
