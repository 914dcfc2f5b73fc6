package models

import "time"

// Invitation statuses.
const (
	InvitationDraft     = "draft"
	InvitationSent      = "sent"
	InvitationResponded = "responded"
	InvitationExpired   = "expired"
)

// BetaInvitation links a Customer to a BetaProgram and tracks response state.
// The token is embedded in the emailed booking link.
type BetaInvitation struct {
	BaseModel

	CustomerID    string       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer      *Customer    `json:"customer,omitempty"`
	BetaProgramID string       `gorm:"type:uuid;not null;index" json:"beta_program_id"`
	BetaProgram   *BetaProgram `json:"beta_program,omitempty"`

	Token  string `gorm:"uniqueIndex;not null" json:"token"`
	Status string `gorm:"default:draft;index" json:"status"`

	Subject string `json:"subject"`
	Content string `json:"content"`

	SentAt      *time.Time `json:"sent_at"`
	RespondedAt *time.Time `json:"responded_at"`
	ExpiresAt   *time.Time `gorm:"index" json:"expires_at"`
}
