package models

import "time"

// NDA document statuses.
const (
	NDAPending  = "pending"
	NDASigned   = "signed"
	NDAExpired  = "expired"
	NDADeclined = "declined"
)

// NDADocument is a non-disclosure agreement instance tracked to signature.
// The signature ceremony itself happens in an external flow.
type NDADocument struct {
	BaseModel

	CustomerID       string          `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer         *Customer       `json:"customer,omitempty"`
	BetaProgramID    string          `gorm:"type:uuid;not null;index" json:"beta_program_id"`
	BetaProgram      *BetaProgram    `json:"beta_program,omitempty"`
	BetaInvitationID *string         `gorm:"type:uuid;index" json:"beta_invitation_id"`
	BetaInvitation   *BetaInvitation `json:"beta_invitation,omitempty"`

	Title   string `gorm:"not null" json:"title"`
	Content string `json:"content"`
	Status  string `gorm:"default:pending;index" json:"status"`

	SignedAt  *time.Time `json:"signed_at"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`
}
