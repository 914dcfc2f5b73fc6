package models

import (
	"time"

	"gorm.io/datatypes"
)

// BetaProgram is a named beta-test initiative with a tester cohort,
// invitations, NDAs, and scheduled sessions.
type BetaProgram struct {
	BaseModel

	Name        string     `gorm:"not null;index" json:"name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsActive    bool       `gorm:"default:false;index" json:"is_active"`

	CreatedByID *string `gorm:"type:uuid" json:"created_by_id"`
	CreatedBy   *User   `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	// Draft holds the serialized wizard state while the program is unlaunched.
	Draft datatypes.JSON `json:"draft"`

	Invitations []BetaInvitation `gorm:"foreignKey:BetaProgramID" json:"invitations,omitempty"`
	NDAs        []NDADocument    `gorm:"foreignKey:BetaProgramID" json:"ndas,omitempty"`
	Slots       []CalendarSlot   `gorm:"foreignKey:BetaProgramID" json:"slots,omitempty"`
}
