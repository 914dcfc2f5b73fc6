package models

import "gorm.io/datatypes"

// Participation statuses for customers in the beta tester directory.
const (
	ParticipationActive   = "active"
	ParticipationInactive = "inactive"
	ParticipationPending  = "pending"
)

// Customer is a beta tester tracked in the directory.
type Customer struct {
	BaseModel

	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	JobTitle  string `json:"job_title"`
	Phone     string `json:"phone"`

	OrganizationID *string       `gorm:"type:uuid;index" json:"organization_id"`
	Organization   *Organization `json:"organization,omitempty"`

	Region   string `json:"region"`
	Timezone string `json:"timezone"`
	Language string `json:"language"`

	ParticipationStatus string         `gorm:"default:pending;index" json:"participation_status"`
	SegmentTags         datatypes.JSON `json:"segment_tags"`
	Notes               string         `json:"notes"`

	Invitations []BetaInvitation  `gorm:"foreignKey:CustomerID" json:"invitations,omitempty"`
	NDAs        []NDADocument     `gorm:"foreignKey:CustomerID" json:"ndas,omitempty"`
	Bookings    []CalendarBooking `gorm:"foreignKey:CustomerID" json:"bookings,omitempty"`
}

// FullName returns the display name used in email greetings and lists.
func (c *Customer) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
