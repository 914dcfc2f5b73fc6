package models

import "time"

// MailAccount stores per-user OAuth credentials for sending mail through the
// user's own provider account. Tokens are encrypted at rest.
type MailAccount struct {
	BaseModel

	UserID   string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User     *User  `gorm:"foreignKey:UserID" json:"-"`
	Provider string `gorm:"not null;default:google" json:"provider"`
	Email    string `gorm:"not null" json:"email"`

	AccessToken  string     `gorm:"not null" json:"-"`
	RefreshToken string     `json:"-"`
	TokenExpiry  *time.Time `json:"token_expiry"`
	Scope        string     `json:"scope"`
}
