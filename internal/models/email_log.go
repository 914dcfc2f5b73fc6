package models

// Email log statuses and channels.
const (
	EmailSent   = "sent"
	EmailFailed = "failed"

	ChannelSMTP     = "smtp"
	ChannelSendGrid = "sendgrid"
	ChannelGmail    = "gmail"
)

// EmailLog records one outbound send attempt, successful or not.
type EmailLog struct {
	BaseModel

	Channel      string `gorm:"not null;index" json:"channel"`
	TemplateType string `json:"template_type"`
	Recipient    string `gorm:"not null;index" json:"recipient"`
	Subject      string `json:"subject"`
	Status       string `gorm:"not null;index" json:"status"`
	Error        string `json:"error"`

	BetaProgramID *string `gorm:"type:uuid;index" json:"beta_program_id"`
	CustomerID    *string `gorm:"type:uuid;index" json:"customer_id"`
}
