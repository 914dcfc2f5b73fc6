package models

import "gorm.io/datatypes"

// Email template types.
const (
	TemplateInvitation = "invitation"
	TemplateNDA        = "nda"
	TemplateScheduling = "scheduling"
	TemplateCustom     = "custom"
)

// EmailTemplate holds reusable subject/content pairs with {{variable}} placeholders.
type EmailTemplate struct {
	BaseModel

	Name         string         `gorm:"not null;index" json:"name"`
	Type         string         `gorm:"default:custom;index" json:"type"`
	Subject      string         `gorm:"not null" json:"subject"`
	Content      string         `json:"content"`
	PreviewText  string         `json:"preview_text"`
	CallToAction string         `json:"call_to_action"`
	Variables    datatypes.JSON `json:"variables"`
}
