package database

import (
	"gorm.io/gorm"

	"github.com/betadeskhq/betadesk/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Organization{},
		&models.Customer{},
		&models.BetaProgram{},
		&models.BetaInvitation{},
		&models.NDADocument{},
		&models.CalendarSlot{},
		&models.CalendarBooking{},
		&models.EmailTemplate{},
		&models.EmailLog{},
		&models.MailAccount{},
		&models.AuditLog{},
	)
}

// SeedData inserts the default email templates used by the campaign wizard.
func SeedData(db *gorm.DB) error {
	templates := []models.EmailTemplate{
		{
			BaseModel: models.BaseModel{ID: "tmpl-invitation"},
			Name:      "Beta Invitation",
			Type:      models.TemplateInvitation,
			Subject:   "You're invited to {{program_name}}",
			Content: "Hi {{first_name}},\n\nWe'd love for you to join our {{program_name}} beta. " +
				"Use the link below to pick a session that works for you.\n\n{{booking_link}}",
			CallToAction: "Book your session",
		},
		{
			BaseModel: models.BaseModel{ID: "tmpl-nda"},
			Name:      "NDA Request",
			Type:      models.TemplateNDA,
			Subject:   "Action required: NDA for {{program_name}}",
			Content: "Hi {{first_name}},\n\nBefore we can share beta builds of {{program_name}}, " +
				"we need a signed non-disclosure agreement. Please review and sign at your earliest convenience.",
			CallToAction: "Review NDA",
		},
		{
			BaseModel: models.BaseModel{ID: "tmpl-scheduling"},
			Name:      "Session Confirmation",
			Type:      models.TemplateScheduling,
			Subject:   "Your {{program_name}} session is confirmed",
			Content: "Hi {{first_name}},\n\nYour testing session is confirmed. " +
				"Meeting link: {{meeting_link}}",
			CallToAction: "Add to calendar",
		},
	}

	for _, tmpl := range templates {
		if err := db.Where(models.EmailTemplate{BaseModel: models.BaseModel{ID: tmpl.ID}}).
			Attrs(tmpl).
			FirstOrCreate(&models.EmailTemplate{}).Error; err != nil {
			return err
		}
	}

	return nil
}
