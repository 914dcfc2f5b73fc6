package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/betadeskhq/betadesk/internal/mail"
	"github.com/betadeskhq/betadesk/internal/models"
	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
)

var (
	// ErrTemplateNotFound indicates the requested email template does not exist.
	ErrTemplateNotFound = errors.New("template service: template not found")
)

// CreateTemplateInput captures the attributes of a reusable email template.
type CreateTemplateInput struct {
	Name         string
	Type         string
	Subject      string
	Content      string
	PreviewText  string
	CallToAction string
}

// UpdateTemplateInput represents mutable template fields.
type UpdateTemplateInput struct {
	Name         *string
	Subject      *string
	Content      *string
	PreviewText  *string
	CallToAction *string
}

// TemplateService manages reusable email templates.
type TemplateService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewTemplateService constructs a TemplateService instance.
func NewTemplateService(db *gorm.DB, auditService *AuditService) (*TemplateService, error) {
	if db == nil {
		return nil, errors.New("template service: db is required")
	}
	return &TemplateService{db: db, auditService: auditService}, nil
}

// Create stores a new template, recording the placeholders it references.
func (s *TemplateService) Create(ctx context.Context, input CreateTemplateInput) (*models.EmailTemplate, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("template name is required")
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewBadRequest("template subject is required")
	}

	templateType := strings.TrimSpace(input.Type)
	if templateType == "" {
		templateType = models.TemplateCustom
	}
	if !validTemplateType(templateType) {
		return nil, apperrors.NewBadRequest("invalid template type")
	}

	tmpl := &models.EmailTemplate{
		Name:         name,
		Type:         templateType,
		Subject:      subject,
		Content:      input.Content,
		PreviewText:  strings.TrimSpace(input.PreviewText),
		CallToAction: strings.TrimSpace(input.CallToAction),
	}

	if vars := mail.Placeholders(subject + " " + input.Content); vars != nil {
		data, err := json.Marshal(vars)
		if err != nil {
			return nil, fmt.Errorf("template service: marshal variables: %w", err)
		}
		tmpl.Variables = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(tmpl).Error; err != nil {
		return nil, fmt.Errorf("template service: create template: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "template.create",
		Resource: tmpl.ID,
		Result:   "success",
		Metadata: map[string]any{"type": templateType},
	})

	return tmpl, nil
}

// GetByID loads a template by identifier.
func (s *TemplateService) GetByID(ctx context.Context, id string) (*models.EmailTemplate, error) {
	ctx = ensureContext(ctx)

	var tmpl models.EmailTemplate
	err := s.db.WithContext(ctx).First(&tmpl, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("template service: get template: %w", err)
	}
	return &tmpl, nil
}

// GetByType returns the first template of a given type, oldest first so the
// seeded defaults win unless replaced.
func (s *TemplateService) GetByType(ctx context.Context, templateType string) (*models.EmailTemplate, error) {
	ctx = ensureContext(ctx)

	var tmpl models.EmailTemplate
	err := s.db.WithContext(ctx).
		Where("type = ?", templateType).
		Order("created_at ASC").
		First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("template service: get template by type: %w", err)
	}
	return &tmpl, nil
}

// List returns all templates ordered by type then name.
func (s *TemplateService) List(ctx context.Context) ([]models.EmailTemplate, error) {
	ctx = ensureContext(ctx)

	var templates []models.EmailTemplate
	if err := s.db.WithContext(ctx).Order("type ASC, name ASC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("template service: list templates: %w", err)
	}
	return templates, nil
}

// Update modifies template content.
func (s *TemplateService) Update(ctx context.Context, id string, input UpdateTemplateInput) (*models.EmailTemplate, error) {
	ctx = ensureContext(ctx)

	tmpl, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			updates["name"] = name
		}
	}
	if input.Subject != nil {
		if subject := strings.TrimSpace(*input.Subject); subject != "" {
			updates["subject"] = subject
		}
	}
	if input.Content != nil {
		updates["content"] = *input.Content
	}
	if input.PreviewText != nil {
		updates["preview_text"] = strings.TrimSpace(*input.PreviewText)
	}
	if input.CallToAction != nil {
		updates["call_to_action"] = strings.TrimSpace(*input.CallToAction)
	}

	if len(updates) == 0 {
		return tmpl, nil
	}

	subject := tmpl.Subject
	content := tmpl.Content
	if v, ok := updates["subject"].(string); ok {
		subject = v
	}
	if v, ok := updates["content"].(string); ok {
		content = v
	}
	if vars := mail.Placeholders(subject + " " + content); vars != nil {
		data, err := json.Marshal(vars)
		if err != nil {
			return nil, fmt.Errorf("template service: marshal variables: %w", err)
		}
		updates["variables"] = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Model(tmpl).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("template service: update template: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "template.update",
		Resource: tmpl.ID,
		Result:   "success",
	})

	return s.GetByID(ctx, id)
}

// Delete removes a template.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	tmpl, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(tmpl).Error; err != nil {
		return fmt.Errorf("template service: delete template: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "template.delete",
		Resource: tmpl.ID,
		Result:   "success",
	})

	return nil
}

// Render substitutes variables into the template's subject and content.
func (s *TemplateService) Render(tmpl *models.EmailTemplate, vars map[string]string) (subject, content string) {
	if tmpl == nil {
		return "", ""
	}
	return mail.Render(tmpl.Subject, vars), mail.Render(tmpl.Content, vars)
}

func validTemplateType(templateType string) bool {
	switch templateType {
	case models.TemplateInvitation, models.TemplateNDA, models.TemplateScheduling, models.TemplateCustom:
		return true
	}
	return false
}
