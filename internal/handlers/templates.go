package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betadeskhq/betadesk/internal/ai"
	"github.com/betadeskhq/betadesk/internal/services"
	"github.com/betadeskhq/betadesk/pkg/errors"
	"github.com/betadeskhq/betadesk/pkg/response"
)

// TemplateHandler exposes email template management and AI content generation.
type TemplateHandler struct {
	svc *services.TemplateService
	ai  *ai.Client
}

func NewTemplateHandler(svc *services.TemplateService, aiClient *ai.Client) *TemplateHandler {
	return &TemplateHandler{svc: svc, ai: aiClient}
}

type createTemplateRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=128"`
	Type         string `json:"type" validate:"omitempty,oneof=invitation nda scheduling custom"`
	Subject      string `json:"subject" validate:"required,max=256"`
	Content      string `json:"content" validate:"omitempty,max=65536"`
	PreviewText  string `json:"preview_text" validate:"omitempty,max=256"`
	CallToAction string `json:"call_to_action" validate:"omitempty,max=128"`
}

type updateTemplateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=2,max=128"`
	Subject      *string `json:"subject" validate:"omitempty,max=256"`
	Content      *string `json:"content" validate:"omitempty,max=65536"`
	PreviewText  *string `json:"preview_text" validate:"omitempty,max=256"`
	CallToAction *string `json:"call_to_action" validate:"omitempty,max=128"`
}

type renderTemplateRequest struct {
	Variables map[string]string `json:"variables"`
}

type generateTemplateRequest struct {
	ProgramName        string `json:"program_name" validate:"required,max=128"`
	ProgramDescription string `json:"program_description" validate:"omitempty,max=2048"`
	TemplateType       string `json:"template_type" validate:"required,oneof=invitation nda scheduling custom"`
	Tone               string `json:"tone" validate:"omitempty,max=64"`
	Instructions       string `json:"instructions" validate:"omitempty,max=2048"`
}

// GET /api/templates
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.svc.List(requestContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, templates)
}

// GET /api/templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	tmpl, err := h.svc.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, tmpl)
}

// GET /api/templates/default/:type
//
// The wizard editor prefills from the oldest template of a type, which is the
// seeded default unless staff replaced it.
func (h *TemplateHandler) Default(c *gin.Context) {
	tmpl, err := h.svc.GetByType(requestContext(c), c.Param("type"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, tmpl)
}

// POST /api/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var body createTemplateRequest
	if !bindAndValidate(c, &body) {
		return
	}

	tmpl, err := h.svc.Create(requestContext(c), services.CreateTemplateInput{
		Name:         body.Name,
		Type:         body.Type,
		Subject:      body.Subject,
		Content:      body.Content,
		PreviewText:  body.PreviewText,
		CallToAction: body.CallToAction,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, tmpl)
}

// PATCH /api/templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	var body updateTemplateRequest
	if !bindAndValidate(c, &body) {
		return
	}

	tmpl, err := h.svc.Update(requestContext(c), c.Param("id"), services.UpdateTemplateInput{
		Name:         body.Name,
		Subject:      body.Subject,
		Content:      body.Content,
		PreviewText:  body.PreviewText,
		CallToAction: body.CallToAction,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, tmpl)
}

// DELETE /api/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/templates/:id/render
func (h *TemplateHandler) Render(c *gin.Context) {
	var body renderTemplateRequest
	if !bindAndValidate(c, &body) {
		return
	}

	tmpl, err := h.svc.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	subject, content := h.svc.Render(tmpl, body.Variables)
	response.Success(c, http.StatusOK, gin.H{"subject": subject, "content": content})
}

// POST /api/templates/generate
func (h *TemplateHandler) Generate(c *gin.Context) {
	if h.ai == nil {
		response.Error(c, errors.ErrAIUnavailable)
		return
	}

	var body generateTemplateRequest
	if !bindAndValidate(c, &body) {
		return
	}

	generated, err := h.ai.Generate(requestContext(c), ai.GenerateInput{
		ProgramName:        body.ProgramName,
		ProgramDescription: body.ProgramDescription,
		TemplateType:       body.TemplateType,
		Tone:               body.Tone,
		Instructions:       body.Instructions,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, generated)
}
