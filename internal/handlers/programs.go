package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/betadeskhq/betadesk/internal/mail"
	"github.com/betadeskhq/betadesk/internal/services"
	"github.com/betadeskhq/betadesk/pkg/errors"
	"github.com/betadeskhq/betadesk/pkg/response"
)

// ProgramHandler exposes beta program management and the creation wizard.
type ProgramHandler struct {
	programs *services.ProgramService
	wizard   *services.WizardService
	senders  *SenderFactory
}

func NewProgramHandler(programs *services.ProgramService, wizard *services.WizardService, senders *SenderFactory) *ProgramHandler {
	return &ProgramHandler{programs: programs, wizard: wizard, senders: senders}
}

type updateProgramRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=2,max=128"`
	Description *string    `json:"description" validate:"omitempty,max=2048"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

type sendStepRequest struct {
	Channel string `json:"channel" validate:"omitempty,oneof=smtp sendgrid gmail"`
}

// GET /api/programs
func (h *ProgramHandler) List(c *gin.Context) {
	programs, err := h.programs.List(requestContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, programs)
}

// GET /api/programs/:id
func (h *ProgramHandler) Get(c *gin.Context) {
	program, err := h.programs.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, program)
}

// PATCH /api/programs/:id
func (h *ProgramHandler) Update(c *gin.Context) {
	var body updateProgramRequest
	if !bindAndValidate(c, &body) {
		return
	}

	program, err := h.programs.Update(requestContext(c), c.Param("id"), services.UpdateProgramInput{
		Name:        body.Name,
		Description: body.Description,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, program)
}

// DELETE /api/programs/:id
func (h *ProgramHandler) Delete(c *gin.Context) {
	if err := h.programs.Delete(requestContext(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/programs/draft
func (h *ProgramHandler) CreateDraft(c *gin.Context) {
	var patch services.DraftPatch
	if !bindAndValidate(c, &patch) {
		return
	}

	program, draft, err := h.wizard.SaveDraft(requestContext(c), "", patch, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"program": program, "draft": draft})
}

// GET /api/programs/:id/draft
func (h *ProgramHandler) GetDraft(c *gin.Context) {
	program, draft, err := h.programs.Draft(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"program": program, "draft": draft})
}

// PUT /api/programs/:id/draft
func (h *ProgramHandler) SaveDraft(c *gin.Context) {
	var patch services.DraftPatch
	if !bindAndValidate(c, &patch) {
		return
	}

	program, draft, err := h.wizard.SaveDraft(requestContext(c), c.Param("id"), patch, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"program": program, "draft": draft})
}

// POST /api/programs/:id/steps/:step/send
func (h *ProgramHandler) SendStep(c *gin.Context) {
	step := c.Param("step")

	// The channel is optional, so a bodyless send is fine.
	var body sendStepRequest
	if !bindOptionalJSON(c, &body) {
		return
	}

	ctx := requestContext(c)

	// Only the invitation step actually sends email.
	var sender mail.Sender
	if step == services.StepInvitation {
		resolved, err := h.senders.Resolve(ctx, body.Channel, currentUserID(c))
		if err != nil {
			respondServiceError(c, err)
			return
		}
		sender = resolved
	}

	result, err := h.wizard.SendStep(ctx, c.Param("id"), step, sender)
	if err != nil {
		if result != nil {
			// Partial batch results still reach the client alongside the error.
			c.JSON(errors.FromError(err).StatusCode, gin.H{
				"success": false,
				"data":    result,
				"error":   gin.H{"code": errors.FromError(err).Code, "message": errors.FromError(err).Message},
			})
			return
		}
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// POST /api/programs/:id/launch
func (h *ProgramHandler) Launch(c *gin.Context) {
	var body sendStepRequest
	if !bindOptionalJSON(c, &body) {
		return
	}

	ctx := requestContext(c)
	sender, err := h.senders.Resolve(ctx, body.Channel, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	program, err := h.wizard.Launch(ctx, c.Param("id"), sender)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, program)
}
