package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betadeskhq/betadesk/internal/services"
	"github.com/betadeskhq/betadesk/pkg/response"
)

// InvitationHandler exposes invitation tracking and resends.
type InvitationHandler struct {
	svc     *services.InvitationService
	senders *SenderFactory
}

func NewInvitationHandler(svc *services.InvitationService, senders *SenderFactory) *InvitationHandler {
	return &InvitationHandler{svc: svc, senders: senders}
}

type resendInvitationRequest struct {
	Channel string `json:"channel" validate:"omitempty,oneof=smtp sendgrid gmail"`
}

// GET /api/programs/:id/invitations
func (h *InvitationHandler) ListForProgram(c *gin.Context) {
	invitations, err := h.svc.ListForProgram(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, invitations)
}

// GET /api/invitations/:id
func (h *InvitationHandler) Get(c *gin.Context) {
	invitation, err := h.svc.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, invitation)
}

// POST /api/invitations/:id/resend
func (h *InvitationHandler) Resend(c *gin.Context) {
	var body resendInvitationRequest
	if !bindAndValidate(c, &body) {
		return
	}

	ctx := requestContext(c)
	sender, err := h.senders.Resolve(ctx, body.Channel, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	invitation, err := h.svc.Resend(ctx, c.Param("id"), sender)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, invitation)
}

// POST /api/invitations/respond/:token
func (h *InvitationHandler) MarkResponded(c *gin.Context) {
	invitation, err := h.svc.MarkResponded(requestContext(c), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, invitation)
}
