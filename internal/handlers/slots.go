package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betadeskhq/betadesk/internal/services"
	"github.com/betadeskhq/betadesk/pkg/response"
)

// SlotHandler exposes calendar slot management.
type SlotHandler struct {
	svc *services.SlotService
}

func NewSlotHandler(svc *services.SlotService) *SlotHandler {
	return &SlotHandler{svc: svc}
}

type createSlotsRequest struct {
	Slots []services.DraftSlotSpec `json:"slots" validate:"required,min=1,dive"`
}

type updateSlotStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available booked"`
}

// GET /api/programs/:id/slots
func (h *SlotHandler) ListForProgram(c *gin.Context) {
	slots, err := h.svc.ListForProgram(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, slots)
}

// POST /api/programs/:id/slots
func (h *SlotHandler) CreateForProgram(c *gin.Context) {
	var body createSlotsRequest
	if !bindAndValidate(c, &body) {
		return
	}

	slots, err := h.svc.CreateForProgram(requestContext(c), c.Param("id"), body.Slots)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, slots)
}

// GET /api/slots/:id
func (h *SlotHandler) Get(c *gin.Context) {
	slot, err := h.svc.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, slot)
}

// PATCH /api/slots/:id/status
func (h *SlotHandler) UpdateStatus(c *gin.Context) {
	var body updateSlotStatusRequest
	if !bindAndValidate(c, &body) {
		return
	}

	slot, err := h.svc.UpdateStatus(requestContext(c), c.Param("id"), body.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, slot)
}

// DELETE /api/slots/:id
func (h *SlotHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
