package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betadeskhq/betadesk/internal/services"
	"github.com/betadeskhq/betadesk/pkg/errors"
	"github.com/betadeskhq/betadesk/pkg/response"
)

// BookingHandler exposes the public booking surface and staff booking views.
type BookingHandler struct {
	bookings *services.BookingService
	programs *services.ProgramService
	slots    *services.SlotService
}

func NewBookingHandler(bookings *services.BookingService, programs *services.ProgramService, slots *services.SlotService) *BookingHandler {
	return &BookingHandler{bookings: bookings, programs: programs, slots: slots}
}

type confirmBookingRequest struct {
	SlotID    string `json:"slot_id" validate:"required,uuid4"`
	Token     string `json:"token" validate:"omitempty,max=128"`
	FirstName string `json:"first_name" validate:"omitempty,max=128"`
	LastName  string `json:"last_name" validate:"omitempty,max=128"`
	Email     string `json:"email" validate:"omitempty,email"`
	Notes     string `json:"notes" validate:"omitempty,max=2048"`
}

// GET /api/public/booking/context?token=...&program_id=...
func (h *BookingHandler) Context(c *gin.Context) {
	ctx, err := h.bookings.EntryContext(requestContext(c), c.Query("token"), c.Query("program_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ctx)
}

// GET /api/public/programs
func (h *BookingHandler) PublicPrograms(c *gin.Context) {
	programs, err := h.programs.ListActive(requestContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, programs)
}

// GET /api/public/programs/:id/slots
func (h *BookingHandler) PublicSlots(c *gin.Context) {
	slots, err := h.slots.GetAvailable(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, slots)
}

// POST /api/public/bookings
func (h *BookingHandler) Confirm(c *gin.Context) {
	var body confirmBookingRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if body.Token == "" && body.Email == "" {
		response.Error(c, errors.NewBadRequest("either an invitation token or contact details are required"))
		return
	}

	booking, err := h.bookings.Confirm(requestContext(c), services.ConfirmBookingInput{
		SlotID:    body.SlotID,
		Token:     body.Token,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
		Notes:     body.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, booking)
}

// GET /api/programs/:id/bookings
func (h *BookingHandler) ListForProgram(c *gin.Context) {
	bookings, err := h.bookings.ListForProgram(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, bookings)
}

// GET /api/slots/:id/bookings
func (h *BookingHandler) ListForSlot(c *gin.Context) {
	bookings, err := h.bookings.ListForSlot(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, bookings)
}

// GET /api/customers/:id/bookings
func (h *BookingHandler) ListForCustomer(c *gin.Context) {
	bookings, err := h.bookings.ListForCustomer(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, bookings)
}

// POST /api/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	booking, err := h.bookings.Cancel(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, booking)
}
