package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betadeskhq/betadesk/internal/services"
	"github.com/betadeskhq/betadesk/pkg/response"
)

// NDAHandler exposes NDA tracking.
type NDAHandler struct {
	svc *services.NDAService
}

func NewNDAHandler(svc *services.NDAService) *NDAHandler {
	return &NDAHandler{svc: svc}
}

// GET /api/programs/:id/ndas
func (h *NDAHandler) ListForProgram(c *gin.Context) {
	documents, err := h.svc.ListForProgram(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, documents)
}

// GET /api/ndas/:id
func (h *NDAHandler) Get(c *gin.Context) {
	document, err := h.svc.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, document)
}

// POST /api/ndas/:id/sign
func (h *NDAHandler) Sign(c *gin.Context) {
	document, err := h.svc.Sign(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, document)
}

// POST /api/ndas/:id/decline
func (h *NDAHandler) Decline(c *gin.Context) {
	document, err := h.svc.Decline(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, document)
}
