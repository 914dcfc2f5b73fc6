package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betadeskhq/betadesk/internal/services"
	"github.com/betadeskhq/betadesk/pkg/response"
)

// EmailLogHandler exposes the outbound email history.
type EmailLogHandler struct {
	svc *services.EmailLogService
}

func NewEmailLogHandler(svc *services.EmailLogService) *EmailLogHandler {
	return &EmailLogHandler{svc: svc}
}

// GET /api/email-logs
func (h *EmailLogHandler) List(c *gin.Context) {
	opts := services.EmailLogListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "per_page", 50),
		Filters: services.EmailLogFilters{
			BetaProgramID: c.Query("program_id"),
			Recipient:     c.Query("recipient"),
			Channel:       c.Query("channel"),
			Status:        c.Query("status"),
		},
	}

	logs, total, err := h.svc.List(requestContext(c), opts)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	meta := &response.Meta{
		Page:       opts.Page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
	}
	response.SuccessWithMeta(c, http.StatusOK, logs, meta)
}
