package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/betadeskhq/betadesk/internal/services"
	appErrors "github.com/betadeskhq/betadesk/pkg/errors"
	"github.com/betadeskhq/betadesk/pkg/response"
)

// respondServiceError translates service failures into the API envelope.
// AppErrors pass through with their own status; known not-found sentinels
// become 404; everything else is a 500 with the internals kept server-side.
func respondServiceError(c *gin.Context, err error) {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		response.Error(c, appErr)
		return
	}

	switch {
	case errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, services.ErrProgramNotFound),
		errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrNDANotFound),
		errors.Is(err, services.ErrSlotNotFound),
		errors.Is(err, services.ErrBookingNotFound),
		errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrMailAccountNotFound):
		response.Error(c, appErrors.ErrNotFound)
	default:
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
	}
}
