package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/betadeskhq/betadesk/internal/services"
	"github.com/betadeskhq/betadesk/pkg/errors"
	"github.com/betadeskhq/betadesk/pkg/response"
)

// OrganizationHandler exposes organisation management.
type OrganizationHandler struct {
	svc *services.OrganizationService
}

func NewOrganizationHandler(svc *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{svc: svc}
}

type createOrganizationRequest struct {
	Name        string         `json:"name" validate:"required,min=2,max=128"`
	Description string         `json:"description" validate:"omitempty,max=512"`
	Settings    map[string]any `json:"settings"`
}

type updateOrganizationRequest struct {
	Name        *string         `json:"name" validate:"omitempty,min=2,max=128"`
	Description *string         `json:"description" validate:"omitempty,max=512"`
	Settings    *map[string]any `json:"settings"`
}

// GET /api/organizations
func (h *OrganizationHandler) List(c *gin.Context) {
	orgs, err := h.svc.List(requestContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, orgs)
}

// GET /api/organizations/:id
func (h *OrganizationHandler) Get(c *gin.Context) {
	org, err := h.svc.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, org)
}

// POST /api/organizations
func (h *OrganizationHandler) Create(c *gin.Context) {
	var body createOrganizationRequest
	if !bindAndValidate(c, &body) {
		return
	}

	org, err := h.svc.Create(requestContext(c), services.CreateOrganizationInput{
		Name:        strings.TrimSpace(body.Name),
		Description: strings.TrimSpace(body.Description),
		Settings:    body.Settings,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, org)
}

// PATCH /api/organizations/:id
func (h *OrganizationHandler) Update(c *gin.Context) {
	var body updateOrganizationRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if body.Name == nil && body.Description == nil && body.Settings == nil {
		response.Error(c, errors.NewBadRequest("no fields provided for update"))
		return
	}

	var settings map[string]any
	if body.Settings != nil {
		settings = *body.Settings
	}

	org, err := h.svc.Update(requestContext(c), c.Param("id"), services.UpdateOrganizationInput{
		Name:        body.Name,
		Description: body.Description,
		Settings:    settings,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, org)
}

// DELETE /api/organizations/:id
func (h *OrganizationHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
