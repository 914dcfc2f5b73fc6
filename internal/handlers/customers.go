package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betadeskhq/betadesk/internal/services"
	"github.com/betadeskhq/betadesk/pkg/response"
)

// CustomerHandler exposes the beta tester directory.
type CustomerHandler struct {
	svc *services.CustomerService
}

func NewCustomerHandler(svc *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

type createCustomerRequest struct {
	FirstName        string   `json:"first_name" validate:"required,max=128"`
	LastName         string   `json:"last_name" validate:"required,max=128"`
	Email            string   `json:"email" validate:"required,email"`
	JobTitle         string   `json:"job_title" validate:"omitempty,max=128"`
	Phone            string   `json:"phone" validate:"omitempty,max=64"`
	OrganizationID   string   `json:"organization_id" validate:"omitempty,uuid4"`
	OrganizationName string   `json:"organization_name" validate:"omitempty,max=128"`
	Region           string   `json:"region" validate:"omitempty,max=64"`
	Timezone         string   `json:"timezone" validate:"omitempty,max=64"`
	Language         string   `json:"language" validate:"omitempty,max=32"`
	Status           string   `json:"participation_status" validate:"omitempty,oneof=active inactive pending"`
	SegmentTags      []string `json:"segment_tags"`
	Notes            string   `json:"notes" validate:"omitempty,max=2048"`
}

type updateCustomerRequest struct {
	FirstName        *string  `json:"first_name" validate:"omitempty,max=128"`
	LastName         *string  `json:"last_name" validate:"omitempty,max=128"`
	Email            *string  `json:"email" validate:"omitempty,email"`
	JobTitle         *string  `json:"job_title" validate:"omitempty,max=128"`
	Phone            *string  `json:"phone" validate:"omitempty,max=64"`
	OrganizationID   *string  `json:"organization_id" validate:"omitempty,uuid4"`
	OrganizationName *string  `json:"organization_name" validate:"omitempty,max=128"`
	Region           *string  `json:"region" validate:"omitempty,max=64"`
	Timezone         *string  `json:"timezone" validate:"omitempty,max=64"`
	Language         *string  `json:"language" validate:"omitempty,max=32"`
	Status           *string  `json:"participation_status" validate:"omitempty,oneof=active inactive pending"`
	SegmentTags      []string `json:"segment_tags"`
	Notes            *string  `json:"notes" validate:"omitempty,max=2048"`
}

// GET /api/customers
func (h *CustomerHandler) List(c *gin.Context) {
	opts := services.CustomerListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "per_page", 50),
		Filters: services.CustomerFilters{
			Search:         c.Query("search"),
			OrganizationID: c.Query("organization_id"),
			Status:         c.Query("status"),
			Region:         c.Query("region"),
			SegmentTag:     c.Query("segment_tag"),
		},
	}

	customers, total, err := h.svc.List(requestContext(c), opts)
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
	response.SuccessWithMeta(c, http.StatusOK, customers, meta)
}

// GET /api/customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	customer, err := h.svc.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, customer)
}

// POST /api/customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var body createCustomerRequest
	if !bindAndValidate(c, &body) {
		return
	}

	customer, err := h.svc.Create(requestContext(c), services.CreateCustomerInput{
		FirstName:        body.FirstName,
		LastName:         body.LastName,
		Email:            body.Email,
		JobTitle:         body.JobTitle,
		Phone:            body.Phone,
		OrganizationID:   body.OrganizationID,
		OrganizationName: body.OrganizationName,
		Region:           body.Region,
		Timezone:         body.Timezone,
		Language:         body.Language,
		Status:           body.Status,
		SegmentTags:      body.SegmentTags,
		Notes:            body.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, customer)
}

// PATCH /api/customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	var body updateCustomerRequest
	if !bindAndValidate(c, &body) {
		return
	}

	customer, err := h.svc.Update(requestContext(c), c.Param("id"), services.UpdateCustomerInput{
		FirstName:        body.FirstName,
		LastName:         body.LastName,
		Email:            body.Email,
		JobTitle:         body.JobTitle,
		Phone:            body.Phone,
		OrganizationID:   body.OrganizationID,
		OrganizationName: body.OrganizationName,
		Region:           body.Region,
		Timezone:         body.Timezone,
		Language:         body.Language,
		Status:           body.Status,
		SegmentTags:      body.SegmentTags,
		Notes:            body.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, customer)
}

// DELETE /api/customers/:id
func (h *CustomerHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
