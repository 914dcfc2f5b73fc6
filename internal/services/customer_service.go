package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
	"github.com/betadeskhq/betadesk/internal/models"
)

var (
	// ErrCustomerNotFound indicates the requested customer does not exist.
	ErrCustomerNotFound = errors.New("customer service: customer not found")
)

// CreateCustomerInput captures the attributes required to register a beta tester.
// OrganizationName is free text and resolved to an organisation record, creating
// one when no match exists.
type CreateCustomerInput struct {
	FirstName        string
	LastName         string
	Email            string
	JobTitle         string
	Phone            string
	OrganizationID   string
	OrganizationName string
	Region           string
	Timezone         string
	Language         string
	Status           string
	SegmentTags      []string
	Notes            string
}

// UpdateCustomerInput represents mutable customer fields.
type UpdateCustomerInput struct {
	FirstName        *string
	LastName         *string
	Email            *string
	JobTitle         *string
	Phone            *string
	OrganizationID   *string
	OrganizationName *string
	Region           *string
	Timezone         *string
	Language         *string
	Status           *string
	SegmentTags      []string
	Notes            *string
}

// CustomerFilters narrows customer listings.
type CustomerFilters struct {
	Search         string
	OrganizationID string
	Status         string
	Region         string
	SegmentTag     string
}

// CustomerListOptions controls pagination and filtering for customer queries.
type CustomerListOptions struct {
	Page     int
	PageSize int
	Filters  CustomerFilters
}

// CustomerService manages the beta tester directory.
type CustomerService struct {
	db            *gorm.DB
	organizations *OrganizationService
	auditService  *AuditService
}

// NewCustomerService constructs a CustomerService instance.
func NewCustomerService(db *gorm.DB, organizations *OrganizationService, auditService *AuditService) (*CustomerService, error) {
	if db == nil {
		return nil, errors.New("customer service: db is required")
	}
	if organizations == nil {
		return nil, errors.New("customer service: organization service is required")
	}
	return &CustomerService{
		db:            db,
		organizations: organizations,
		auditService:  auditService,
	}, nil
}

// Create registers a new beta tester. Required fields are validated before any
// write so a rejected record never reaches the database.
func (s *CustomerService) Create(ctx context.Context, input CreateCustomerInput) (*models.Customer, error) {
	ctx = ensureContext(ctx)

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := normaliseEmail(input.Email)

	if firstName == "" {
		return nil, apperrors.NewBadRequest("first name is required")
	}
	if lastName == "" {
		return nil, apperrors.NewBadRequest("last name is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = models.ParticipationPending
	}
	if !validParticipationStatus(status) {
		return nil, apperrors.NewBadRequest("invalid participation status")
	}

	customer := &models.Customer{
		FirstName:           firstName,
		LastName:            lastName,
		Email:               email,
		JobTitle:            strings.TrimSpace(input.JobTitle),
		Phone:               strings.TrimSpace(input.Phone),
		Region:              strings.TrimSpace(input.Region),
		Timezone:            strings.TrimSpace(input.Timezone),
		Language:            strings.TrimSpace(input.Language),
		ParticipationStatus: status,
		Notes:               strings.TrimSpace(input.Notes),
	}

	orgID, err := s.resolveOrganization(ctx, input.OrganizationID, input.OrganizationName)
	if err != nil {
		return nil, err
	}
	customer.OrganizationID = orgID

	if tags := normaliseIDs(input.SegmentTags); tags != nil {
		data, err := json.Marshal(tags)
		if err != nil {
			return nil, fmt.Errorf("customer service: marshal segment tags: %w", err)
		}
		customer.SegmentTags = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(customer).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewConflict("a customer with this email already exists")
		}
		return nil, fmt.Errorf("customer service: create customer: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "customer.create",
		Resource: customer.ID,
		Result:   "success",
		Metadata: map[string]any{
			"email": email,
		},
	})

	return s.GetByID(ctx, customer.ID)
}

// GetByID loads a customer with its organisation and participation history.
func (s *CustomerService) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	ctx = ensureContext(ctx)

	var customer models.Customer
	err := s.db.WithContext(ctx).
		Preload("Organization").
		Preload("Invitations").
		Preload("NDAs").
		Preload("Bookings").
		First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("customer service: get customer: %w", err)
	}
	return &customer, nil
}

// GetByEmail loads a customer by their unique email address.
func (s *CustomerService) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	ctx = ensureContext(ctx)

	var customer models.Customer
	err := s.db.WithContext(ctx).
		Preload("Organization").
		First(&customer, "email = ?", normaliseEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("customer service: get customer by email: %w", err)
	}
	return &customer, nil
}

// List returns paginated customers matching the provided filters.
func (s *CustomerService) List(ctx context.Context, opts CustomerListOptions) ([]models.Customer, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	query := s.db.WithContext(ctx).Model(&models.Customer{})
	query = applyCustomerFilters(query, opts.Filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("customer service: count customers: %w", err)
	}

	var customers []models.Customer
	if err := query.
		Preload("Organization").
		Order("last_name ASC, first_name ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&customers).Error; err != nil {
		return nil, 0, fmt.Errorf("customer service: list customers: %w", err)
	}

	return customers, total, nil
}

// Update modifies customer attributes.
func (s *CustomerService) Update(ctx context.Context, id string, input UpdateCustomerInput) (*models.Customer, error) {
	ctx = ensureContext(ctx)

	var customer models.Customer
	err := s.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("customer service: load customer: %w", err)
	}

	updates := map[string]any{}

	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, apperrors.NewBadRequest("first name cannot be empty")
		}
		updates["first_name"] = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, apperrors.NewBadRequest("last name cannot be empty")
		}
		updates["last_name"] = name
	}
	if input.Email != nil {
		email := normaliseEmail(*input.Email)
		if email == "" {
			return nil, apperrors.NewBadRequest("email cannot be empty")
		}
		updates["email"] = email
	}
	if input.JobTitle != nil {
		updates["job_title"] = strings.TrimSpace(*input.JobTitle)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Region != nil {
		updates["region"] = strings.TrimSpace(*input.Region)
	}
	if input.Timezone != nil {
		updates["timezone"] = strings.TrimSpace(*input.Timezone)
	}
	if input.Language != nil {
		updates["language"] = strings.TrimSpace(*input.Language)
	}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if !validParticipationStatus(status) {
			return nil, apperrors.NewBadRequest("invalid participation status")
		}
		updates["participation_status"] = status
	}
	if input.Notes != nil {
		updates["notes"] = strings.TrimSpace(*input.Notes)
	}
	if input.SegmentTags != nil {
		data, err := json.Marshal(normaliseIDs(input.SegmentTags))
		if err != nil {
			return nil, fmt.Errorf("customer service: marshal segment tags: %w", err)
		}
		updates["segment_tags"] = datatypes.JSON(data)
	}

	if input.OrganizationID != nil || input.OrganizationName != nil {
		var (
			orgID   string
			orgName string
		)
		if input.OrganizationID != nil {
			orgID = *input.OrganizationID
		}
		if input.OrganizationName != nil {
			orgName = *input.OrganizationName
		}
		resolved, err := s.resolveOrganization(ctx, orgID, orgName)
		if err != nil {
			return nil, err
		}
		updates["organization_id"] = resolved
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&customer).Updates(updates).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil, apperrors.NewConflict("a customer with this email already exists")
			}
			return nil, fmt.Errorf("customer service: update customer: %w", err)
		}
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "customer.update",
		Resource: customer.ID,
		Result:   "success",
	})

	return s.GetByID(ctx, id)
}

// Delete removes a customer from the directory.
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var customer models.Customer
	err := s.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCustomerNotFound
	}
	if err != nil {
		return fmt.Errorf("customer service: load customer: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&customer).Error; err != nil {
		return fmt.Errorf("customer service: delete customer: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "customer.delete",
		Resource: customer.ID,
		Result:   "success",
	})

	return nil
}

func (s *CustomerService) resolveOrganization(ctx context.Context, id, name string) (*string, error) {
	id = strings.TrimSpace(id)
	if id != "" {
		org, err := s.organizations.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrOrganizationNotFound) {
				return nil, apperrors.NewBadRequest("organization does not exist")
			}
			return nil, err
		}
		return &org.ID, nil
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	org, err := s.organizations.FindOrCreateByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return &org.ID, nil
}

func validParticipationStatus(status string) bool {
	switch status {
	case models.ParticipationActive, models.ParticipationInactive, models.ParticipationPending:
		return true
	}
	return false
}

func applyCustomerFilters(query *gorm.DB, filters CustomerFilters) *gorm.DB {
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filters.OrganizationID != "" {
		query = query.Where("organization_id = ?", filters.OrganizationID)
	}
	if filters.Status != "" {
		query = query.Where("participation_status = ?", filters.Status)
	}
	if filters.Region != "" {
		query = query.Where("region = ?", filters.Region)
	}
	if tag := strings.TrimSpace(filters.SegmentTag); tag != "" {
		query = query.Where("segment_tags LIKE ?", "%\""+tag+"\"%")
	}
	return query
}
