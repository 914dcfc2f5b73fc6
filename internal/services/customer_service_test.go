package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/betadeskhq/betadesk/internal/database/testutil"
	"github.com/betadeskhq/betadesk/internal/models"
)

func newCustomerTestServices(t *testing.T) (*CustomerService, *OrganizationService) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	orgSvc, err := NewOrganizationService(db, nil)
	require.NoError(t, err)
	customerSvc, err := NewCustomerService(db, orgSvc, nil)
	require.NoError(t, err)
	return customerSvc, orgSvc
}

func TestCustomerCreateValidatesBeforeInsert(t *testing.T) {
	svc, _ := newCustomerTestServices(t)
	ctx := context.Background()

	cases := []CreateCustomerInput{
		{FirstName: "  ", LastName: "Lovelace", Email: "ada@example.com"},
		{FirstName: "Ada", LastName: "  ", Email: "ada@example.com"},
		{FirstName: "Ada", LastName: "Lovelace", Email: "   "},
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Status: "vip"},
	}
	for _, input := range cases {
		_, err := svc.Create(ctx, input)
		require.Error(t, err)
	}

	// Rejected records never reach the database.
	_, total, err := svc.List(ctx, CustomerListOptions{})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestCustomerCreateDefaultsAndNormalises(t *testing.T) {
	svc, _ := newCustomerTestServices(t)
	ctx := context.Background()

	customer, err := svc.Create(ctx, CreateCustomerInput{
		FirstName: "  Ada ",
		LastName:  " Lovelace ",
		Email:     " Ada@Example.COM ",
	})
	require.NoError(t, err)
	require.Equal(t, "Ada", customer.FirstName)
	require.Equal(t, "Lovelace", customer.LastName)
	require.Equal(t, "ada@example.com", customer.Email)
	require.Equal(t, models.ParticipationPending, customer.ParticipationStatus)
}

func TestCustomerCreateResolvesOrganizationByName(t *testing.T) {
	svc, orgSvc := newCustomerTestServices(t)
	ctx := context.Background()

	existing, err := orgSvc.Create(ctx, CreateOrganizationInput{Name: "Globex Industries"})
	require.NoError(t, err)

	customer, err := svc.Create(ctx, CreateCustomerInput{
		FirstName:        "Ada",
		LastName:         "Lovelace",
		Email:            "ada@globex.com",
		OrganizationName: "globex",
	})
	require.NoError(t, err)
	require.NotNil(t, customer.OrganizationID)
	require.Equal(t, existing.ID, *customer.OrganizationID)

	// An unmatched name creates a fresh organisation instead of failing.
	other, err := svc.Create(ctx, CreateCustomerInput{
		FirstName:        "Grace",
		LastName:         "Hopper",
		Email:            "grace@initech.com",
		OrganizationName: "Initech",
	})
	require.NoError(t, err)
	require.NotNil(t, other.OrganizationID)
	require.NotEqual(t, existing.ID, *other.OrganizationID)
}

func TestCustomerCreateRejectsUnknownOrganizationID(t *testing.T) {
	svc, _ := newCustomerTestServices(t)

	_, err := svc.Create(context.Background(), CreateCustomerInput{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@example.com",
		OrganizationID: "00000000-0000-0000-0000-000000000000",
	})
	require.Error(t, err)
}

func TestCustomerDuplicateEmailConflicts(t *testing.T) {
	svc, _ := newCustomerTestServices(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCustomerInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateCustomerInput{FirstName: "Ada", LastName: "Byron", Email: "ADA@example.com"})
	require.Error(t, err)
}

func TestCustomerListFilters(t *testing.T) {
	svc, orgSvc := newCustomerTestServices(t)
	ctx := context.Background()

	org, err := orgSvc.Create(ctx, CreateOrganizationInput{Name: "Acme"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateCustomerInput{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@acme.com",
		OrganizationID: org.ID,
		Region:         "emea",
		Status:         models.ParticipationActive,
		SegmentTags:    []string{"power-user", "early-adopter"},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateCustomerInput{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@navy.mil",
		Region:    "amer",
		Status:    models.ParticipationInactive,
	})
	require.NoError(t, err)

	customers, total, err := svc.List(ctx, CustomerListOptions{Filters: CustomerFilters{Search: "lovelace"}})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "ada@acme.com", customers[0].Email)

	_, total, err = svc.List(ctx, CustomerListOptions{Filters: CustomerFilters{OrganizationID: org.ID}})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	_, total, err = svc.List(ctx, CustomerListOptions{Filters: CustomerFilters{Status: models.ParticipationInactive}})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	_, total, err = svc.List(ctx, CustomerListOptions{Filters: CustomerFilters{Region: "emea"}})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	_, total, err = svc.List(ctx, CustomerListOptions{Filters: CustomerFilters{SegmentTag: "power-user"}})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}

func TestCustomerUpdateAndDelete(t *testing.T) {
	svc, _ := newCustomerTestServices(t)
	ctx := context.Background()

	customer, err := svc.Create(ctx, CreateCustomerInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)

	status := models.ParticipationActive
	notes := "joined pilot cohort"
	updated, err := svc.Update(ctx, customer.ID, UpdateCustomerInput{Status: &status, Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, models.ParticipationActive, updated.ParticipationStatus)
	require.Equal(t, notes, updated.Notes)

	empty := "  "
	_, err = svc.Update(ctx, customer.ID, UpdateCustomerInput{FirstName: &empty})
	require.Error(t, err)

	require.NoError(t, svc.Delete(ctx, customer.ID))
	_, err = svc.GetByID(ctx, customer.ID)
	require.ErrorIs(t, err, ErrCustomerNotFound)
}
