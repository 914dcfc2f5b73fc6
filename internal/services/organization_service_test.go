package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/betadeskhq/betadesk/internal/database/testutil"
)

func TestOrganizationServiceLifecycle(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewOrganizationService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()

	org, err := svc.Create(ctx, CreateOrganizationInput{
		Name:        "Acme Corp",
		Description: "Enterprise design partner",
		Settings:    map[string]any{"tier": "enterprise"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, org.ID)

	retrieved, err := svc.GetByID(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", retrieved.Name)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	newDesc := "Updated description"
	updated, err := svc.Update(ctx, org.ID, UpdateOrganizationInput{Description: &newDesc})
	require.NoError(t, err)
	require.Equal(t, newDesc, updated.Description)

	require.NoError(t, svc.Delete(ctx, org.ID))

	_, err = svc.GetByID(ctx, org.ID)
	require.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestOrganizationCreateRequiresName(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewOrganizationService(db, nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateOrganizationInput{Name: "   "})
	require.Error(t, err)
}

func TestFindOrCreateByNamePrefersExactMatch(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewOrganizationService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()

	acme, err := svc.Create(ctx, CreateOrganizationInput{Name: "Acme"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateOrganizationInput{Name: "Acme Europe"})
	require.NoError(t, err)

	resolved, err := svc.FindOrCreateByName(ctx, "Acme")
	require.NoError(t, err)
	require.Equal(t, acme.ID, resolved.ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestFindOrCreateByNameFuzzyMatches(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewOrganizationService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()

	org, err := svc.Create(ctx, CreateOrganizationInput{Name: "Globex Industries"})
	require.NoError(t, err)

	resolved, err := svc.FindOrCreateByName(ctx, "globex")
	require.NoError(t, err)
	require.Equal(t, org.ID, resolved.ID)
}

func TestFindOrCreateByNameCreatesWhenNoMatch(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewOrganizationService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()

	resolved, err := svc.FindOrCreateByName(ctx, "Initech")
	require.NoError(t, err)
	require.NotEmpty(t, resolved.ID)
	require.Equal(t, "Initech", resolved.Name)

	again, err := svc.FindOrCreateByName(ctx, "Initech")
	require.NoError(t, err)
	require.Equal(t, resolved.ID, again.ID)
}
