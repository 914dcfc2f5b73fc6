package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/betadeskhq/betadesk/internal/database/testutil"
	"github.com/betadeskhq/betadesk/internal/models"
)

func TestTemplateCreateTracksPlaceholders(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewTemplateService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	tmpl, err := svc.Create(ctx, CreateTemplateInput{
		Name:    "Beta invite",
		Type:    models.TemplateInvitation,
		Subject: "Join {{program_name}}",
		Content: "Hi {{first_name}}, we saved you a seat.",
	})
	require.NoError(t, err)
	require.Equal(t, models.TemplateInvitation, tmpl.Type)
	require.JSONEq(t, `["program_name","first_name"]`, string(tmpl.Variables))
}

func TestTemplateCreateValidates(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewTemplateService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.Create(ctx, CreateTemplateInput{Subject: "No name"})
	require.Error(t, err)
	_, err = svc.Create(ctx, CreateTemplateInput{Name: "No subject"})
	require.Error(t, err)
	_, err = svc.Create(ctx, CreateTemplateInput{Name: "Bad type", Subject: "s", Type: "newsletter"})
	require.Error(t, err)
}

func TestTemplateRender(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewTemplateService(db, nil)
	require.NoError(t, err)

	tmpl, err := svc.Create(context.Background(), CreateTemplateInput{
		Name:    "Beta invite",
		Subject: "Join {{program_name}}",
		Content: "Hi {{first_name}}!",
	})
	require.NoError(t, err)

	subject, content := svc.Render(tmpl, map[string]string{
		"program_name": "Orion Beta",
		"first_name":   "Ada",
	})
	require.Equal(t, "Join Orion Beta", subject)
	require.Equal(t, "Hi Ada!", content)
}

func TestTemplateUpdateRefreshesVariables(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewTemplateService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	tmpl, err := svc.Create(ctx, CreateTemplateInput{Name: "Invite", Subject: "Hello {{first_name}}"})
	require.NoError(t, err)

	subject := "Welcome to {{program_name}}"
	updated, err := svc.Update(ctx, tmpl.ID, UpdateTemplateInput{Subject: &subject})
	require.NoError(t, err)
	require.Equal(t, subject, updated.Subject)
	require.JSONEq(t, `["program_name"]`, string(updated.Variables))
}

func TestTemplateGetByTypePrefersOldest(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewTemplateService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := svc.Create(ctx, CreateTemplateInput{Name: "Default", Type: models.TemplateNDA, Subject: "NDA"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateTemplateInput{Name: "Custom", Type: models.TemplateNDA, Subject: "NDA v2"})
	require.NoError(t, err)

	got, err := svc.GetByType(ctx, models.TemplateNDA)
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID)

	_, err = svc.GetByType(ctx, models.TemplateScheduling)
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplateDelete(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewTemplateService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	tmpl, err := svc.Create(ctx, CreateTemplateInput{Name: "Invite", Subject: "Hello"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, tmpl.ID))
	_, err = svc.GetByID(ctx, tmpl.ID)
	require.ErrorIs(t, err, ErrTemplateNotFound)
}
