package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/betadeskhq/betadesk/internal/database/testutil"
)

func TestSaveDraftCreatesAndRoundTrips(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewProgramService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	draft := ProgramDraft{
		Name:              "Orion Beta",
		Description:       "First external cohort",
		StartDate:         "2026-09-01",
		EndDate:           "2026-10-01",
		CustomerIDs:       []string{"c1", "c2"},
		InvitationSubject: "Join {{program_name}}",
		NDAHandling:       NDAHandlingInternal,
		Slots: []DraftSlotSpec{
			{Date: "2026-09-15", StartTime: "10:00", EndTime: "11:00", Capacity: 2},
		},
		Step: StepScheduling,
	}

	program, err := svc.SaveDraft(ctx, "", draft, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, program.ID)
	require.False(t, program.IsActive)
	require.Equal(t, "Orion Beta", program.Name)
	require.Equal(t, "First external cohort", program.Description)
	require.NotNil(t, program.StartDate)
	require.Equal(t, 2026, program.StartDate.Year())
	require.NotNil(t, program.CreatedByID)
	require.Equal(t, "user-1", *program.CreatedByID)

	// The stored draft deserializes back to exactly what was saved.
	_, restored, err := svc.Draft(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, draft, *restored)
}

func TestSaveDraftRequiresName(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewProgramService(db, nil)
	require.NoError(t, err)

	_, err = svc.SaveDraft(context.Background(), "", ProgramDraft{Name: "  "}, "")
	require.Error(t, err)
}

func TestSaveDraftRejectsMalformedDates(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewProgramService(db, nil)
	require.NoError(t, err)

	_, err = svc.SaveDraft(context.Background(), "", ProgramDraft{Name: "Orion", StartDate: "09/01/2026"}, "")
	require.Error(t, err)
}

func TestSaveDraftUpdatesExistingProgram(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewProgramService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	program, err := svc.SaveDraft(ctx, "", ProgramDraft{Name: "Orion Beta"}, "")
	require.NoError(t, err)

	updated, err := svc.SaveDraft(ctx, program.ID, ProgramDraft{
		Name:        "Orion Beta v2",
		Description: "Renamed mid-wizard",
		Step:        StepInvitation,
	}, "")
	require.NoError(t, err)
	require.Equal(t, program.ID, updated.ID)
	require.Equal(t, "Orion Beta v2", updated.Name)

	_, restored, err := svc.Draft(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, StepInvitation, restored.Step)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestDraftFallsBackToProgramColumns(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewProgramService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	program, err := svc.SaveDraft(ctx, "", ProgramDraft{Name: "Orion Beta", Description: "cohort"}, "")
	require.NoError(t, err)

	// Blank the serialized draft to simulate a program created outside the wizard.
	require.NoError(t, db.Model(program).Update("draft", nil).Error)

	_, restored, err := svc.Draft(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, "Orion Beta", restored.Name)
	require.Equal(t, "cohort", restored.Description)
}

func TestProgramUpdateAndMarkActive(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewProgramService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	program, err := svc.SaveDraft(ctx, "", ProgramDraft{Name: "Orion Beta"}, "")
	require.NoError(t, err)

	end := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	desc := "extended run"
	updated, err := svc.Update(ctx, program.ID, UpdateProgramInput{Description: &desc, EndDate: &end})
	require.NoError(t, err)
	require.Equal(t, desc, updated.Description)
	require.NotNil(t, updated.EndDate)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Empty(t, active)

	require.NoError(t, svc.MarkActive(ctx, program.ID))

	active, err = svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, svc.Delete(ctx, program.ID))
	_, err = svc.GetByID(ctx, program.ID)
	require.ErrorIs(t, err, ErrProgramNotFound)
}
