package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/betadeskhq/betadesk/internal/database/testutil"
	"github.com/betadeskhq/betadesk/internal/models"
)

type wizardFixture struct {
	db        *gorm.DB
	wizard    *WizardService
	programs  *ProgramService
	slots     *SlotService
	ndas      *NDAService
	customers *CustomerService
	ada       *models.Customer
	grace     *models.Customer
}

func newWizardFixture(t *testing.T) *wizardFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	orgSvc, err := NewOrganizationService(db, nil)
	require.NoError(t, err)
	customerSvc, err := NewCustomerService(db, orgSvc, nil)
	require.NoError(t, err)
	emailLogSvc, err := NewEmailLogService(db)
	require.NoError(t, err)
	invitationSvc, err := NewInvitationService(db, emailLogSvc, nil)
	require.NoError(t, err)
	ndaSvc, err := NewNDAService(db, nil)
	require.NoError(t, err)
	slotSvc, err := NewSlotService(db, nil)
	require.NoError(t, err)
	programSvc, err := NewProgramService(db, nil)
	require.NoError(t, err)
	wizardSvc, err := NewWizardService(programSvc, invitationSvc, ndaSvc, slotSvc, nil)
	require.NoError(t, err)

	ctx := context.Background()
	ada, err := customerSvc.Create(ctx, CreateCustomerInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)
	grace, err := customerSvc.Create(ctx, CreateCustomerInput{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"})
	require.NoError(t, err)

	return &wizardFixture{
		db:        db,
		wizard:    wizardSvc,
		programs:  programSvc,
		slots:     slotSvc,
		ndas:      ndaSvc,
		customers: customerSvc,
		ada:       ada,
		grace:     grace,
	}
}

func TestWizardSaveDraftCreatesAndPatches(t *testing.T) {
	fx := newWizardFixture(t)
	ctx := context.Background()

	name := "Orion Beta"
	program, draft, err := fx.wizard.SaveDraft(ctx, "", DraftPatch{Name: &name}, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, program.ID)
	require.Equal(t, "Orion Beta", draft.Name)

	subject := "Join {{program_name}}"
	step := StepInvitation
	_, draft, err = fx.wizard.SaveDraft(ctx, program.ID, DraftPatch{
		CustomerIDs:       []string{fx.ada.ID},
		InvitationSubject: &subject,
		Step:              &step,
	}, "")
	require.NoError(t, err)
	require.Equal(t, "Orion Beta", draft.Name) // untouched by the second patch
	require.Equal(t, []string{fx.ada.ID}, draft.CustomerIDs)
	require.Equal(t, StepInvitation, draft.Step)

	// The merged draft survives a reload.
	_, restored, err := fx.programs.Draft(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, draft, restored)
}

func TestSendStepInvitationRequiresTesters(t *testing.T) {
	fx := newWizardFixture(t)
	ctx := context.Background()

	name := "Orion Beta"
	program, _, err := fx.wizard.SaveDraft(ctx, "", DraftPatch{Name: &name}, "")
	require.NoError(t, err)

	_, err = fx.wizard.SendStep(ctx, program.ID, StepInvitation, &fakeSender{})
	require.Error(t, err)
}

func TestSendStepInvitationSendsAndMarksDraft(t *testing.T) {
	fx := newWizardFixture(t)
	ctx := context.Background()

	name := "Orion Beta"
	subject := "Join us"
	content := "Hi {{first_name}}"
	program, _, err := fx.wizard.SaveDraft(ctx, "", DraftPatch{
		Name:              &name,
		CustomerIDs:       []string{fx.ada.ID, fx.grace.ID},
		InvitationSubject: &subject,
		InvitationContent: &content,
	}, "")
	require.NoError(t, err)

	sender := &fakeSender{}
	result, err := fx.wizard.SendStep(ctx, program.ID, StepInvitation, sender)
	require.NoError(t, err)
	require.Equal(t, StepInvitation, result.Step)
	require.NotNil(t, result.Invitations)
	require.Equal(t, 2, result.Invitations.Sent)
	require.Len(t, sender.sent, 2)

	_, draft, err := fx.programs.Draft(ctx, program.ID)
	require.NoError(t, err)
	require.True(t, draft.InvitationsSent)
}

func TestSendStepNDACreatesDocuments(t *testing.T) {
	fx := newWizardFixture(t)
	ctx := context.Background()

	name := "Orion Beta"
	title := "Mutual NDA"
	program, _, err := fx.wizard.SaveDraft(ctx, "", DraftPatch{
		Name:        &name,
		CustomerIDs: []string{fx.ada.ID},
		NDATitle:    &title,
	}, "")
	require.NoError(t, err)

	result, err := fx.wizard.SendStep(ctx, program.ID, StepNDA, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.NDACount)

	documents, err := fx.ndas.ListForProgram(ctx, program.ID)
	require.NoError(t, err)
	require.Len(t, documents, 1)

	_, draft, err := fx.programs.Draft(ctx, program.ID)
	require.NoError(t, err)
	require.True(t, draft.NDAsSent)
}

func TestSendStepSchedulingCreatesSlotsOnce(t *testing.T) {
	fx := newWizardFixture(t)
	ctx := context.Background()

	name := "Orion Beta"
	program, _, err := fx.wizard.SaveDraft(ctx, "", DraftPatch{
		Name: &name,
		Slots: []DraftSlotSpec{
			{Date: "2026-09-15", StartTime: "10:00", EndTime: "11:00", Capacity: 2},
			{Date: "2026-09-16", StartTime: "14:00", EndTime: "15:00"},
		},
	}, "")
	require.NoError(t, err)

	result, err := fx.wizard.SendStep(ctx, program.ID, StepScheduling, nil)
	require.NoError(t, err)
	require.Equal(t, 2, result.SlotCount)

	slots, err := fx.slots.ListForProgram(ctx, program.ID)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	// The draft slot list is cleared so launch does not create duplicates.
	_, draft, err := fx.programs.Draft(ctx, program.ID)
	require.NoError(t, err)
	require.True(t, draft.SchedulingSent)
	require.Empty(t, draft.Slots)
}

func TestSendStepRejectsUnknownStep(t *testing.T) {
	fx := newWizardFixture(t)
	ctx := context.Background()

	name := "Orion Beta"
	program, _, err := fx.wizard.SaveDraft(ctx, "", DraftPatch{Name: &name}, "")
	require.NoError(t, err)

	_, err = fx.wizard.SendStep(ctx, program.ID, StepTesters, nil)
	require.Error(t, err)
	_, err = fx.wizard.SendStep(ctx, program.ID, "publish", nil)
	require.Error(t, err)
}

func TestLaunchRequiresTesters(t *testing.T) {
	fx := newWizardFixture(t)
	ctx := context.Background()

	name := "Orion Beta"
	program, _, err := fx.wizard.SaveDraft(ctx, "", DraftPatch{Name: &name}, "")
	require.NoError(t, err)

	_, err = fx.wizard.Launch(ctx, program.ID, &fakeSender{})
	require.Error(t, err)
}

func TestLaunchSendsInvitationsAndActivates(t *testing.T) {
	fx := newWizardFixture(t)
	ctx := context.Background()

	name := "Orion Beta"
	subject := "Join us"
	content := "Hello {{first_name}}"
	program, _, err := fx.wizard.SaveDraft(ctx, "", DraftPatch{
		Name:              &name,
		CustomerIDs:       []string{fx.ada.ID},
		InvitationSubject: &subject,
		InvitationContent: &content,
		Slots: []DraftSlotSpec{
			{Date: "2026-09-15", StartTime: "10:00", EndTime: "11:00"},
		},
	}, "")
	require.NoError(t, err)

	sender := &fakeSender{}
	launched, err := fx.wizard.Launch(ctx, program.ID, sender)
	require.NoError(t, err)
	require.True(t, launched.IsActive)
	require.Len(t, sender.sent, 1)

	slots, err := fx.slots.ListForProgram(ctx, program.ID)
	require.NoError(t, err)
	require.Len(t, slots, 1)

	_, draft, err := fx.programs.Draft(ctx, program.ID)
	require.NoError(t, err)
	require.True(t, draft.InvitationsSent)
	require.Equal(t, StepConfirm, draft.Step)

	// Launching twice conflicts.
	_, err = fx.wizard.Launch(ctx, program.ID, sender)
	require.Error(t, err)
}

func TestLaunchSkipsAlreadySentInvitations(t *testing.T) {
	fx := newWizardFixture(t)
	ctx := context.Background()

	name := "Orion Beta"
	subject := "Join us"
	content := "Hello"
	program, _, err := fx.wizard.SaveDraft(ctx, "", DraftPatch{
		Name:              &name,
		CustomerIDs:       []string{fx.ada.ID},
		InvitationSubject: &subject,
		InvitationContent: &content,
	}, "")
	require.NoError(t, err)

	sender := &fakeSender{}
	_, err = fx.wizard.SendStep(ctx, program.ID, StepInvitation, sender)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	// Launch with no sender succeeds because invitations already went out.
	launched, err := fx.wizard.Launch(ctx, program.ID, nil)
	require.NoError(t, err)
	require.True(t, launched.IsActive)
	require.Len(t, sender.sent, 1)
}
