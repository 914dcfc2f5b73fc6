package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/betadeskhq/betadesk/internal/mail"
	"github.com/betadeskhq/betadesk/internal/models"
	apperrors "github.com/betadeskhq/betadesk/pkg/errors"
)

// StepSendResult reports what a wizard step send accomplished.
type StepSendResult struct {
	Step        string       `json:"step"`
	Invitations *BatchResult `json:"invitations,omitempty"`
	NDACount    int          `json:"nda_count,omitempty"`
	SlotCount   int          `json:"slot_count,omitempty"`
}

// WizardService drives the campaign creation flow: incremental draft saves,
// per-step send actions, and the final launch.
type WizardService struct {
	programs     *ProgramService
	invitations  *InvitationService
	ndas         *NDAService
	slots        *SlotService
	auditService *AuditService
}

// NewWizardService constructs a WizardService instance.
func NewWizardService(programs *ProgramService, invitations *InvitationService, ndas *NDAService, slots *SlotService, auditService *AuditService) (*WizardService, error) {
	if programs == nil {
		return nil, errors.New("wizard service: program service is required")
	}
	if invitations == nil {
		return nil, errors.New("wizard service: invitation service is required")
	}
	if ndas == nil {
		return nil, errors.New("wizard service: nda service is required")
	}
	if slots == nil {
		return nil, errors.New("wizard service: slot service is required")
	}
	return &WizardService{
		programs:     programs,
		invitations:  invitations,
		ndas:         ndas,
		slots:        slots,
		auditService: auditService,
	}, nil
}

// SaveDraft applies a patch to the stored draft and persists the result. With
// an empty program id a new draft program is created.
func (s *WizardService) SaveDraft(ctx context.Context, programID string, patch DraftPatch, createdByID string) (*models.BetaProgram, *ProgramDraft, error) {
	ctx = ensureContext(ctx)

	draft := ProgramDraft{}
	if strings.TrimSpace(programID) != "" {
		_, existing, err := s.programs.Draft(ctx, programID)
		if err != nil {
			return nil, nil, err
		}
		draft = *existing
	}

	draft = ApplyPatch(draft, patch)

	program, err := s.programs.SaveDraft(ctx, programID, draft, createdByID)
	if err != nil {
		return nil, nil, err
	}

	return program, &draft, nil
}

// SendStep executes the send-now action for a wizard step: invitations go out,
// NDA documents are created, or slot rows are materialised. The updated draft
// records that the step completed so re-entering the wizard shows it done.
func (s *WizardService) SendStep(ctx context.Context, programID, step string, sender mail.Sender) (*StepSendResult, error) {
	ctx = ensureContext(ctx)

	program, draft, err := s.programs.Draft(ctx, programID)
	if err != nil {
		return nil, err
	}

	result := &StepSendResult{Step: step}

	switch step {
	case StepInvitation:
		if len(draft.CustomerIDs) == 0 {
			return nil, apperrors.NewBadRequest("select at least one tester before sending invitations")
		}
		batch, err := s.invitations.SendBatch(ctx, SendBatchInput{
			ProgramID:   program.ID,
			CustomerIDs: draft.CustomerIDs,
			Subject:     draft.InvitationSubject,
			Content:     draft.InvitationContent,
			Sender:      sender,
		})
		if batch != nil {
			result.Invitations = batch
		}
		if err != nil {
			return result, err
		}
		draft.InvitationsSent = true

	case StepNDA:
		documents, err := s.ndas.CreateForProgram(ctx, CreateNDAInput{
			ProgramID:    program.ID,
			CustomerIDs:  draft.CustomerIDs,
			Handling:     draft.NDAHandling,
			Title:        draft.NDATitle,
			Content:      draft.NDAContent,
			Instructions: draft.NDAInstructions,
			ExpiryDays:   draft.NDAExpiryDays,
		})
		if err != nil {
			return nil, err
		}
		result.NDACount = len(documents)
		draft.NDAsSent = true

	case StepScheduling:
		slots, err := s.slots.CreateForProgram(ctx, program.ID, draft.Slots)
		if err != nil {
			return nil, err
		}
		result.SlotCount = len(slots)
		draft.SchedulingSent = true
		draft.Slots = nil

	default:
		return nil, apperrors.NewBadRequest(fmt.Sprintf("step %q has no send action", step))
	}

	if _, err := s.programs.SaveDraft(ctx, program.ID, *draft, ""); err != nil {
		return result, err
	}

	return result, nil
}

// Launch finalises a draft program: it requires at least one selected tester,
// sends any invitations not yet sent, creates remaining slot rows, and flips
// the program active.
func (s *WizardService) Launch(ctx context.Context, programID string, sender mail.Sender) (*models.BetaProgram, error) {
	ctx = ensureContext(ctx)

	program, draft, err := s.programs.Draft(ctx, programID)
	if err != nil {
		return nil, err
	}
	if program.IsActive {
		return nil, apperrors.NewConflict("program is already launched")
	}
	if len(draft.CustomerIDs) == 0 {
		return nil, apperrors.NewBadRequest("a program needs at least one tester to launch")
	}

	if !draft.InvitationsSent {
		if sender == nil {
			return nil, apperrors.NewBadRequest("an email channel is required to send launch invitations")
		}
		if _, err := s.invitations.SendBatch(ctx, SendBatchInput{
			ProgramID:   program.ID,
			CustomerIDs: draft.CustomerIDs,
			Subject:     draft.InvitationSubject,
			Content:     draft.InvitationContent,
			Sender:      sender,
		}); err != nil {
			return nil, err
		}
		draft.InvitationsSent = true
	}

	if len(draft.Slots) > 0 {
		if _, err := s.slots.CreateForProgram(ctx, program.ID, draft.Slots); err != nil {
			return nil, err
		}
		draft.SchedulingSent = true
		draft.Slots = nil
	}

	draft.Step = StepConfirm
	if _, err := s.programs.SaveDraft(ctx, program.ID, *draft, ""); err != nil {
		return nil, err
	}

	if err := s.programs.MarkActive(ctx, program.ID); err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "program.launch",
		Resource: program.ID,
		Result:   "success",
		Metadata: map[string]any{"testers": len(draft.CustomerIDs)},
	})

	return s.programs.GetByID(ctx, programID)
}
