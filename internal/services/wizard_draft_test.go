package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyPatchMergesOnlyProvidedFields(t *testing.T) {
	draft := ProgramDraft{
		Name:        "Orion Beta",
		Description: "First cohort",
		CustomerIDs: []string{"a", "b"},
		Step:        StepTesters,
	}

	name := "Orion Beta v2"
	step := StepInvitation
	subject := "You're invited"

	patched := ApplyPatch(draft, DraftPatch{
		Name:              &name,
		Step:              &step,
		InvitationSubject: &subject,
	})

	require.Equal(t, "Orion Beta v2", patched.Name)
	require.Equal(t, "First cohort", patched.Description)
	require.Equal(t, []string{"a", "b"}, patched.CustomerIDs)
	require.Equal(t, StepInvitation, patched.Step)
	require.Equal(t, "You're invited", patched.InvitationSubject)

	// Original draft is untouched.
	require.Equal(t, "Orion Beta", draft.Name)
	require.Equal(t, StepTesters, draft.Step)
}

func TestApplyPatchIsIdempotent(t *testing.T) {
	name := "Orion Beta"
	expiry := 7
	patch := DraftPatch{
		Name:          &name,
		CustomerIDs:   []string{"x", "y", "x"},
		NDAExpiryDays: &expiry,
		Slots: []DraftSlotSpec{
			{Date: "2026-09-15", StartTime: "10:00", EndTime: "11:00", Capacity: 2},
		},
	}

	once := ApplyPatch(ProgramDraft{}, patch)
	twice := ApplyPatch(once, patch)

	require.Equal(t, once, twice)
}

func TestApplyPatchDeduplicatesCustomerIDs(t *testing.T) {
	patched := ApplyPatch(ProgramDraft{}, DraftPatch{
		CustomerIDs: []string{"a", " b ", "a", ""},
	})

	require.Equal(t, []string{"a", "b"}, patched.CustomerIDs)
}

func TestApplyPatchCopiesSlots(t *testing.T) {
	patch := DraftPatch{
		Slots: []DraftSlotSpec{{Date: "2026-09-15", StartTime: "10:00", EndTime: "11:00"}},
	}

	patched := ApplyPatch(ProgramDraft{}, patch)

	patch.Slots[0].Date = "2026-10-01"
	require.Equal(t, "2026-09-15", patched.Slots[0].Date)
}
