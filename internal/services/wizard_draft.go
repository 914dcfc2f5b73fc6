package services

// Wizard step identifiers, in flow order.
const (
	StepTesters    = "testers"
	StepInvitation = "invitation"
	StepNDA        = "nda"
	StepScheduling = "scheduling"
	StepConfirm    = "confirm"
)

// NDA handling modes selected in the wizard.
const (
	NDAHandlingInternal = "internal"
	NDAHandlingExternal = "external"
)

// DraftSlotSpec describes one calendar slot to create at launch.
type DraftSlotSpec struct {
	Date        string `json:"date" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
	Capacity    int    `json:"capacity"`
	MeetingLink string `json:"meeting_link,omitempty"`
}

// ProgramDraft is the serialized wizard state stored on an unlaunched program.
// It covers every step of the campaign creation flow so a half-finished
// campaign can be resumed exactly where it was left.
type ProgramDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`

	CustomerIDs []string `json:"customer_ids,omitempty"`

	InvitationSubject string `json:"invitation_subject,omitempty"`
	InvitationContent string `json:"invitation_content,omitempty"`
	InvitationsSent   bool   `json:"invitations_sent,omitempty"`

	NDAHandling     string `json:"nda_handling,omitempty"`
	NDATitle        string `json:"nda_title,omitempty"`
	NDAContent      string `json:"nda_content,omitempty"`
	NDAInstructions string `json:"nda_instructions,omitempty"`
	NDAExpiryDays   int    `json:"nda_expiry_days,omitempty"`
	NDAsSent        bool   `json:"ndas_sent,omitempty"`

	Slots             []DraftSlotSpec `json:"slots,omitempty"`
	SchedulingSubject string          `json:"scheduling_subject,omitempty"`
	SchedulingContent string          `json:"scheduling_content,omitempty"`
	SchedulingSent    bool            `json:"scheduling_sent,omitempty"`

	Step string `json:"step,omitempty"`
}

// DraftPatch carries partial draft updates. Nil pointers and nil slices leave
// the corresponding field untouched.
type DraftPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`

	CustomerIDs []string `json:"customer_ids,omitempty"`

	InvitationSubject *string `json:"invitation_subject,omitempty"`
	InvitationContent *string `json:"invitation_content,omitempty"`

	NDAHandling     *string `json:"nda_handling,omitempty"`
	NDATitle        *string `json:"nda_title,omitempty"`
	NDAContent      *string `json:"nda_content,omitempty"`
	NDAInstructions *string `json:"nda_instructions,omitempty"`
	NDAExpiryDays   *int    `json:"nda_expiry_days,omitempty"`

	Slots             []DraftSlotSpec `json:"slots,omitempty"`
	SchedulingSubject *string         `json:"scheduling_subject,omitempty"`
	SchedulingContent *string         `json:"scheduling_content,omitempty"`

	Step *string `json:"step,omitempty"`
}

// ApplyPatch merges a patch into a draft and returns the result. It is a pure
// shallow merge: applying the same patch twice yields the same draft as once.
func ApplyPatch(draft ProgramDraft, patch DraftPatch) ProgramDraft {
	if patch.Name != nil {
		draft.Name = *patch.Name
	}
	if patch.Description != nil {
		draft.Description = *patch.Description
	}
	if patch.StartDate != nil {
		draft.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		draft.EndDate = *patch.EndDate
	}
	if patch.CustomerIDs != nil {
		draft.CustomerIDs = normaliseIDs(patch.CustomerIDs)
	}
	if patch.InvitationSubject != nil {
		draft.InvitationSubject = *patch.InvitationSubject
	}
	if patch.InvitationContent != nil {
		draft.InvitationContent = *patch.InvitationContent
	}
	if patch.NDAHandling != nil {
		draft.NDAHandling = *patch.NDAHandling
	}
	if patch.NDATitle != nil {
		draft.NDATitle = *patch.NDATitle
	}
	if patch.NDAContent != nil {
		draft.NDAContent = *patch.NDAContent
	}
	if patch.NDAInstructions != nil {
		draft.NDAInstructions = *patch.NDAInstructions
	}
	if patch.NDAExpiryDays != nil {
		draft.NDAExpiryDays = *patch.NDAExpiryDays
	}
	if patch.Slots != nil {
		draft.Slots = append([]DraftSlotSpec(nil), patch.Slots...)
	}
	if patch.SchedulingSubject != nil {
		draft.SchedulingSubject = *patch.SchedulingSubject
	}
	if patch.SchedulingContent != nil {
		draft.SchedulingContent = *patch.SchedulingContent
	}
	if patch.Step != nil {
		draft.Step = *patch.Step
	}
	return draft
}
