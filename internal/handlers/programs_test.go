package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/betadeskhq/betadesk/internal/database/testutil"
	"github.com/betadeskhq/betadesk/internal/mail"
	"github.com/betadeskhq/betadesk/internal/services"
)

// recordingSender satisfies mail.Sender and captures what was sent.
type recordingSender struct {
	sent []mail.OutboundEmail
}

func (r *recordingSender) Channel() string { return "smtp" }

func (r *recordingSender) Send(_ context.Context, email mail.OutboundEmail) error {
	r.sent = append(r.sent, email)
	return nil
}

type programHandlerFixture struct {
	router    *gin.Engine
	sender    *recordingSender
	programID string
}

func newProgramHandlerFixture(t *testing.T) *programHandlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	orgSvc, err := services.NewOrganizationService(db, nil)
	require.NoError(t, err)
	customerSvc, err := services.NewCustomerService(db, orgSvc, nil)
	require.NoError(t, err)
	emailLogSvc, err := services.NewEmailLogService(db)
	require.NoError(t, err)
	invitationSvc, err := services.NewInvitationService(db, emailLogSvc, nil)
	require.NoError(t, err)
	ndaSvc, err := services.NewNDAService(db, nil)
	require.NoError(t, err)
	slotSvc, err := services.NewSlotService(db, nil)
	require.NoError(t, err)
	programSvc, err := services.NewProgramService(db, nil)
	require.NoError(t, err)
	wizardSvc, err := services.NewWizardService(programSvc, invitationSvc, ndaSvc, slotSvc, nil)
	require.NoError(t, err)

	ctx := context.Background()
	ada, err := customerSvc.Create(ctx, services.CreateCustomerInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)

	name := "Orion Beta"
	subject := "Join us"
	content := "Hi {{first_name}}"
	program, _, err := wizardSvc.SaveDraft(ctx, "", services.DraftPatch{
		Name:              &name,
		CustomerIDs:       []string{ada.ID},
		InvitationSubject: &subject,
		InvitationContent: &content,
	}, "")
	require.NoError(t, err)

	sender := &recordingSender{}
	handler := NewProgramHandler(programSvc, wizardSvc, NewSenderFactory(sender, nil, nil, nil))

	router := gin.New()
	router.POST("/programs/:id/steps/:step/send", handler.SendStep)
	router.POST("/programs/:id/launch", handler.Launch)

	return &programHandlerFixture{router: router, sender: sender, programID: program.ID}
}

func TestLaunchAcceptsEmptyBody(t *testing.T) {
	fx := newProgramHandlerFixture(t)

	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/programs/"+fx.programID+"/launch", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, fx.sender.sent, 1)
}

func TestSendStepAcceptsEmptyBody(t *testing.T) {
	fx := newProgramHandlerFixture(t)

	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/programs/"+fx.programID+"/steps/invitation/send", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, fx.sender.sent, 1)
}

func TestLaunchStillValidatesProvidedBody(t *testing.T) {
	fx := newProgramHandlerFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/programs/"+fx.programID+"/launch",
		strings.NewReader(`{"channel":"carrier-pigeon"}`))
	req.Header.Set("Content-Type", "application/json")
	fx.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, fx.sender.sent)
}
