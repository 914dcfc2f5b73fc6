package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/betadeskhq/betadesk/internal/database/testutil"
	"github.com/betadeskhq/betadesk/internal/models"
)

func seedExpiryFixtures(t *testing.T, db *gorm.DB, now time.Time) {
	t.Helper()

	program := &models.BetaProgram{Name: "Orion Beta"}
	require.NoError(t, db.Create(program).Error)

	customer := &models.Customer{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	require.NoError(t, db.Create(customer).Error)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	invitations := []models.BetaInvitation{
		{CustomerID: customer.ID, BetaProgramID: program.ID, Token: "tok-overdue", Status: models.InvitationSent, ExpiresAt: &past},
		{CustomerID: customer.ID, BetaProgramID: program.ID, Token: "tok-current", Status: models.InvitationSent, ExpiresAt: &future},
		{CustomerID: customer.ID, BetaProgramID: program.ID, Token: "tok-responded", Status: models.InvitationResponded, ExpiresAt: &past},
	}
	for i := range invitations {
		require.NoError(t, db.Create(&invitations[i]).Error)
	}

	ndas := []models.NDADocument{
		{CustomerID: customer.ID, BetaProgramID: program.ID, Title: "NDA overdue", Status: models.NDAPending, ExpiresAt: &past},
		{CustomerID: customer.ID, BetaProgramID: program.ID, Title: "NDA current", Status: models.NDAPending, ExpiresAt: &future},
		{CustomerID: customer.ID, BetaProgramID: program.ID, Title: "NDA signed", Status: models.NDASigned, ExpiresAt: &past},
	}
	for i := range ndas {
		require.NoError(t, db.Create(&ndas[i]).Error)
	}
}

func TestExpireOverdueTransitionsOnlyOverdueRecords(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	seedExpiryFixtures(t, db, now)

	stats, err := ExpireOverdue(context.Background(), db, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Invitations)
	require.EqualValues(t, 1, stats.NDARequests)

	var invitation models.BetaInvitation
	require.NoError(t, db.Where("token = ?", "tok-overdue").First(&invitation).Error)
	require.Equal(t, models.InvitationExpired, invitation.Status)

	invitation = models.BetaInvitation{}
	require.NoError(t, db.Where("token = ?", "tok-current").First(&invitation).Error)
	require.Equal(t, models.InvitationSent, invitation.Status)

	invitation = models.BetaInvitation{}
	require.NoError(t, db.Where("token = ?", "tok-responded").First(&invitation).Error)
	require.Equal(t, models.InvitationResponded, invitation.Status)

	var nda models.NDADocument
	require.NoError(t, db.Where("title = ?", "NDA overdue").First(&nda).Error)
	require.Equal(t, models.NDAExpired, nda.Status)

	nda = models.NDADocument{}
	require.NoError(t, db.Where("title = ?", "NDA signed").First(&nda).Error)
	require.Equal(t, models.NDASigned, nda.Status)

	// A second sweep finds nothing left to expire.
	stats, err = ExpireOverdue(context.Background(), db, now)
	require.NoError(t, err)
	require.Zero(t, stats.Invitations)
	require.Zero(t, stats.NDARequests)
}

func TestExpireOverdueRequiresDB(t *testing.T) {
	_, err := ExpireOverdue(context.Background(), nil, time.Now())
	require.Error(t, err)
}

func TestRunOnceSweepsExpiry(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	seedExpiryFixtures(t, db, now)

	cleaner := NewCleaner(db, nil, nil, WithNow(func() time.Time { return now }))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var expired int64
	require.NoError(t, db.Model(&models.BetaInvitation{}).
		Where("status = ?", models.InvitationExpired).Count(&expired).Error)
	require.EqualValues(t, 1, expired)
}
