package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/betadeskhq/betadesk/internal/app"
	iauth "github.com/betadeskhq/betadesk/internal/auth"
	"github.com/betadeskhq/betadesk/internal/database/testutil"
)

func newRouterFixture(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret", Issuer: "betadesk"})
	require.NoError(t, err)
	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{})
	require.NoError(t, err)
	localAuth, err := iauth.NewLocalAuthenticator(db, iauth.LocalConfig{})
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Vault.EncryptionKey = "0123456789abcdef0123456789abcdef"

	router, err := NewRouter(db, jwtSvc, cfg, sessionSvc, localAuth, Integrations{})
	require.NoError(t, err)
	return router, db
}

func TestNewRouterRejectsBadEncryptionKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)
	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{})
	require.NoError(t, err)
	localAuth, err := iauth.NewLocalAuthenticator(db, iauth.LocalConfig{})
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Vault.EncryptionKey = "too-short"

	_, err = NewRouter(db, jwtSvc, cfg, sessionSvc, localAuth, Integrations{})
	require.Error(t, err)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router, _ := newRouterFixture(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Status   string `json:"status"`
			Database string `json:"database"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "ok", body.Data.Status)
	require.Equal(t, "ok", body.Data.Database)
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	router, _ := newRouterFixture(t)

	for _, path := range []string{"/api/customers", "/api/programs", "/api/email-logs", "/api/audit"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRouterPublicBookingRoutes(t *testing.T) {
	router, _ := newRouterFixture(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/public/programs", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouterNotFoundEnvelope(t *testing.T) {
	router, _ := newRouterFixture(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
}
