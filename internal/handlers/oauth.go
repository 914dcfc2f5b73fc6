package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/betadeskhq/betadesk/internal/oauth"
	"github.com/betadeskhq/betadesk/internal/services"
	"github.com/betadeskhq/betadesk/pkg/errors"
	"github.com/betadeskhq/betadesk/pkg/response"
)

// OAuthHandler drives the Google consent flow for Gmail sending and stores
// the resulting credentials against the signed-in user.
type OAuthHandler struct {
	google    *oauth.GoogleFlow
	accounts  *services.MailAccountService
	publicURL string
}

func NewOAuthHandler(google *oauth.GoogleFlow, accounts *services.MailAccountService, publicURL string) *OAuthHandler {
	return &OAuthHandler{google: google, accounts: accounts, publicURL: strings.TrimRight(publicURL, "/")}
}

// GET /api/oauth/google/authorize
func (h *OAuthHandler) Authorize(c *gin.Context) {
	if h.google == nil {
		response.Error(c, errors.NewBadRequest("google integration is not configured"))
		return
	}

	url, err := h.google.AuthorizeURL(currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"authorize_url": url})
}

// GET /api/oauth/google/callback
//
// Google redirects the browser here, so on success we bounce back to the
// frontend settings page rather than returning JSON.
func (h *OAuthHandler) Callback(c *gin.Context) {
	if h.google == nil {
		response.Error(c, errors.NewBadRequest("google integration is not configured"))
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		h.redirect(c, "error="+errParam)
		return
	}

	userID, err := h.google.ConsumeState(c.Query("state"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	ctx := requestContext(c)
	token, email, err := h.google.Exchange(ctx, c.Query("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if _, err := h.accounts.Upsert(ctx, services.UpsertMailAccountInput{
		UserID:   userID,
		Provider: "google",
		Email:    email,
		Token:    token,
		Scope:    strings.Join(h.google.Scopes(), " "),
	}); err != nil {
		respondServiceError(c, err)
		return
	}

	h.redirect(c, "connected=google")
}

// DELETE /api/oauth/google
func (h *OAuthHandler) Disconnect(c *gin.Context) {
	if err := h.accounts.Delete(requestContext(c), currentUserID(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"disconnected": true})
}

func (h *OAuthHandler) redirect(c *gin.Context, query string) {
	if h.publicURL == "" {
		response.Success(c, http.StatusOK, gin.H{"result": query})
		return
	}
	c.Redirect(http.StatusFound, h.publicURL+"/settings/mail?"+query)
}
