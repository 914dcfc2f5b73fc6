package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/betadeskhq/betadesk/internal/ai"
	"github.com/betadeskhq/betadesk/internal/app"
	iauth "github.com/betadeskhq/betadesk/internal/auth"
	"github.com/betadeskhq/betadesk/internal/handlers"
	"github.com/betadeskhq/betadesk/internal/mail"
	"github.com/betadeskhq/betadesk/internal/middleware"
	"github.com/betadeskhq/betadesk/internal/oauth"
	"github.com/betadeskhq/betadesk/internal/services"
)

// Integrations carries the outbound channels built during server bootstrap.
// Any of the fields may be nil when the corresponding integration is disabled.
type Integrations struct {
	SMTP     mail.Sender
	SendGrid mail.Sender
	Google   *oauth.GoogleFlow
	AI       *ai.Client
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, sessions *iauth.SessionService, local *iauth.LocalAuthenticator, integrations Integrations) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}
	if local == nil {
		return nil, fmt.Errorf("local authenticator must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	encryptionKey := []byte(cfg.Vault.EncryptionKey)
	if length := len(encryptionKey); length != 16 && length != 24 && length != 32 {
		return nil, fmt.Errorf("invalid vault encryption key length: expected 16, 24, or 32 bytes, got %d", length)
	}

	svcs, err := buildServices(db, encryptionKey)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	senders := handlers.NewSenderFactory(integrations.SMTP, integrations.SendGrid, svcs.mailAccounts, integrations.Google)

	authHandler := handlers.NewAuthHandler(db, jwt, sessions, local)
	customerHandler := handlers.NewCustomerHandler(svcs.customers)
	orgHandler := handlers.NewOrganizationHandler(svcs.organizations)
	programHandler := handlers.NewProgramHandler(svcs.programs, svcs.wizard, senders)
	invitationHandler := handlers.NewInvitationHandler(svcs.invitations, senders)
	ndaHandler := handlers.NewNDAHandler(svcs.ndas)
	slotHandler := handlers.NewSlotHandler(svcs.slots)
	bookingHandler := handlers.NewBookingHandler(svcs.bookings, svcs.programs, svcs.slots)
	templateHandler := handlers.NewTemplateHandler(svcs.templates, integrations.AI)
	emailLogHandler := handlers.NewEmailLogHandler(svcs.emailLogs)
	auditHandler := handlers.NewAuditHandler(svcs.audit)
	oauthHandler := handlers.NewOAuthHandler(integrations.Google, svcs.mailAccounts, cfg.Server.PublicURL)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Public tester-facing routes: booking pages and invitation links carry
	// opaque tokens instead of credentials.
	public := r.Group("/api/public")
	{
		public.GET("/booking/context", bookingHandler.Context)
		public.GET("/programs", bookingHandler.PublicPrograms)
		public.GET("/programs/:id/slots", bookingHandler.PublicSlots)
		public.POST("/bookings", bookingHandler.Confirm)
	}
	r.POST("/api/invitations/respond/:token", invitationHandler.MarkResponded)

	// Google redirects the browser here without a bearer token.
	r.GET("/api/oauth/google/callback", oauthHandler.Callback)

	// Protected routes
	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)
	api.POST("/auth/logout", authHandler.Logout)

	customers := api.Group("/customers")
	{
		customers.GET("", customerHandler.List)
		customers.GET("/:id", customerHandler.Get)
		customers.POST("", customerHandler.Create)
		customers.PATCH("/:id", customerHandler.Update)
		customers.DELETE("/:id", customerHandler.Delete)
		customers.GET("/:id/bookings", bookingHandler.ListForCustomer)
	}

	orgs := api.Group("/organizations")
	{
		orgs.GET("", orgHandler.List)
		orgs.GET("/:id", orgHandler.Get)
		orgs.POST("", orgHandler.Create)
		orgs.PATCH("/:id", orgHandler.Update)
		orgs.DELETE("/:id", orgHandler.Delete)
	}

	programs := api.Group("/programs")
	{
		programs.GET("", programHandler.List)
		programs.POST("/draft", programHandler.CreateDraft)
		programs.GET("/:id", programHandler.Get)
		programs.PATCH("/:id", programHandler.Update)
		programs.DELETE("/:id", programHandler.Delete)
		programs.GET("/:id/draft", programHandler.GetDraft)
		programs.PUT("/:id/draft", programHandler.SaveDraft)
		programs.POST("/:id/steps/:step/send", programHandler.SendStep)
		programs.POST("/:id/launch", programHandler.Launch)
		programs.GET("/:id/invitations", invitationHandler.ListForProgram)
		programs.GET("/:id/ndas", ndaHandler.ListForProgram)
		programs.GET("/:id/slots", slotHandler.ListForProgram)
		programs.POST("/:id/slots", slotHandler.CreateForProgram)
		programs.GET("/:id/bookings", bookingHandler.ListForProgram)
	}

	invitations := api.Group("/invitations")
	{
		invitations.GET("/:id", invitationHandler.Get)
		invitations.POST("/:id/resend", invitationHandler.Resend)
	}

	ndas := api.Group("/ndas")
	{
		ndas.GET("/:id", ndaHandler.Get)
		ndas.POST("/:id/sign", ndaHandler.Sign)
		ndas.POST("/:id/decline", ndaHandler.Decline)
	}

	slots := api.Group("/slots")
	{
		slots.GET("/:id", slotHandler.Get)
		slots.PATCH("/:id/status", slotHandler.UpdateStatus)
		slots.DELETE("/:id", slotHandler.Delete)
		slots.GET("/:id/bookings", bookingHandler.ListForSlot)
	}

	api.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	templates := api.Group("/templates")
	{
		templates.GET("", templateHandler.List)
		templates.POST("", templateHandler.Create)
		templates.POST("/generate", templateHandler.Generate)
		templates.GET("/default/:type", templateHandler.Default)
		templates.GET("/:id", templateHandler.Get)
		templates.PATCH("/:id", templateHandler.Update)
		templates.DELETE("/:id", templateHandler.Delete)
		templates.POST("/:id/render", templateHandler.Render)
	}

	api.GET("/email-logs", emailLogHandler.List)
	api.GET("/audit", auditHandler.List)

	api.GET("/oauth/google/authorize", oauthHandler.Authorize)
	api.DELETE("/oauth/google", oauthHandler.Disconnect)

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

type serviceSet struct {
	audit         *services.AuditService
	organizations *services.OrganizationService
	customers     *services.CustomerService
	templates     *services.TemplateService
	emailLogs     *services.EmailLogService
	mailAccounts  *services.MailAccountService
	programs      *services.ProgramService
	invitations   *services.InvitationService
	ndas          *services.NDAService
	slots         *services.SlotService
	bookings      *services.BookingService
	wizard        *services.WizardService
}

func buildServices(db *gorm.DB, encryptionKey []byte) (*serviceSet, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}
	organizations, err := services.NewOrganizationService(db, audit)
	if err != nil {
		return nil, fmt.Errorf("initialise organization service: %w", err)
	}
	customers, err := services.NewCustomerService(db, organizations, audit)
	if err != nil {
		return nil, fmt.Errorf("initialise customer service: %w", err)
	}
	templates, err := services.NewTemplateService(db, audit)
	if err != nil {
		return nil, fmt.Errorf("initialise template service: %w", err)
	}
	emailLogs, err := services.NewEmailLogService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise email log service: %w", err)
	}
	mailAccounts, err := services.NewMailAccountService(db, encryptionKey, audit)
	if err != nil {
		return nil, fmt.Errorf("initialise mail account service: %w", err)
	}
	programs, err := services.NewProgramService(db, audit)
	if err != nil {
		return nil, fmt.Errorf("initialise program service: %w", err)
	}
	invitations, err := services.NewInvitationService(db, emailLogs, audit)
	if err != nil {
		return nil, fmt.Errorf("initialise invitation service: %w", err)
	}
	ndas, err := services.NewNDAService(db, audit)
	if err != nil {
		return nil, fmt.Errorf("initialise nda service: %w", err)
	}
	slots, err := services.NewSlotService(db, audit)
	if err != nil {
		return nil, fmt.Errorf("initialise slot service: %w", err)
	}
	bookings, err := services.NewBookingService(db, customers, invitations, slots, programs, audit)
	if err != nil {
		return nil, fmt.Errorf("initialise booking service: %w", err)
	}
	wizard, err := services.NewWizardService(programs, invitations, ndas, slots, audit)
	if err != nil {
		return nil, fmt.Errorf("initialise wizard service: %w", err)
	}

	return &serviceSet{
		audit:         audit,
		organizations: organizations,
		customers:     customers,
		templates:     templates,
		emailLogs:     emailLogs,
		mailAccounts:  mailAccounts,
		programs:      programs,
		invitations:   invitations,
		ndas:          ndas,
		slots:         slots,
		bookings:      bookings,
		wizard:        wizard,
	}, nil
}
