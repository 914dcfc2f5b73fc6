package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/betadeskhq/betadesk/internal/ai"
	"github.com/betadeskhq/betadesk/internal/api"
	"github.com/betadeskhq/betadesk/internal/app"
	"github.com/betadeskhq/betadesk/internal/app/maintenance"
	iauth "github.com/betadeskhq/betadesk/internal/auth"
	"github.com/betadeskhq/betadesk/internal/database"
	"github.com/betadeskhq/betadesk/internal/mail"
	"github.com/betadeskhq/betadesk/internal/oauth"
	"github.com/betadeskhq/betadesk/internal/services"
	"github.com/betadeskhq/betadesk/pkg/logger"
	pkgmail "github.com/betadeskhq/betadesk/pkg/mail"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("betadesk-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	if err := ensureSecretsPresent(cfg); err != nil {
		return err
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         cfg.Auth.JWT.Secret,
		Issuer:         cfg.Auth.JWT.Issuer,
		AccessTokenTTL: cfg.Auth.JWT.TTL,
	})
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	sessionSvc, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{
		RefreshTokenTTL: cfg.Auth.Session.RefreshTTL,
		RefreshLength:   cfg.Auth.Session.RefreshLength,
	})
	if err != nil {
		return fmt.Errorf("initialise session service: %w", err)
	}

	localAuth, err := iauth.NewLocalAuthenticator(db, iauth.LocalConfig{
		LockoutThreshold: cfg.Auth.Local.LockoutThreshold,
		LockoutDuration:  cfg.Auth.Local.LockoutDuration,
	})
	if err != nil {
		return fmt.Errorf("initialise local authenticator: %w", err)
	}

	if err := bootstrapAdminUser(cfg, localAuth, log); err != nil {
		return err
	}

	integrations, err := buildIntegrations(cfg, log)
	if err != nil {
		return err
	}

	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return fmt.Errorf("initialise audit service: %w", err)
	}

	if cfg.Maintenance.Enabled {
		cleaner := maintenance.NewCleaner(db, sessionSvc, auditSvc,
			maintenance.WithExpirySchedule(cfg.Maintenance.Schedule),
		)
		if err := cleaner.Start(); err != nil {
			return fmt.Errorf("start maintenance jobs: %w", err)
		}
		defer func() {
			stopCtx := cleaner.Stop()
			if err := cleaner.RunOnce(stopCtx); err != nil {
				log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
			}
		}()
	}

	router, err := api.NewRouter(db, jwtService, cfg, sessionSvc, localAuth, integrations)
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

// bootstrapAdminUser seeds the first staff login from configuration so a fresh
// deployment has a working /api/auth/login. Once any user exists it does nothing.
func bootstrapAdminUser(cfg *app.Config, localAuth *iauth.LocalAuthenticator, log *zap.Logger) error {
	email := strings.TrimSpace(cfg.Auth.Bootstrap.AdminEmail)
	password := cfg.Auth.Bootstrap.AdminPassword
	if email == "" || password == "" {
		log.Warn("no bootstrap admin configured; login is unavailable until a user exists",
			zap.String("hint", "set auth.bootstrap.admin_email and auth.bootstrap.admin_password"))
		return nil
	}

	user, created, err := localAuth.BootstrapAdmin(iauth.RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: cfg.Auth.Bootstrap.AdminFirstName,
		LastName:  cfg.Auth.Bootstrap.AdminLastName,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin user: %w", err)
	}
	if created {
		log.Info("bootstrap admin created", zap.String("email", user.Email))
	}
	return nil
}

// buildIntegrations assembles the outbound channels that are enabled in configuration.
// Disabled integrations stay nil and the router degrades gracefully.
func buildIntegrations(cfg *app.Config, log *zap.Logger) (api.Integrations, error) {
	var integrations api.Integrations

	if cfg.Email.SMTP.Enabled {
		mailer, err := pkgmail.NewSMTPMailer(cfg.Email.SMTPSettings())
		if err != nil {
			return integrations, fmt.Errorf("initialise smtp mailer: %w", err)
		}
		sender, err := mail.NewSMTPSender(mailer, cfg.Email.SMTP.From)
		if err != nil {
			return integrations, fmt.Errorf("initialise smtp sender: %w", err)
		}
		integrations.SMTP = sender
		log.Info("smtp sending enabled", zap.String("host", cfg.Email.SMTP.Host))
	}

	if cfg.Email.SendGrid.Enabled {
		sender, err := mail.NewSendGridSender(cfg.Email.SendGrid.APIKey, cfg.Email.SendGrid.FromName, cfg.Email.SendGrid.From)
		if err != nil {
			return integrations, fmt.Errorf("initialise sendgrid sender: %w", err)
		}
		integrations.SendGrid = sender
		log.Info("sendgrid sending enabled")
	}

	if cfg.Google.Enabled {
		flow, err := oauth.NewGoogleFlow(oauth.GoogleConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		})
		if err != nil {
			return integrations, fmt.Errorf("initialise google oauth: %w", err)
		}
		integrations.Google = flow
		log.Info("google oauth enabled")
	}

	if cfg.AI.Enabled {
		client, err := ai.NewClient(ai.Config{
			Endpoint: cfg.AI.Endpoint,
			APIKey:   cfg.AI.APIKey,
			Model:    cfg.AI.Model,
			Timeout:  cfg.AI.Timeout,
		})
		if err != nil {
			return integrations, fmt.Errorf("initialise ai client: %w", err)
		}
		integrations.AI = client
		log.Info("ai content generation enabled", zap.String("model", cfg.AI.Model))
	}

	return integrations, nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func ensureSecretsPresent(cfg *app.Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Auth.JWT.Secret = strings.TrimSpace(cfg.Auth.JWT.Secret)
	if cfg.Auth.JWT.Secret == "" {
		return errors.New("auth.jwt.secret must be configured")
	}

	cfg.Vault.EncryptionKey = strings.TrimSpace(cfg.Vault.EncryptionKey)
	keyLen := len(cfg.Vault.EncryptionKey)
	if keyLen != 16 && keyLen != 24 && keyLen != 32 {
		return fmt.Errorf("vault.encryption_key must be 16, 24, or 32 characters (current: %d)", keyLen)
	}

	return nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
