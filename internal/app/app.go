// -----------------------------------------------------------------------
// App - Dependency wiring and lifecycle
// -----------------------------------------------------------------------

package app

import (
	"fmt"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/interfaces"
	"github.com/ternarybob/scriba/internal/services/auth"
	"github.com/ternarybob/scriba/internal/services/browser"
	"github.com/ternarybob/scriba/internal/services/extract"
	"github.com/ternarybob/scriba/internal/services/jobs"
	"github.com/ternarybob/scriba/internal/services/mailer"
	"github.com/ternarybob/scriba/internal/services/scheduler"
	"github.com/ternarybob/scriba/internal/services/session"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	SessionStore interfaces.SessionStore
	Browser      interfaces.BrowserManager
	Auth         interfaces.Authenticator
	Mailer       interfaces.Mailer
	JobService   interfaces.JobService
	KeepAlive    *scheduler.KeepAlive
}

// New wires the service graph from configuration. Construction is eager so
// a bad configuration fails at startup, but the browser itself only
// launches when the first job needs it.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	sessionStore := session.NewStore(
		filepath.Join(config.Browser.UserDataDir, "session.json"), logger)

	browserManager := browser.NewManager(config.Browser, sessionStore, logger)
	authService := auth.NewService(config.Target, sessionStore, logger)
	mailService := mailer.NewService(config.SMTP, logger)

	if !mailService.IsConfigured() {
		logger.Warn().Msg("SMTP not fully configured; artifact delivery will fail")
	}

	botStrategy := extract.NewBotURLStrategy(config.Browser, logger)
	callerStrategy := extract.NewCallerIdentityStrategy(config.Browser, config.Target, logger)

	jobManager, err := jobs.NewManager(
		config, browserManager, authService, botStrategy, callerStrategy, mailService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create job manager: %w", err)
	}

	keepAlive := scheduler.NewKeepAlive(
		config.KeepAlive, config.Bot, browserManager, authService, logger)

	return &App{
		Config:       config,
		Logger:       logger,
		SessionStore: sessionStore,
		Browser:      browserManager,
		Auth:         authService,
		Mailer:       mailService,
		JobService:   jobManager,
		KeepAlive:    keepAlive,
	}, nil
}

// Start brings up background services.
func (a *App) Start() error {
	if err := a.KeepAlive.Start(); err != nil {
		return fmt.Errorf("failed to start keep-alive scheduler: %w", err)
	}
	return nil
}

// Close tears down background services and every live browser session.
func (a *App) Close() error {
	a.KeepAlive.Stop()

	if err := a.Browser.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Browser shutdown reported errors")
		return err
	}

	a.Logger.Info().Msg("Application stopped")
	return nil
}
