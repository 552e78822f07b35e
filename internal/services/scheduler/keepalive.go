// -----------------------------------------------------------------------
// Keep-Alive Scheduler - Periodic shared session refresh
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/interfaces"
	"github.com/ternarybob/scriba/internal/models"
)

// keepAliveTimeout bounds one refresh run, including a full re-login when
// the persisted cookies have expired.
const keepAliveTimeout = 5 * time.Minute

// KeepAlive periodically verifies the shared bot session is still
// authenticated and re-runs the login flow when it isn't. Long idle gaps
// are what let session cookies lapse; a scheduled touch keeps the shared
// identity warm between submissions.
type KeepAlive struct {
	config  common.KeepAliveConfig
	bot     common.BotConfig
	browser interfaces.BrowserManager
	auth    interfaces.Authenticator
	logger  arbor.ILogger

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewKeepAlive creates the keep-alive scheduler.
func NewKeepAlive(
	config common.KeepAliveConfig,
	bot common.BotConfig,
	browser interfaces.BrowserManager,
	auth interfaces.Authenticator,
	logger arbor.ILogger,
) *KeepAlive {
	return &KeepAlive{
		config:  config,
		bot:     bot,
		browser: browser,
		auth:    auth,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start registers the refresh schedule and begins running it. A disabled
// or unconfigured schedule is a no-op, not an error.
func (k *KeepAlive) Start() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.config.Enabled || k.config.Schedule == "" {
		k.logger.Info().Msg("Keep-alive schedule disabled")
		return nil
	}
	if k.running {
		return fmt.Errorf("keep-alive scheduler already running")
	}

	_, err := k.cron.AddFunc(k.config.Schedule, func() {
		common.SafeGo(k.logger, "keep-alive", k.refresh)
	})
	if err != nil {
		return fmt.Errorf("invalid keep-alive schedule %q: %w", k.config.Schedule, err)
	}

	k.cron.Start()
	k.running = true

	k.logger.Info().
		Str("schedule", k.config.Schedule).
		Msg("Keep-alive scheduler started")
	return nil
}

// Stop halts the schedule and waits for an in-flight refresh to finish.
func (k *KeepAlive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.running {
		return
	}

	ctx := k.cron.Stop()
	<-ctx.Done()
	k.running = false

	k.logger.Info().Msg("Keep-alive scheduler stopped")
}

// refresh acquires the shared session, checks its login state and
// re-authenticates if needed. Acquisition serializes against running jobs,
// so a refresh never interleaves with an export.
func (k *KeepAlive) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), keepAliveTimeout)
	defer cancel()

	session, err := k.browser.AcquireShared(ctx)
	if err != nil {
		k.logger.Warn().Err(err).Msg("Keep-alive could not acquire shared session")
		return
	}
	defer k.browser.Release(session)

	authenticated, err := k.auth.CheckAuthenticated(ctx, session)
	if err != nil {
		k.logger.Warn().Err(err).Msg("Keep-alive auth check failed")
		return
	}
	if authenticated {
		k.logger.Debug().Msg("Keep-alive: shared session still authenticated")
		return
	}

	creds := models.Credentials{Username: k.bot.Username, Password: k.bot.Password}
	if err := k.auth.Authenticate(ctx, session, creds, true); err != nil {
		k.logger.Warn().Err(err).Msg("Keep-alive re-authentication failed")
		return
	}

	k.logger.Info().Msg("Keep-alive re-authenticated shared session")
}
