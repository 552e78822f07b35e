// -----------------------------------------------------------------------
// Browser Session Manager - owns the shared singleton and disposable
// per-job Chrome sessions
// -----------------------------------------------------------------------

package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/interfaces"
	"github.com/ternarybob/scriba/internal/models"
)

const launchTestTimeout = 30 * time.Second

// Manager owns all browser sessions for the process. The shared bot-identity
// session is a lazily launched singleton kept warm across jobs; disposable
// sessions are launched fresh per caller-credentials job and torn down on
// release regardless of job outcome.
//
// Access to the shared session is serialized: AcquireShared blocks until the
// previous holder releases it, so two jobs never drive the shared cookie jar
// at the same time.
type Manager struct {
	config common.BrowserConfig
	store  interfaces.SessionStore
	logger arbor.ILogger

	mu     sync.Mutex // guards shared, disposableCount
	shared *Session

	sharedUse sync.Mutex // held by the current shared-session user

	disposableCount int
}

// NewManager creates a browser session manager.
func NewManager(config common.BrowserConfig, store interfaces.SessionStore, logger arbor.ILogger) *Manager {
	return &Manager{
		config: config,
		store:  store,
		logger: logger,
	}
}

// AcquireShared returns the shared session, launching it if it is not
// connected. Blocks until any previous holder releases the session.
func (m *Manager) AcquireShared(ctx context.Context) (interfaces.BrowserSession, error) {
	m.sharedUse.Lock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shared != nil && m.shared.Alive() {
		m.logger.Debug().Msg("Reusing live shared browser session")
		return m.shared, nil
	}

	if m.shared != nil {
		// Previous instance died; clean up before relaunching.
		m.shared.close()
		m.shared = nil
	}

	session, err := m.launch(ctx, models.SessionKindShared)
	if err != nil {
		m.sharedUse.Unlock()
		return nil, err
	}

	m.shared = session
	return session, nil
}

// AcquireDisposable launches a brand-new isolated session with its own
// identity store. Never reused across jobs.
func (m *Manager) AcquireDisposable(ctx context.Context) (interfaces.BrowserSession, error) {
	session, err := m.launch(ctx, models.SessionKindDisposable)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.disposableCount++
	m.mu.Unlock()

	return session, nil
}

// Release returns a session to the manager. The shared session stays warm
// for the next job; disposable sessions are closed unconditionally.
func (m *Manager) Release(session interfaces.BrowserSession) {
	if session == nil {
		return
	}

	switch session.Kind() {
	case models.SessionKindShared:
		m.sharedUse.Unlock()
		m.logger.Debug().Msg("Shared browser session released")

	case models.SessionKindDisposable:
		if s, ok := session.(*Session); ok {
			s.close()
		}
		m.mu.Lock()
		if m.disposableCount > 0 {
			m.disposableCount--
		}
		m.mu.Unlock()
		m.logger.Debug().Msg("Disposable browser session closed")
	}
}

// Reset tears down the shared session and deletes its persisted cookie
// state. Blocks until the current shared-session user (if any) finishes.
func (m *Manager) Reset() error {
	m.sharedUse.Lock()
	defer m.sharedUse.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shared != nil {
		m.shared.close()
		m.shared = nil
		m.logger.Info().Msg("Shared browser session torn down")
	}

	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}

	return nil
}

// DisposableCount reports how many disposable sessions are currently live.
func (m *Manager) DisposableCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposableCount
}

// SharedAlive reports whether the shared session is currently connected.
func (m *Manager) SharedAlive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shared != nil && m.shared.Alive()
}

// Close tears down everything. Called on process shutdown.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shared != nil {
		m.shared.close()
		m.shared = nil
	}

	m.logger.Info().Msg("Browser manager closed")
	return nil
}

// launch starts a Chrome instance, verifies it responds, and applies the
// fixed session profile: blocked-resource rules and download routing.
func (m *Manager) launch(ctx context.Context, kind models.SessionKind) (*Session, error) {
	startTime := time.Now()

	var userDataDir, downloadDir string
	var err error

	switch kind {
	case models.SessionKindShared:
		userDataDir = m.config.UserDataDir
		downloadDir = filepath.Join(m.config.DownloadDir, "shared")
	case models.SessionKindDisposable:
		userDataDir, err = os.MkdirTemp("", "scriba-profile-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create isolated profile dir: %w", err)
		}
		downloadDir = filepath.Join(m.config.DownloadDir, uuid.New().String())
	}

	if err := os.MkdirAll(downloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(
		context.Background(),
		allocatorOptions(m.config, userDataDir)...,
	)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	session := &Session{
		kind:        kind,
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		downloadDir: downloadDir,
		userDataDir: userDataDir,
	}

	// Startup test: a launch that can't reach about:blank is unusable.
	testCtx, testCancel := context.WithTimeout(browserCtx, launchTestTimeout)
	defer testCancel()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		session.close()
		return nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	configActions := []chromedp.Action{
		network.Enable(),
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(downloadDir),
	}
	if len(m.config.BlockedURLs) > 0 {
		configActions = append(configActions, network.SetBlockedURLs(m.config.BlockedURLs))
	}

	if err := chromedp.Run(browserCtx, configActions...); err != nil {
		session.close()
		return nil, fmt.Errorf("failed to configure browser session: %w", err)
	}

	m.logger.Info().
		Str("kind", string(kind)).
		Str("download_dir", downloadDir).
		Dur("startup_time", time.Since(startTime)).
		Msg("Browser session launched")

	return session, nil
}
