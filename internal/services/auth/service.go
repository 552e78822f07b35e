// -----------------------------------------------------------------------
// Authentication Protocol - drives the target site's login flow on a
// browser session to a terminal authenticated/failed state
// -----------------------------------------------------------------------

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/interfaces"
	"github.com/ternarybob/scriba/internal/models"
)

const (
	// Challenge waits are the only human-in-the-loop points in the system.
	challengePollInterval = 3 * time.Second
	// In-page challenge (CAPTCHA) budget, ~2 minutes.
	loginWaitAttempts = 40
	// Post-submit checkpoint budget, ~3 minutes.
	checkpointWaitAttempts = 60

	fieldWaitTimeout = 10 * time.Second
)

// markers on the current URL that classify the login state
const (
	feedMarker       = "/feed"
	loginMarker      = "/login"
	checkpointMarker = "/checkpoint"
	challengeMarker  = "/challenge"
)

// identityJS extracts the logged-in identity's public profile slug from the
// page, empty when not determinable.
const identityJS = `(() => {
	const link = document.querySelector('a[href*="/in/"]');
	if (!link) return "";
	const m = link.href.match(/\/in\/([^/?#]+)/);
	return m ? m[1] : "";
})()`

// Service implements the login state machine for both the shared bot
// identity and caller-supplied identities.
type Service struct {
	config common.TargetConfig
	store  interfaces.SessionStore
	logger arbor.ILogger
}

// NewService creates an authentication service.
func NewService(config common.TargetConfig, store interfaces.SessionStore, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		store:  store,
		logger: logger,
	}
}

// Authenticate drives the session to an authenticated state as the given
// identity. Shared-identity runs inject the persisted cookie snapshot first
// and persist a fresh snapshot on success; caller-identity runs never touch
// the snapshot.
func (s *Service) Authenticate(ctx context.Context, session interfaces.BrowserSession, creds models.Credentials, sharedIdentity bool) error {
	if !session.Alive() {
		return models.ErrSessionClosed
	}
	browserCtx := session.Context()

	if sharedIdentity {
		cookies, err := s.store.Load()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to load persisted session, proceeding to fresh login")
		} else if len(cookies) > 0 {
			if err := s.injectCookies(browserCtx, cookies); err != nil {
				s.logger.Warn().Err(err).Msg("Cookie injection failed, proceeding to fresh login")
			}
		}
	}

	location, err := s.navigate(browserCtx, s.config.FeedURL)
	if err != nil {
		return fmt.Errorf("failed to reach feed: %w", err)
	}

	if isAuthenticatedLocation(location) {
		if sharedIdentity {
			s.logger.Info().Str("identity", creds.Username).Msg("Session already authenticated")
			return nil
		}

		// A caller-identity run landing on an authenticated page means the
		// session carries someone else's state. Force a logout and log in
		// with the caller's credentials.
		var slug string
		_ = chromedp.Run(browserCtx, chromedp.Evaluate(identityJS, &slug))
		s.logger.Warn().
			Str("current_identity", slug).
			Msg("Authenticated as wrong identity for caller-credentials run, forcing logout")

		if _, err := s.navigate(browserCtx, s.config.BaseURL+"/m/logout/"); err != nil {
			return fmt.Errorf("forced logout failed: %w", err)
		}
	}

	if err := s.submitLogin(browserCtx, creds); err != nil {
		return err
	}

	if err := s.awaitAuthenticated(ctx, browserCtx); err != nil {
		return err
	}

	s.logger.Info().Str("identity", creds.Username).Bool("shared", sharedIdentity).Msg("Authenticated")

	if sharedIdentity {
		snapshot, err := s.snapshotCookies(browserCtx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to snapshot cookies after login")
			return nil
		}
		if err := s.store.Save(snapshot); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist session cookies")
		}
	}

	return nil
}

// CheckAuthenticated reports whether the session currently holds an
// authenticated state, without driving the login flow.
func (s *Service) CheckAuthenticated(ctx context.Context, session interfaces.BrowserSession) (bool, error) {
	if !session.Alive() {
		return false, models.ErrSessionClosed
	}

	location, err := s.navigate(session.Context(), s.config.FeedURL)
	if err != nil {
		return false, err
	}

	return isAuthenticatedLocation(location), nil
}

// navigate loads a URL with the site's navigation budget and returns the
// post-redirect location.
func (s *Service) navigate(browserCtx context.Context, url string) (string, error) {
	navCtx, cancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancel()

	var location string
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Location(&location),
	)
	if err != nil {
		return "", err
	}
	return location, nil
}

// submitLogin fills and submits the login form.
func (s *Service) submitLogin(browserCtx context.Context, creds models.Credentials) error {
	if _, err := s.navigate(browserCtx, s.config.LoginURL); err != nil {
		return fmt.Errorf("failed to reach login page: %w", err)
	}

	fieldCtx, cancel := context.WithTimeout(browserCtx, fieldWaitTimeout)
	defer cancel()

	err := chromedp.Run(fieldCtx,
		chromedp.WaitVisible(`#username`, chromedp.ByID),
		chromedp.WaitVisible(`#password`, chromedp.ByID),
	)
	if err != nil {
		// Site structure changed; the selectors no longer match.
		return fmt.Errorf("%w: #username/#password", models.ErrLoginFieldNotFound)
	}

	err = chromedp.Run(browserCtx,
		chromedp.SendKeys(`#username`, creds.Username, chromedp.ByID),
		chromedp.SendKeys(`#password`, creds.Password, chromedp.ByID),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}

	s.logger.Debug().Str("identity", creds.Username).Msg("Login form submitted")
	return nil
}

// awaitAuthenticated polls the post-submit page until it reaches a terminal
// state: authenticated, credentials rejected, or challenge timeout. A
// detected challenge extends the wait to the checkpoint budget; that window
// is where a human resolves the verification.
func (s *Service) awaitAuthenticated(ctx context.Context, browserCtx context.Context) error {
	challengeSeen := false

	check := func(ctx context.Context) (bool, error) {
		var location string
		if err := chromedp.Run(browserCtx, chromedp.Location(&location)); err != nil {
			return false, err
		}

		if isAuthenticatedLocation(location) {
			return true, nil
		}

		if strings.Contains(location, checkpointMarker) || strings.Contains(location, challengeMarker) {
			if !challengeSeen {
				challengeSeen = true
				s.logger.Warn().
					Str("location", location).
					Msg("Verification challenge pending, waiting for manual resolution")
			}
			return false, nil
		}

		rejected, err := s.credentialErrorVisible(browserCtx)
		if err != nil {
			return false, err
		}
		if rejected {
			return false, models.ErrCredentialsRejected
		}

		return false, nil
	}

	err := common.AwaitCondition(ctx, check, challengePollInterval, loginWaitAttempts)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrConditionTimeout) {
		return err
	}

	// The first budget covers the in-page challenge; a checkpoint page gets
	// the longer post-submit budget before giving up.
	if challengeSeen {
		err = common.AwaitCondition(ctx, check, challengePollInterval, checkpointWaitAttempts)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrConditionTimeout) {
			return err
		}
	}

	return fmt.Errorf("%w: challenge unresolved", models.ErrAuthTimeout)
}

// credentialErrorVisible checks for the explicit error elements the site
// renders when a login is rejected.
func (s *Service) credentialErrorVisible(browserCtx context.Context) (bool, error) {
	const errorJS = `(() => {
		const sel = ['#error-for-username', '#error-for-password', '[error-for="password"]'];
		return sel.some(q => {
			const el = document.querySelector(q);
			return el && el.textContent.trim().length > 0;
		});
	})()`

	var visible bool
	if err := chromedp.Run(browserCtx, chromedp.Evaluate(errorJS, &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

// isAuthenticatedLocation classifies a post-navigation URL: the feed means
// authenticated, a login/checkpoint redirect means not.
func isAuthenticatedLocation(location string) bool {
	if strings.Contains(location, loginMarker) ||
		strings.Contains(location, checkpointMarker) ||
		strings.Contains(location, challengeMarker) {
		return false
	}
	return strings.Contains(location, feedMarker)
}
