// -----------------------------------------------------------------------
// Shared-identity extraction - exports a caller-supplied profile URL
// through the warm bot session
// -----------------------------------------------------------------------

package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/interfaces"
	"github.com/ternarybob/scriba/internal/models"
)

const (
	navigationRetries = 3
	navigationBackoff = 2 * time.Second
	pageSettleDelay   = 5 * time.Second
	menuOpenDelay     = 2 * time.Second
	keyStepDelay      = 300 * time.Millisecond
	artifactExt       = ".pdf"
)

// BotURLStrategy drives the export sequence on a profile the shared bot
// identity can view directly: navigate to the locator, open the overflow
// menu, pick the export action by keyboard, await the generated file.
type BotURLStrategy struct {
	config common.BrowserConfig
	logger arbor.ILogger
}

// NewBotURLStrategy creates the shared-identity extraction strategy.
func NewBotURLStrategy(config common.BrowserConfig, logger arbor.ILogger) *BotURLStrategy {
	return &BotURLStrategy{
		config: config,
		logger: logger,
	}
}

// Extract produces the exported artifact for the given profile URL.
func (s *BotURLStrategy) Extract(ctx context.Context, session interfaces.BrowserSession, target string) (*models.Artifact, error) {
	if !session.Alive() {
		return nil, models.ErrSessionClosed
	}
	browserCtx := session.Context()

	if err := s.navigateWithRetries(browserCtx, target); err != nil {
		return nil, err
	}

	// Give the profile page time to hydrate before probing for buttons.
	if err := chromedp.Run(browserCtx, chromedp.Sleep(pageSettleDelay)); err != nil {
		return nil, err
	}

	if err := s.openActionsMenu(browserCtx); err != nil {
		return nil, err
	}

	if err := s.selectExportByKeyboard(browserCtx); err != nil {
		return nil, err
	}

	return awaitDownload(ctx, session.DownloadDir(), artifactExt, s.config.DownloadTimeout, s.logger)
}

// navigateWithRetries loads the target profile, retrying transient
// navigation failures a fixed number of times.
func (s *BotURLStrategy) navigateWithRetries(browserCtx context.Context, target string) error {
	var lastErr error

	for attempt := 1; attempt <= navigationRetries; attempt++ {
		navCtx, cancel := context.WithTimeout(browserCtx, s.config.NavigationTimeout)
		err := chromedp.Run(navCtx,
			chromedp.Navigate(target),
			chromedp.WaitReady("body"),
		)
		cancel()

		if err == nil {
			s.logger.Debug().Str("target", target).Int("attempt", attempt).Msg("Profile page loaded")
			return nil
		}

		lastErr = err
		s.logger.Warn().
			Err(err).
			Str("target", target).
			Int("attempt", attempt).
			Int("max_attempts", navigationRetries).
			Msg("Profile navigation failed, retrying")

		select {
		case <-browserCtx.Done():
			return browserCtx.Err()
		case <-time.After(navigationBackoff):
		}
	}

	return fmt.Errorf("failed to load profile after %d attempts: %w", navigationRetries, lastErr)
}

// openActionsMenu finds and clicks the overflow ("More") entry point. Text
// match first since the accessible name survives class churn, then the
// aria-label and class fallbacks.
func (s *BotURLStrategy) openActionsMenu(browserCtx context.Context) error {
	locators := []locator{
		clickByText("More"),
		clickBySelector(`button[aria-label*="More"]`),
		clickBySelector(`button[aria-label*="more"]`),
		clickBySelector(`.pvs-overflow-actions-dropdown__trigger`),
	}

	matched, err := runChain(browserCtx, "More actions", locators, s.logger)
	if err != nil {
		return err
	}

	s.logger.Debug().Str("locator", matched).Msg("Actions menu opened")

	// Let the dropdown render before keyboard navigation.
	return chromedp.Run(browserCtx, chromedp.Sleep(menuOpenDelay))
}

// selectExportByKeyboard picks the export action with arrow keys. The menu
// order is stable (share, export, follow, ...) while the item node
// identities are not, so two steps down plus confirm beats clicking a
// dynamic dropdown item.
func (s *BotURLStrategy) selectExportByKeyboard(browserCtx context.Context) error {
	err := chromedp.Run(browserCtx,
		chromedp.KeyEvent(kb.ArrowDown),
		chromedp.Sleep(keyStepDelay),
		chromedp.KeyEvent(kb.ArrowDown),
		chromedp.Sleep(keyStepDelay),
		chromedp.KeyEvent(kb.Enter),
	)
	if err != nil {
		return fmt.Errorf("keyboard export selection failed: %w", err)
	}

	s.logger.Debug().Msg("Export action selected via keyboard")
	return nil
}
