// -----------------------------------------------------------------------
// Caller-identity extraction - exports the authenticated user's own
// profile from an isolated session
// -----------------------------------------------------------------------

package extract

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
	contentPollInterval = 2 * time.Second
	contentWaitAttempts = 15
	exportMenuText      = "Save to PDF"
)

// contentLoadedJS reports whether the profile's real content has replaced
// the loading placeholders.
const contentLoadedJS = `(() => {
	if (document.querySelector('.artdeco-loader, [class*="skeleton"], [class*="placeholder"]')) return false;
	const main = document.querySelector('main');
	return !!main && main.textContent.trim().length > 200;
})()`

// publicProfileURLJS extracts the profile's canonical public URL when the
// authenticated view lacks the expected entry point.
const publicProfileURLJS = `(() => {
	const canonical = document.querySelector('link[rel="canonical"]');
	if (canonical && canonical.href.includes('/in/')) return canonical.href;
	const link = document.querySelector('a[href*="/in/"][href*="public"]');
	return link ? link.href : "";
})()`

// CallerIdentityStrategy exports the profile belonging to the session's own
// authenticated identity. The target argument is ignored; the profile is
// resolved through the identity-relative path.
type CallerIdentityStrategy struct {
	browserConfig common.BrowserConfig
	targetConfig  common.TargetConfig
	logger        arbor.ILogger
}

// NewCallerIdentityStrategy creates the caller-identity extraction strategy.
func NewCallerIdentityStrategy(browserConfig common.BrowserConfig, targetConfig common.TargetConfig, logger arbor.ILogger) *CallerIdentityStrategy {
	return &CallerIdentityStrategy{
		browserConfig: browserConfig,
		targetConfig:  targetConfig,
		logger:        logger,
	}
}

// Extract produces the exported artifact for the session's own profile.
func (s *CallerIdentityStrategy) Extract(ctx context.Context, session interfaces.BrowserSession, _ string) (*models.Artifact, error) {
	if !session.Alive() {
		return nil, models.ErrSessionClosed
	}
	browserCtx := session.Context()

	ownProfile := strings.TrimSuffix(s.targetConfig.BaseURL, "/") + s.targetConfig.OwnProfilePath

	navCtx, cancel := context.WithTimeout(browserCtx, s.browserConfig.NavigationTimeout)
	err := chromedp.Run(navCtx,
		chromedp.Navigate(ownProfile),
		chromedp.WaitReady("body"),
	)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to load own profile: %w", err)
	}

	if err := s.awaitContentLoaded(ctx, browserCtx); err != nil {
		return nil, err
	}

	if err := s.openResourcesMenu(browserCtx); err != nil {
		return nil, err
	}

	if err := s.selectExportByText(browserCtx); err != nil {
		return nil, err
	}

	return awaitDownload(ctx, session.DownloadDir(), artifactExt, s.browserConfig.DownloadTimeout, s.logger)
}

// awaitContentLoaded polls until the profile content replaces its loading
// placeholders, with one reload-and-retry escalation if the first wait
// window expires.
func (s *CallerIdentityStrategy) awaitContentLoaded(ctx context.Context, browserCtx context.Context) error {
	check := func(ctx context.Context) (bool, error) {
		var loaded bool
		if err := chromedp.Run(browserCtx, chromedp.Evaluate(contentLoadedJS, &loaded)); err != nil {
			return false, err
		}
		return loaded, nil
	}

	err := common.AwaitCondition(ctx, check, contentPollInterval, contentWaitAttempts)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrConditionTimeout) {
		return err
	}

	s.logger.Warn().Msg("Profile content still loading after first wait window, reloading once")

	if err := chromedp.Run(browserCtx, chromedp.Reload(), chromedp.WaitReady("body")); err != nil {
		return fmt.Errorf("profile reload failed: %w", err)
	}

	if err := common.AwaitCondition(ctx, check, contentPollInterval, contentWaitAttempts); err != nil {
		return fmt.Errorf("profile content did not finish loading: %w", err)
	}
	return nil
}

// openResourcesMenu finds the "Resources" entry point on the authenticated
// own-profile view. The chain is broader than the shared-identity one and
// ends with a public-profile-URL escalation: some account states only show
// the export action on the public view.
func (s *CallerIdentityStrategy) openResourcesMenu(browserCtx context.Context) error {
	locators := []locator{
		clickByText("Resources"),
		clickByText("More"),
		clickBySelector(`button[aria-label*="Resources"]`),
		clickBySelector(`button[aria-label*="More actions"]`),
		clickBySelector(`.pvs-profile-actions__action`),
		s.publicProfileFallback(),
	}

	matched, err := runChain(browserCtx, "Resources", locators, s.logger)
	if err != nil {
		return err
	}

	s.logger.Debug().Str("locator", matched).Msg("Resources menu opened")

	return chromedp.Run(browserCtx, chromedp.Sleep(menuOpenDelay))
}

// publicProfileFallback navigates to the profile's public URL and retries
// the primary entry points there.
func (s *CallerIdentityStrategy) publicProfileFallback() locator {
	return locator{
		name: "public-profile-url",
		attempt: func(browserCtx context.Context) (bool, error) {
			var publicURL string
			if err := chromedp.Run(browserCtx, chromedp.Evaluate(publicProfileURLJS, &publicURL)); err != nil {
				return false, err
			}
			if publicURL == "" {
				return false, nil
			}

			s.logger.Debug().Str("url", publicURL).Msg("Escalating to public profile view")

			navCtx, cancel := context.WithTimeout(browserCtx, s.browserConfig.NavigationTimeout)
			defer cancel()
			err := chromedp.Run(navCtx,
				chromedp.Navigate(publicURL),
				chromedp.WaitReady("body"),
				chromedp.Sleep(pageSettleDelay),
			)
			if err != nil {
				return false, err
			}

			for _, loc := range []locator{clickByText("Resources"), clickByText("More")} {
				found, err := loc.attempt(browserCtx)
				if err != nil {
					continue
				}
				if found {
					return true, nil
				}
			}
			return false, nil
		},
	}
}

// selectExportByText clicks the export action inside the opened menu.
func (s *CallerIdentityStrategy) selectExportByText(browserCtx context.Context) error {
	found, err := clickByText(exportMenuText).attempt(browserCtx)
	if err != nil {
		return fmt.Errorf("export option probe failed: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: %q", models.ErrExportOptionNotFound, exportMenuText)
	}

	s.logger.Debug().Str("option", exportMenuText).Msg("Export action selected")
	return nil
}
