package extract

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/models"
)

// locator is one attempt at finding and activating a UI element. Attempts
// run in priority order; the first that reports success ends the chain.
// Expressing the fallbacks as data keeps adding or removing one from being
// a control-flow change.
type locator struct {
	name    string
	attempt func(ctx context.Context) (bool, error)
}

// visibleActionTextsJS collects the texts of actionable elements currently
// on the page. Captured on chain exhaustion so failures distinguish selector
// drift from the site blocking the session.
const visibleActionTextsJS = `(() => {
	const out = [];
	for (const el of document.querySelectorAll('button, [role="menuitem"], [role="button"]')) {
		const text = (el.textContent || '').trim().replace(/\s+/g, ' ');
		if (text && text.length <= 60 && !out.includes(text)) out.push(text);
	}
	return out.slice(0, 25);
})()`

// runChain tries each locator in order against the browser context and
// returns the name of the first that succeeded. Exhaustion produces an
// EntryPointNotFoundError carrying the candidate texts actually seen.
func runChain(browserCtx context.Context, entryPoint string, locators []locator, logger arbor.ILogger) (string, error) {
	for _, loc := range locators {
		found, err := loc.attempt(browserCtx)
		if err != nil {
			logger.Debug().
				Err(err).
				Str("locator", loc.name).
				Str("entry_point", entryPoint).
				Msg("Locator attempt errored, trying next")
			continue
		}
		if found {
			logger.Debug().
				Str("locator", loc.name).
				Str("entry_point", entryPoint).
				Msg("Locator matched")
			return loc.name, nil
		}
	}

	var candidates []string
	if err := chromedp.Run(browserCtx, chromedp.Evaluate(visibleActionTextsJS, &candidates)); err != nil {
		logger.Debug().Err(err).Msg("Failed to collect candidate element texts")
	}

	return "", &models.EntryPointNotFoundError{
		EntryPoint: entryPoint,
		Candidates: candidates,
	}
}

// clickByText returns a locator that clicks the first actionable element
// whose text matches exactly or case-insensitively.
func clickByText(text string) locator {
	js := fmt.Sprintf(`(() => {
		const want = %q;
		const els = document.querySelectorAll('button, [role="menuitem"], [role="button"], a');
		for (const el of els) {
			const t = (el.textContent || '').trim();
			if (t === want || t.toLowerCase() === want.toLowerCase()) {
				el.click();
				return true;
			}
		}
		return false;
	})()`, text)

	return locator{
		name: fmt.Sprintf("text-match:%s", text),
		attempt: func(ctx context.Context) (bool, error) {
			var clicked bool
			if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
				return false, err
			}
			return clicked, nil
		},
	}
}

// clickBySelector returns a locator that clicks the first element matching
// a CSS selector.
func clickBySelector(selector string) locator {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.click();
		return true;
	})()`, selector)

	return locator{
		name: fmt.Sprintf("selector:%s", selector),
		attempt: func(ctx context.Context) (bool, error) {
			var clicked bool
			if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
				return false, err
			}
			return clicked, nil
		},
	}
}
