package browser

import (
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/scriba/internal/common"
)

// allocatorOptions builds the Chrome launch flags. The anti-automation flags
// keep the browser fingerprint close to a regular desktop Chrome; the target
// site aggressively blocks sessions that advertise automation.
func allocatorOptions(config common.BrowserConfig, userDataDir string) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.UserAgent(config.UserAgent),

		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),

		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-popup-blocking", true),

		// Canvas/WebGL stay enabled; disabling them is itself a signal.
		chromedp.Flag("disable-reading-from-canvas", false),
		chromedp.Flag("enable-webgl", true),

		chromedp.WindowSize(1920, 1080),
	}

	if userDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(userDataDir))
	}

	if config.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}

	if config.NoSandbox {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}
