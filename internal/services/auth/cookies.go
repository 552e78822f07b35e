package auth

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/ternarybob/scriba/internal/models"
)

// injectCookies writes a persisted cookie snapshot into the browser via the
// network domain. Individual failures are skipped so one stale cookie can't
// block session restore.
func (s *Service) injectCookies(browserCtx context.Context, cookies []models.Cookie) error {
	return chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			injected := 0
			for _, c := range cookies {
				params := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly)

				if c.Expires > 0 {
					expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
					params = params.WithExpires(&expires)
				}
				if c.SameSite != "" {
					params = params.WithSameSite(network.CookieSameSite(c.SameSite))
				}

				if err := params.Do(ctx); err != nil {
					s.logger.Warn().
						Err(err).
						Str("cookie_name", c.Name).
						Str("domain", c.Domain).
						Msg("Failed to inject cookie, skipping")
					continue
				}
				injected++
			}

			s.logger.Debug().
				Int("injected", injected).
				Int("total", len(cookies)).
				Msg("Cookie injection complete")
			return nil
		}),
	)
}

// snapshotCookies reads the browser's current cookies for persistence.
func (s *Service) snapshotCookies(browserCtx context.Context) ([]models.Cookie, error) {
	var snapshot []models.Cookie

	err := chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			cookies, err := network.GetCookies().WithURLs([]string{s.config.BaseURL}).Do(ctx)
			if err != nil {
				return err
			}

			snapshot = make([]models.Cookie, 0, len(cookies))
			for _, c := range cookies {
				snapshot = append(snapshot, models.Cookie{
					Name:     c.Name,
					Value:    c.Value,
					Domain:   c.Domain,
					Path:     c.Path,
					Expires:  c.Expires,
					Secure:   c.Secure,
					HTTPOnly: c.HTTPOnly,
					SameSite: string(c.SameSite),
				})
			}
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}
