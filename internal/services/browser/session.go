package browser

import (
	"context"
	"os"
	"sync/atomic"

	"github.com/ternarybob/scriba/internal/models"
)

// Session wraps one live chromedp browser context together with the
// directories it owns on disk.
type Session struct {
	kind        models.SessionKind
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	downloadDir string
	userDataDir string // removed on close for disposable sessions
	closed      atomic.Bool
}

// Context returns the chromedp browser context for driving the session.
func (s *Session) Context() context.Context {
	return s.ctx
}

// DownloadDir returns the directory the browser saves exported files into.
func (s *Session) DownloadDir() string {
	return s.downloadDir
}

// Kind reports whether this is the shared or a disposable session.
func (s *Session) Kind() models.SessionKind {
	return s.kind
}

// Alive reports whether the underlying browser context is still usable.
func (s *Session) Alive() bool {
	return !s.closed.Load() && s.ctx.Err() == nil
}

// close tears down the browser contexts and, for disposable sessions,
// removes the isolated identity store and download directory. Safe to call
// more than once.
func (s *Session) close() {
	if s.closed.Swap(true) {
		return
	}

	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}

	if s.kind == models.SessionKindDisposable {
		if s.userDataDir != "" {
			os.RemoveAll(s.userDataDir)
		}
		if s.downloadDir != "" {
			os.RemoveAll(s.downloadDir)
		}
	}
}
