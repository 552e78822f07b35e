package interfaces

import (
	"context"

	"github.com/ternarybob/scriba/internal/models"
)

// BrowserSession is a handle to one live browser context. The chromedp
// context it carries is what authentication and extraction drive; the
// download directory is where the browser lands exported files.
type BrowserSession interface {
	Context() context.Context
	DownloadDir() string
	Kind() models.SessionKind
	Alive() bool
}

// BrowserManager owns browser session lifecycles: the singleton shared
// bot-identity session (lazy launch, reuse-if-alive, explicit reset) and
// per-job disposable sessions (always closed on release).
type BrowserManager interface {
	// AcquireShared returns the live shared session, launching it if needed.
	AcquireShared(ctx context.Context) (BrowserSession, error)
	// AcquireDisposable always launches a brand-new isolated session with
	// its own identity store.
	AcquireDisposable(ctx context.Context) (BrowserSession, error)
	// Release returns a session. Shared sessions are kept warm; disposable
	// sessions are torn down unconditionally.
	Release(session BrowserSession)
	// Reset tears down the shared session and deletes its persisted cookie
	// state. Used to recover from a detected block.
	Reset() error
	// DisposableCount reports live disposable sessions (observable for
	// leak checks).
	DisposableCount() int
	// SharedAlive reports whether the shared session is currently live.
	SharedAlive() bool
	// Close tears down everything at process shutdown.
	Close() error
}
