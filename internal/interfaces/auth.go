package interfaces

import (
	"context"

	"github.com/ternarybob/scriba/internal/models"
)

// Authenticator drives the external site's login flow on a browser session
// to a terminal authenticated or failed state, including multi-step
// verification challenges.
type Authenticator interface {
	// Authenticate logs the session in as the given identity. When
	// sharedIdentity is true the persisted cookie snapshot is injected
	// first and refreshed on success; caller-identity runs never read or
	// write the snapshot.
	Authenticate(ctx context.Context, session BrowserSession, creds models.Credentials, sharedIdentity bool) error
	// CheckAuthenticated reports whether the session currently holds an
	// authenticated state, without driving the login flow.
	CheckAuthenticated(ctx context.Context, session BrowserSession) (bool, error)
}
