package interfaces

import (
	"context"

	"github.com/ternarybob/scriba/internal/models"
)

// Extractor produces the exported profile artifact from an authenticated
// browser session. The target is a profile URL for the bot-identity
// strategy and ignored by the caller-identity strategy (which resolves the
// session's own profile).
type Extractor interface {
	Extract(ctx context.Context, session BrowserSession, target string) (*models.Artifact, error)
}
