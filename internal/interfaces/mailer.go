package interfaces

import (
	"context"

	"github.com/ternarybob/scriba/internal/models"
)

// Mailer delivers job outcomes by email. Both operations are best-effort
// from the job manager's perspective: a failed success-mail surfaces as a
// DeliveryError, a failed failure-notice is logged and swallowed.
type Mailer interface {
	// SendArtifact emails the exported artifact to the delivery address.
	SendArtifact(ctx context.Context, to, profileURL string, artifact *models.Artifact) error
	// SendFailureNotice emails a human-readable failure explanation.
	SendFailureNotice(ctx context.Context, to, reason string) error
	// IsConfigured reports whether SMTP settings are complete enough to
	// attempt delivery.
	IsConfigured() bool
}
