package interfaces

import (
	"github.com/ternarybob/scriba/internal/models"
)

// SessionStore persists authentication cookies for the shared bot identity.
// Caller-identity sessions never touch the store.
type SessionStore interface {
	// Load returns the persisted cookie snapshot, or an empty slice when no
	// snapshot exists yet.
	Load() ([]models.Cookie, error)
	// Save replaces the persisted snapshot.
	Save(cookies []models.Cookie) error
	// Clear deletes the snapshot.
	Clear() error
	// Path returns the backing file path.
	Path() string
}
