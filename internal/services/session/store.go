// -----------------------------------------------------------------------
// Session Store - file-backed cookie persistence for the shared identity
// -----------------------------------------------------------------------

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriba/internal/models"
)

// Store persists the shared bot identity's cookies as a single JSON file.
// Caller-supplied identities are never written here.
type Store struct {
	path   string
	logger arbor.ILogger
}

// NewStore creates a cookie store backed by the given file path.
func NewStore(path string, logger arbor.ILogger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted cookie snapshot. A missing file is not an error;
// it just means the shared identity has no saved session yet.
func (s *Store) Load() ([]models.Cookie, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Cookie{}, nil
		}
		return nil, fmt.Errorf("failed to read session file %s: %w", s.path, err)
	}

	var cookies []models.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", s.path, err)
	}

	s.logger.Debug().
		Int("cookie_count", len(cookies)).
		Str("path", s.path).
		Msg("Loaded session cookies")

	return cookies, nil
}

// Save replaces the persisted snapshot. Written to a temp file first and
// renamed into place so a crash mid-write can't corrupt the snapshot.
func (s *Store) Save(cookies []models.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cookies: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	s.logger.Info().
		Int("cookie_count", len(cookies)).
		Str("path", s.path).
		Msg("Session cookies persisted")

	return nil
}

// Clear deletes the snapshot. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file %s: %w", s.path, err)
	}

	s.logger.Info().Str("path", s.path).Msg("Session cookies cleared")
	return nil
}
