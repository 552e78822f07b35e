package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
	"github.com/ternarybob/scriba/internal/models"
)

const downloadPollInterval = time.Second

// awaitDownload waits for a file with the expected extension to appear in
// the session's download directory, reads it into memory, and deletes it
// from disk. The artifact never outlives its job on disk.
func awaitDownload(ctx context.Context, dir, ext string, timeout time.Duration, logger arbor.ILogger) (*models.Artifact, error) {
	maxAttempts := int(timeout / downloadPollInterval)
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var found string
	check := func(ctx context.Context) (bool, error) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			// Directory may not be visible yet right after browser launch.
			return false, nil
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			// Chrome writes in-progress downloads with a .crdownload suffix.
			if strings.HasSuffix(name, ".crdownload") {
				continue
			}
			if strings.HasSuffix(strings.ToLower(name), ext) {
				found = name
				return true, nil
			}
		}
		return false, nil
	}

	if err := common.AwaitCondition(ctx, check, downloadPollInterval, maxAttempts); err != nil {
		if errors.Is(err, common.ErrConditionTimeout) {
			return nil, fmt.Errorf("%w: no %s file in %s after %s", models.ErrDownloadTimeout, ext, dir, timeout)
		}
		return nil, err
	}

	path := filepath.Join(dir, found)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read downloaded file %s: %w", path, err)
	}

	if err := os.Remove(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to delete downloaded file after read")
	}

	logger.Info().
		Str("file", found).
		Int("size_bytes", len(data)).
		Msg("Export downloaded and removed from disk")

	return &models.Artifact{Filename: found, Data: data}, nil
}
