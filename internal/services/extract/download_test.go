package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/models"
)

func TestAwaitDownload_ReadsAndDeletes(t *testing.T) {
	dir := t.TempDir()
	content := []byte("%PDF-1.4 test")

	go func() {
		time.Sleep(200 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "Profile.pdf"), content, 0644)
	}()

	artifact, err := awaitDownload(context.Background(), dir, ".pdf", 5*time.Second, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, "Profile.pdf", artifact.Filename)
	assert.Equal(t, content, artifact.Data)

	// The on-disk file never outlives the read.
	_, err = os.Stat(filepath.Join(dir, "Profile.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestAwaitDownload_IgnoresInProgressDownloads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Profile.pdf.crdownload"), []byte("partial"), 0644))

	_, err := awaitDownload(context.Background(), dir, ".pdf", 2*time.Second, arbor.NewLogger())
	assert.ErrorIs(t, err, models.ErrDownloadTimeout)
}

func TestAwaitDownload_Timeout(t *testing.T) {
	_, err := awaitDownload(context.Background(), t.TempDir(), ".pdf", time.Second, arbor.NewLogger())
	assert.ErrorIs(t, err, models.ErrDownloadTimeout)
}
