package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewJobID generates a unique job ID.
// Format: job_<unix-millis>_<uuid-fragment>. Time-ordered for readable logs,
// random suffix so ids are never reused even within the same millisecond.
func NewJobID() string {
	return fmt.Sprintf("job_%d_%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}
