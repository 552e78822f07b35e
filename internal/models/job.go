package models

import (
	"time"
)

// JobStatus represents the state of an export job
type JobStatus string

const (
	JobStatusQueued         JobStatus = "queued"
	JobStatusAuthenticating JobStatus = "authenticating"
	JobStatusExtracting     JobStatus = "extracting"
	JobStatusDelivering     JobStatus = "delivering"
	JobStatusCompleted      JobStatus = "completed"
	JobStatusFailed         JobStatus = "failed"
)

// statusOrder defines the forward-only phase progression. Terminal states
// (completed, failed) share the highest rank so a job reaches exactly one.
var statusOrder = map[JobStatus]int{
	JobStatusQueued:         0,
	JobStatusAuthenticating: 1,
	JobStatusExtracting:     2,
	JobStatusDelivering:     3,
	JobStatusCompleted:      4,
	JobStatusFailed:         4,
}

// Rank returns the position of the status in the phase order, or -1 for
// unknown statuses.
func (s JobStatus) Rank() int {
	rank, ok := statusOrder[s]
	if !ok {
		return -1
	}
	return rank
}

// IsTerminal reports whether the status is completed or failed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo reports whether moving from s to next respects the
// forward-only phase order. Terminal states accept no further transitions.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s.IsTerminal() {
		return false
	}
	return next.Rank() > s.Rank()
}

// JobKind selects the extraction strategy for a job
type JobKind string

const (
	// JobKindBotURL exports a caller-supplied profile URL using the shared
	// bot identity.
	JobKindBotURL JobKind = "bot_url"
	// JobKindUserCredentials exports the caller's own profile using
	// credentials supplied with the request, in an isolated session.
	JobKindUserCredentials JobKind = "user_credentials"
)

// Job is the unit of work tracked by the job manager. A record is created at
// submission time and mutated only by its own execution goroutine until it
// reaches a terminal status. Records are retained for the process lifetime.
type Job struct {
	ID         string  `json:"id"`
	Kind       JobKind `json:"kind"`
	ProfileURL string  `json:"profile_url,omitempty"`
	// Username and Password are only set for user_credentials jobs and are
	// never included in API responses.
	Username string `json:"-"`
	Password string `json:"-"`
	// Email is the delivery address for the exported artifact.
	Email   string    `json:"email"`
	Status  JobStatus `json:"status"`
	Message string    `json:"message,omitempty"`
	// NeedsManualInput is set when the caller must resubmit with additional
	// data (an explicit profile URL) before the job can be retried.
	NeedsManualInput bool      `json:"needs_manual_input"`
	CreatedAt        time.Time `json:"created_at"`
	CompletedAt      time.Time `json:"completed_at,omitempty"`
}

// Clone returns a copy of the job safe to hand to API callers while the
// execution goroutine keeps mutating the original.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	clone := *j
	return &clone
}

// Credentials is an identity/secret pair for caller-identity authentication.
type Credentials struct {
	Username string
	Password string
}

// Artifact is the binary file produced by the export action. The on-disk
// download never outlives its job; only the in-memory bytes are passed on.
type Artifact struct {
	Filename string
	Data     []byte
}
