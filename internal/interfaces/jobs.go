package interfaces

import (
	"github.com/ternarybob/scriba/internal/models"
)

// JobService accepts export job submissions and exposes polling status.
// Submissions validate synchronously and return immediately; execution is
// asynchronous and drives each job to exactly one terminal state.
type JobService interface {
	// SubmitBotURL queues an export of the given profile URL using the
	// shared bot identity.
	SubmitBotURL(profileURL, email string) (*models.Job, error)
	// SubmitCredentials queues an export of the caller's own profile using
	// their credentials in an isolated session.
	SubmitCredentials(username, password, email string) (*models.Job, error)
	// GetStatus returns a snapshot of the job record, or
	// models.ErrJobNotFound for unknown ids.
	GetStatus(id string) (*models.Job, error)
	// List returns snapshots of all job records, newest first.
	List() []*models.Job
	// ActiveCount reports jobs not yet in a terminal state.
	ActiveCount() int
}
