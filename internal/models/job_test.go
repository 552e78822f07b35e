package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    JobStatus
		to      JobStatus
		allowed bool
	}{
		{"queued to authenticating", JobStatusQueued, JobStatusAuthenticating, true},
		{"queued straight to failed", JobStatusQueued, JobStatusFailed, true},
		{"authenticating to extracting", JobStatusAuthenticating, JobStatusExtracting, true},
		{"extracting to delivering", JobStatusExtracting, JobStatusDelivering, true},
		{"delivering to completed", JobStatusDelivering, JobStatusCompleted, true},
		{"extracting skips to completed", JobStatusExtracting, JobStatusCompleted, true},
		{"backwards to queued", JobStatusExtracting, JobStatusQueued, false},
		{"backwards to authenticating", JobStatusDelivering, JobStatusAuthenticating, false},
		{"same phase", JobStatusExtracting, JobStatusExtracting, false},
		{"out of completed", JobStatusCompleted, JobStatusFailed, false},
		{"out of failed", JobStatusFailed, JobStatusCompleted, false},
		{"unknown target", JobStatusQueued, JobStatus("paused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.False(t, JobStatusQueued.IsTerminal())
	assert.False(t, JobStatusDelivering.IsTerminal())
}

func TestJob_Clone(t *testing.T) {
	job := &Job{ID: "job_1", Status: JobStatusQueued}

	clone := job.Clone()
	clone.Status = JobStatusFailed

	assert.Equal(t, JobStatusQueued, job.Status)
	assert.Nil(t, (*Job)(nil).Clone())
}

func TestJob_CredentialsNeverSerialized(t *testing.T) {
	job := &Job{
		ID:       "job_1",
		Kind:     JobKindUserCredentials,
		Username: "jane@site.com",
		Password: "hunter2",
		Email:    "jane@example.com",
		Status:   JobStatusQueued,
	}

	data, err := json.Marshal(job)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "jane@site.com")
	assert.NotContains(t, string(data), "hunter2")
	assert.Contains(t, string(data), "jane@example.com")
}
