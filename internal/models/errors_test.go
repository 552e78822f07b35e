package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("email", "must be a valid email address")

	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "email")

	wrapped := fmt.Errorf("submit: %w", err)
	assert.True(t, IsValidationError(wrapped))

	assert.False(t, IsValidationError(errors.New("plain")))
	assert.False(t, IsValidationError(nil))
}

func TestEntryPointNotFoundError(t *testing.T) {
	err := &EntryPointNotFoundError{
		EntryPoint: "Resources",
		Candidates: []string{"Open to", "More"},
	}

	assert.True(t, IsEntryPointNotFound(err))
	assert.Contains(t, err.Error(), "Resources")
	assert.Contains(t, err.Error(), "Open to")

	bare := &EntryPointNotFoundError{EntryPoint: "More"}
	assert.Contains(t, bare.Error(), "no candidate elements")

	assert.False(t, IsEntryPointNotFound(ErrExportOptionNotFound))
}

func TestDeliveryError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &DeliveryError{To: "jane@example.com", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "jane@example.com")
}
