package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitCondition_SucceedsImmediately(t *testing.T) {
	err := AwaitCondition(context.Background(), func(ctx context.Context) (bool, error) {
		return true, nil
	}, time.Millisecond, 3)

	assert.NoError(t, err)
}

func TestAwaitCondition_SucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := AwaitCondition(context.Background(), func(ctx context.Context) (bool, error) {
		attempts++
		return attempts == 3, nil
	}, time.Millisecond, 5)

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestAwaitCondition_TimesOut(t *testing.T) {
	attempts := 0
	err := AwaitCondition(context.Background(), func(ctx context.Context) (bool, error) {
		attempts++
		return false, nil
	}, time.Millisecond, 4)

	assert.ErrorIs(t, err, ErrConditionTimeout)
	assert.Equal(t, 4, attempts)
}

func TestAwaitCondition_CheckErrorAborts(t *testing.T) {
	boom := errors.New("page crashed")
	attempts := 0

	err := AwaitCondition(context.Background(), func(ctx context.Context) (bool, error) {
		attempts++
		return false, boom
	}, time.Millisecond, 10)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestAwaitCondition_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := AwaitCondition(ctx, func(ctx context.Context) (bool, error) {
		return false, nil
	}, time.Hour, 2)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestAwaitCondition_RejectsNonPositiveBudget(t *testing.T) {
	err := AwaitCondition(context.Background(), func(ctx context.Context) (bool, error) {
		return true, nil
	}, time.Millisecond, 0)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConditionTimeout)
}
