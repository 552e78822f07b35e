package common

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrConditionTimeout is returned by AwaitCondition when the check never
// succeeded within the attempt budget.
var ErrConditionTimeout = errors.New("condition not met within attempt budget")

// CheckFunc probes a condition once. Returning (true, nil) ends the wait.
// A non-nil error aborts the wait immediately.
type CheckFunc func(ctx context.Context) (bool, error)

// AwaitCondition polls check at a fixed interval until it succeeds, errors,
// the attempt budget is exhausted, or the context is cancelled. Every
// in-page wait (content loaded, challenge resolved, file downloaded) goes
// through this instead of a hand-rolled loop.
func AwaitCondition(ctx context.Context, check CheckFunc, interval time.Duration, maxAttempts int) error {
	if maxAttempts <= 0 {
		return fmt.Errorf("maxAttempts must be positive, got %d", maxAttempts)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ok, err := check(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	return fmt.Errorf("%w after %d attempts at %s intervals", ErrConditionTimeout, maxAttempts, interval)
}
