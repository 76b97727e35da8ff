package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kode4food/argyll/worker/pkg/api"
	"github.com/kode4food/argyll/worker/pkg/log"
)

const (
	// MaxRegistrationAttempts caps how many times step publication is
	// attempted before worker startup fails
	MaxRegistrationAttempts = 5
)

// BackoffMultiplier scales the linear backoff between registration attempts
var BackoffMultiplier = 2 * time.Second

// registerWithRetry publishes a step definition to the engine, tolerating a
// cold or slow engine at worker startup. It blocks until the step is known
// to the engine or the retry budget is exhausted, so the caller can safely
// begin serving only after it returns nil
func registerWithRetry(
	ctx context.Context, client *Client, step *api.Step, update bool,
) error {
	for attempt := 1; attempt <= MaxRegistrationAttempts; attempt++ {
		err := publishStep(ctx, client, step, update)
		if err == nil {
			return nil
		}

		slog.Warn("Failed to register step",
			log.StepID(step.ID),
			log.Attempt(attempt),
			log.Error(err))

		if attempt >= MaxRegistrationAttempts {
			break
		}

		backoff := time.Duration(attempt) * BackoffMultiplier
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%w: %d attempts",
		ErrStepRegistration, MaxRegistrationAttempts)
}

// publishStep performs one registration attempt. A conflict means the step
// already exists, so publication falls back to a single update call
func publishStep(
	ctx context.Context, client *Client, step *api.Step, update bool,
) error {
	if update {
		return client.UpdateStep(ctx, step)
	}

	err := client.RegisterStep(ctx, step)
	var ce *ClientError
	if errors.As(err, &ce) && ce.IsConflict() {
		return client.UpdateStep(ctx, step)
	}
	return err
}
