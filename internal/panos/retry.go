package panos

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/logger"
)

// AttemptFunc performs one transport call. It must be safe to invoke
// repeatedly; the retryer owns the decision to do so.
type AttemptFunc func(ctx context.Context) (map[string]any, error)

// Retryer executes an attempt function with bounded retries and
// exponential backoff. Only UNREACHABLE and TIMEOUT failures are
// retried; everything else is terminal on the first occurrence. This is
// the only component in the query pipeline allowed to sleep.
type Retryer struct {
	maxAttempts int
	baseDelay   time.Duration
	log         logger.Logger

	// sleep is swappable in tests so backoff schedules can be asserted
	// without wall-clock waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryer creates a retryer. maxAttempts counts the first try, so 3
// means at most two retries.
func NewRetryer(maxAttempts int, baseDelay time.Duration, log logger.Logger) *Retryer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Retryer{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		log:         log,
		sleep:       sleepCtx,
	}
}

// Do runs the attempt loop: Pending → Attempting → {Success,
// RetryableFailure → Backoff → Attempting, TerminalFailure}. It returns
// the payload, the number of attempts consumed, and the final error
// (nil on success).
func (r *Retryer) Do(ctx context.Context, attempt AttemptFunc) (map[string]any, int, error) {
	var lastErr error

	for k := 1; k <= r.maxAttempts; k++ {
		payload, err := attempt(ctx)
		if err == nil {
			return payload, k, nil
		}
		lastErr = err

		if !errors.IsRetryable(err) {
			r.log.Debug("terminal failure on attempt %d: %s", k, errors.Code(err))
			return nil, k, err
		}
		if k == r.maxAttempts {
			break
		}

		delay := r.backoff(k)
		r.log.Warn("attempt %d/%d failed (%s), retrying in %s", k, r.maxAttempts, errors.Code(err), delay.Round(time.Millisecond))
		if err := r.sleep(ctx, delay); err != nil {
			return nil, k, errors.Wrap(err, errors.ErrTimeout, "Retry wait interrupted")
		}
	}

	return nil, r.maxAttempts, errors.WrapWithSuggestion(lastErr, errors.Code(lastErr),
		"Giving up after repeated transient failures",
		"The firewall may be rebooting or its management plane overloaded.")
}

// backoff computes the delay after failed attempt k: base * 2^(k-1)
// plus uniform jitter in [0, base). The jitter keeps a fleet polled on
// one schedule from hammering a recovering device in lockstep.
func (r *Retryer) backoff(k int) time.Duration {
	delay := r.preJitterBackoff(k)
	if r.baseDelay > 0 {
		delay += rand.N(r.baseDelay)
	}
	return delay
}

// preJitterBackoff is the deterministic part of the schedule.
func (r *Retryer) preJitterBackoff(k int) time.Duration {
	delay := r.baseDelay
	for i := 1; i < k; i++ {
		delay *= 2
	}
	return delay
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
