package panos

import (
	"context"
	"testing"
	"time"

	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleep replaces the retryer's sleep so tests can assert the
// backoff schedule without waiting.
func recordingSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestRetryer_SuccessFirstAttempt(t *testing.T) {
	r := NewRetryer(3, time.Second, logger.Noop())
	var delays []time.Duration
	r.sleep = recordingSleep(&delays)

	calls := 0
	payload, attempts, err := r.Do(context.Background(), func(ctx context.Context) (map[string]any, error) {
		calls++
		return map[string]any{"ok": true}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
	assert.Equal(t, true, payload["ok"])
	assert.Empty(t, delays)
}

func TestRetryer_UnauthorizedNeverRetried(t *testing.T) {
	r := NewRetryer(5, time.Second, logger.Noop())
	var delays []time.Duration
	r.sleep = recordingSleep(&delays)

	calls := 0
	_, attempts, err := r.Do(context.Background(), func(ctx context.Context) (map[string]any, error) {
		calls++
		return nil, errors.New(errors.ErrUnauthorized, "API key rejected", "")
	})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUnauthorized))
	assert.Equal(t, 1, calls, "auth failures must invoke the transport exactly once")
	assert.Equal(t, 1, attempts)
	assert.Empty(t, delays)
}

func TestRetryer_MalformedAndRemoteAreTerminal(t *testing.T) {
	for _, code := range []string{errors.ErrMalformed, errors.ErrRemote} {
		t.Run(code, func(t *testing.T) {
			r := NewRetryer(4, time.Second, logger.Noop())
			var delays []time.Duration
			r.sleep = recordingSleep(&delays)

			calls := 0
			_, _, err := r.Do(context.Background(), func(ctx context.Context) (map[string]any, error) {
				calls++
				return nil, errors.New(code, "boom", "")
			})

			require.Error(t, err)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestRetryer_TimeoutRetriedToExhaustion(t *testing.T) {
	const maxAttempts = 3
	base := 100 * time.Millisecond

	r := NewRetryer(maxAttempts, base, logger.Noop())
	var delays []time.Duration
	r.sleep = recordingSleep(&delays)

	calls := 0
	_, attempts, err := r.Do(context.Background(), func(ctx context.Context) (map[string]any, error) {
		calls++
		return nil, errors.New(errors.ErrTimeout, "Request timed out", "")
	})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTimeout))
	assert.Equal(t, maxAttempts, calls)
	assert.Equal(t, maxAttempts, attempts)

	// One backoff between each pair of attempts.
	require.Len(t, delays, maxAttempts-1)

	// Each delay is base*2^(k-1) plus jitter in [0, base).
	for k, d := range delays {
		lower := base << k
		upper := lower + base
		assert.GreaterOrEqual(t, d, lower, "delay %d below schedule", k+1)
		assert.Less(t, d, upper, "delay %d jitter out of range", k+1)
	}
}

func TestRetryer_PreJitterScheduleDoubles(t *testing.T) {
	r := NewRetryer(5, 5*time.Second, logger.Noop())

	var prev time.Duration
	for k := 1; k <= 4; k++ {
		d := r.preJitterBackoff(k)
		assert.Equal(t, 5*time.Second<<(k-1), d)
		assert.Greater(t, d, prev, "pre-jitter schedule must strictly increase")
		prev = d
	}
}

func TestRetryer_TransientThenSuccess(t *testing.T) {
	r := NewRetryer(3, time.Second, logger.Noop())
	var delays []time.Duration
	r.sleep = recordingSleep(&delays)

	calls := 0
	payload, attempts, err := r.Do(context.Background(), func(ctx context.Context) (map[string]any, error) {
		calls++
		if calls < 3 {
			return nil, errors.New(errors.ErrUnreachable, "Cannot reach fw", "")
		}
		return map[string]any{"ok": true}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, delays, 2)
	assert.Equal(t, true, payload["ok"])
}

func TestRetryer_CancelledContextStopsRetrying(t *testing.T) {
	r := NewRetryer(5, time.Hour, logger.Noop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, _, err := r.Do(ctx, func(ctx context.Context) (map[string]any, error) {
		calls++
		return nil, errors.New(errors.ErrTimeout, "Request timed out", "")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "a cancelled context must not sleep an hour between retries")
}

func TestRetryer_MinimumOneAttempt(t *testing.T) {
	r := NewRetryer(0, time.Second, logger.Noop())

	calls := 0
	_, attempts, err := r.Do(context.Background(), func(ctx context.Context) (map[string]any, error) {
		calls++
		return map[string]any{}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
}
