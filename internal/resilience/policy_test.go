package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfinch/fieldvisit/internal/config"
)

func TestCall_NilPolicy(t *testing.T) {
	v, err := Call(context.Background(), nil, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestCall_NoRetryByDefault(t *testing.T) {
	p := NewPolicy("mistral", config.ResilienceConfig{MaxAttempts: 1})
	calls := 0
	_, err := Call(context.Background(), p, func(context.Context) (string, error) {
		calls++
		return "", &StatusError{Provider: "mistral", StatusCode: 503}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCall_RetriesTransient(t *testing.T) {
	p := NewPolicy("mistral", config.ResilienceConfig{MaxAttempts: 3, InitialBackoffMs: 1})
	calls := 0
	v, err := Call(context.Background(), p, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &StatusError{Provider: "mistral", StatusCode: 429}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestCall_PermanentErrorNotRetried(t *testing.T) {
	p := NewPolicy("mistral", config.ResilienceConfig{MaxAttempts: 3, InitialBackoffMs: 1})
	calls := 0
	_, err := Call(context.Background(), p, func(context.Context) (string, error) {
		calls++
		return "", &StatusError{Provider: "mistral", StatusCode: 401, Body: "bad key"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "unexpected status 401: bad key")
}

func TestCall_OpenBreakerRejects(t *testing.T) {
	p := NewPolicy("anthropic", config.ResilienceConfig{MaxAttempts: 1, FailureThreshold: 1, ResetTimeoutSecs: 60})
	_, err := Call(context.Background(), p, func(context.Context) (int, error) {
		return 0, errors.New("down")
	})
	require.Error(t, err)

	calls := 0
	_, err = Call(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.Zero(t, calls)
}

func TestCall_CallerCancellationDoesNotTripBreaker(t *testing.T) {
	p := NewPolicy("mistral", config.ResilienceConfig{MaxAttempts: 1, FailureThreshold: 2, ResetTimeoutSecs: 60})

	for range 5 {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Call(ctx, p, func(ctx context.Context) (int, error) {
			return 0, ctx.Err()
		})
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, Closed, p.Breaker.State())

	v, err := Call(context.Background(), p, func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.True(t, IsTransient(&StatusError{StatusCode: 502}))
	assert.False(t, IsTransient(&StatusError{StatusCode: 400}))
	assert.True(t, IsTransient(timeoutErr{}))
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))
	require.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, backoff(100*time.Millisecond, 1))
	assert.Equal(t, 400*time.Millisecond, backoff(100*time.Millisecond, 3))
	assert.Equal(t, 30*time.Second, backoff(10*time.Second, 10))
	assert.Equal(t, 500*time.Millisecond, backoff(0, 1))
}
