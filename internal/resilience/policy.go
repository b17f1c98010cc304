package resilience

import (
	"context"
	"errors"
	"math"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/greenfinch/fieldvisit/internal/config"
)

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return e.Provider + ": unexpected status " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}

// Transient reports whether retrying could succeed.
func (e *StatusError) Transient() bool {
	switch e.StatusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsTransient reports whether err is worth retrying: a transient provider
// status or a network timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Policy guards calls to one provider.
type Policy struct {
	Name           string
	MaxAttempts    int
	InitialBackoff time.Duration
	Breaker        *Breaker
}

// NewPolicy builds a policy for the named provider from config. A
// MaxAttempts of 1 disables retries.
func NewPolicy(name string, cfg config.ResilienceConfig) *Policy {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Policy{
		Name:           name,
		MaxAttempts:    attempts,
		InitialBackoff: time.Duration(cfg.InitialBackoffMs) * time.Millisecond,
		Breaker: NewBreaker(cfg.FailureThreshold, time.Duration(cfg.ResetTimeoutSecs)*time.Second,
			func(from, to State) {
				zap.L().Warn("resilience: breaker state change",
					zap.String("provider", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			}),
	}
}

// Call runs fn under p. A nil policy runs fn once.
func Call[T any](ctx context.Context, p *Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	if p == nil {
		return fn(ctx)
	}

	var (
		zero T
		err  error
	)
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if p.Breaker != nil {
			if berr := p.Breaker.Allow(); berr != nil {
				return zero, berr
			}
		}

		var val T
		val, err = fn(ctx)
		// A caller that gave up says nothing about the provider.
		if p.Breaker != nil && ctx.Err() == nil {
			p.Breaker.Record(err)
		}
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || !IsTransient(err) || attempt == p.MaxAttempts {
			break
		}

		zap.L().Warn("resilience: retrying",
			zap.String("provider", p.Name),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if serr := Sleep(ctx, backoff(p.InitialBackoff, attempt)); serr != nil {
			break
		}
	}
	return zero, err
}

func backoff(initial time.Duration, attempt int) time.Duration {
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	d := time.Duration(float64(initial) * math.Pow(2, float64(attempt-1)))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
