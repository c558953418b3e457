// Package retry wraps a single facade call with bounded exponential backoff.
// Only failures classified as transient are retried; validation, permission,
// not-found and conflict failures propagate immediately because repeating
// them cannot succeed. The caller owns the request payload and passes the
// same value to every attempt.
package retry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pa-review-service/internal/service"
)

var retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "pareview",
	Subsystem: "client",
	Name:      "retries_total",
	Help:      "Attempts repeated after a transient failure.",
})

// Policy bounds the retry loop. Waits grow as BaseDelay * 2^attempt, with
// attempt counted from 0.
type Policy struct {
	BaseDelay   time.Duration
	MaxAttempts int
	// Sleep overrides the wait between attempts, for tests. It must return
	// early with the context error when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (p Policy) withDefaults() Policy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = 500 * time.Millisecond
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 4
	}
	if p.Sleep == nil {
		p.Sleep = sleep
	}
	return p
}

// Do invokes call until it succeeds, fails permanently, or the attempt
// budget is spent. The final attempt's error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, call func(context.Context) (T, error)) (T, error) {
	var zero T
	p = p.withDefaults()
	for attempt := 0; ; attempt++ {
		out, err := call(ctx)
		if err == nil {
			return out, nil
		}
		if !service.Retryable(err) || attempt == p.MaxAttempts-1 {
			return zero, err
		}
		retriesTotal.Inc()
		if serr := p.Sleep(ctx, p.BaseDelay<<attempt); serr != nil {
			return zero, serr
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
