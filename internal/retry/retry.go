// Package retry wraps a single outbound call with a bounded retry policy.
//
// Only failures the Policy classifies as retryable are retried; everything
// else is returned on the first attempt. The delay before each retry starts
// at InitialDelay and is multiplied by Multiplier after every retry, so the
// defaults give 1s, 2s, 4s, ... There is no jitter.
//
// The loop itself is cenkalti/backoff's Retry; this package maps a Policy
// onto it and keeps the error contract callers rely on: whatever stops the
// loop, the last error returned by the call comes back unchanged.
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// StatusCoder is implemented by errors that carry an upstream HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// Policy configures how many times and how quickly a call is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero means a single attempt.
	MaxRetries int
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration
	// Multiplier scales the delay after each retry. Values below 1 are
	// treated as 2.
	Multiplier float64
	// MaxDelay caps a single wait. Zero means no cap.
	MaxDelay time.Duration
	// Retryable decides whether err is worth another attempt.
	// Nil means OnStatus(500).
	Retryable func(err error) bool
	// OnRetry, if set, is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy mirrors the dashboard's historical behaviour: one retry,
// one second, only on HTTP 500.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   1,
		InitialDelay: time.Second,
		Multiplier:   2,
		Retryable:    OnStatus(500),
	}
}

// OnStatus returns a predicate matching errors whose HTTPStatus is one of codes.
func OnStatus(codes ...int) func(error) bool {
	set := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return func(err error) bool {
		var sc StatusCoder
		if !errors.As(err, &sc) {
			return false
		}
		_, ok := set[sc.HTTPStatus()]
		return ok
	}
}

// backOff turns the Policy's delays into a jitter-free exponential backoff.
func (p Policy) backOff() *backoff.ExponentialBackOff {
	mult := p.Multiplier
	if mult < 1 {
		mult = 2
	}
	// ExponentialBackOff collapses to MaxInterval once it is reached, so
	// "no cap" has to be spelled as the largest duration.
	maxDelay := time.Duration(math.MaxInt64)
	if p.MaxDelay > 0 {
		maxDelay = p.MaxDelay
	}
	initial := min(max(p.InitialDelay, 0), maxDelay)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.Multiplier = mult
	b.RandomizationFactor = 0
	b.MaxInterval = maxDelay
	return b
}

// Do calls fn until it succeeds, returns a non-retryable error, the retry
// budget runs out, or ctx is done during a wait. The last error fn returned
// is handed back unchanged in every failure case.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = OnStatus(500)
	}

	var (
		lastErr error
		attempt int
	)
	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(max(p.MaxRetries, 0)) + 1),
		// The budget is counted in tries, never in wall time.
		backoff.WithMaxElapsedTime(0),
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, d time.Duration) {
			attempt++
			p.OnRetry(attempt, d, lastErr)
		}))
	}

	v, err := backoff.Retry(ctx, func() (T, error) {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, opts...)
	if err != nil && lastErr != nil {
		// Retry reports cancellation as ctx's cause and may leave the
		// Permanent wrapper on; the upstream failure is the useful error.
		return v, lastErr
	}
	return v, err
}
