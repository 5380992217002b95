package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Default retry policy values.
const (
	DefaultMaxRetries = 3
	DefaultRetryStep  = time.Second
	DefaultMaxDelay   = 30 * time.Second
)

// RetryPolicy bounds re-authentication after an expired token or a
// connection failure.
type RetryPolicy struct {
	// MaxRetries is the number of re-logins allowed per request.
	// Zero disables re-authentication.
	MaxRetries int

	// Step is the linear backoff increment.
	Step time.Duration

	// MaxDelay caps a single wait.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the default policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		Step:       DefaultRetryStep,
		MaxDelay:   DefaultMaxDelay,
	}
}

// Delay returns the wait before the retry with index n (starting at 0).
// The first retry is immediate; the delay then grows by Step per retry up to
// MaxDelay.
func (p RetryPolicy) Delay(n int) time.Duration {
	if n <= 0 || p.Step <= 0 {
		return 0
	}
	d := time.Duration(n) * p.Step
	if p.MaxDelay > 0 && (d > p.MaxDelay || d/time.Duration(n) != p.Step) {
		return p.MaxDelay
	}
	return d
}

// Validate checks the policy for negative values.
func (p RetryPolicy) Validate() error {
	var errs []error
	if p.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max retries must be >= 0, got %d", p.MaxRetries))
	}
	if p.Step < 0 {
		errs = append(errs, fmt.Errorf("retry step must be >= 0, got %s", p.Step))
	}
	if p.MaxDelay < 0 {
		errs = append(errs, fmt.Errorf("max delay must be >= 0, got %s", p.MaxDelay))
	}
	return errors.Join(errs...)
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time

	// Sleep waits for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}
