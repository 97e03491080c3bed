// Package retry wraps outbound generation calls with failure
// classification and exponential backoff.
package retry

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/unalkalkan/ReelPilot/internal/apierror"
	"github.com/unalkalkan/ReelPilot/pkg/types"
)

const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 1000 * time.Millisecond
)

// Action is the outcome of classifying a failed attempt
type Action int

const (
	// NoRetry returns the error to the caller as it is
	NoRetry Action = iota
	// RetryAfter waits Decision.Delay and tries again
	RetryAfter
	// Fatal stops immediately; Decision.Kind says why
	Fatal
)

func (a Action) String() string {
	switch a {
	case NoRetry:
		return "no_retry"
	case RetryAfter:
		return "retry_after"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// FatalKind explains a Fatal decision
type FatalKind int

const (
	FatalNone FatalKind = iota
	FatalConfig
	FatalCancelled
	FatalClient
)

// Decision is the classification of a single failed attempt
type Decision struct {
	Action Action
	Delay  time.Duration
	Kind   FatalKind
}

// Policy controls the attempt cap and backoff cadence
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration

	// Sleep waits between attempts. It must return an error when ctx is
	// done before the delay elapses. Defaults to a timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns three attempts starting at one second
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
	}
}

// FromConfig builds a policy from pipeline settings
func FromConfig(cfg types.PipelineConfig) Policy {
	p := DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.RetryBackoffMs > 0 {
		p.InitialDelay = time.Duration(cfg.RetryBackoffMs) * time.Millisecond
	}
	return p
}

// Delay returns the wait before the attempt following the given one (1-based)
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.InitialDelay << uint(attempt-1)
}

// Classify decides what to do with the error returned by the given attempt
func (p Policy) Classify(err error, attempt int) Decision {
	if _, ok := apierror.AsConfig(err); ok {
		return Decision{Action: Fatal, Kind: FatalConfig}
	}
	if apierror.IsCancelled(err) {
		return Decision{Action: Fatal, Kind: FatalCancelled}
	}

	code, ok := apierror.StatusCode(err)
	if !ok {
		return Decision{Action: NoRetry}
	}
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return Decision{Action: Fatal, Kind: FatalClient}
	}
	if code == http.StatusTooManyRequests || (code >= 500 && code < 600) {
		if attempt >= p.MaxAttempts {
			return Decision{Action: NoRetry}
		}
		return Decision{Action: RetryAfter, Delay: p.Delay(attempt)}
	}
	return Decision{Action: NoRetry}
}

// Do runs op until it succeeds, fails terminally or runs out of attempts.
// A context that is already done short-circuits before op is called.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	sleep := p.Sleep
	if sleep == nil {
		sleep = wait
	}

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, apierror.ErrCancelled
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		decision := p.Classify(err, attempt)
		switch decision.Action {
		case Fatal:
			if decision.Kind == FatalCancelled {
				return zero, apierror.ErrCancelled
			}
			return zero, err
		case NoRetry:
			if code, ok := apierror.StatusCode(err); ok && code == http.StatusTooManyRequests {
				log.Printf("[retry] Attempt %d/%d failed with 429, giving up", attempt, p.MaxAttempts)
				return zero, &apierror.QuotaExceededError{Cause: err}
			}
			if attempt >= p.MaxAttempts {
				log.Printf("[retry] Attempt %d/%d failed, giving up: %v", attempt, p.MaxAttempts, err)
			}
			return zero, err
		case RetryAfter:
			code, _ := apierror.StatusCode(err)
			log.Printf("[retry] Attempt %d/%d failed (status %d), retrying in %v: %v",
				attempt, p.MaxAttempts, code, decision.Delay, err)
			if err := sleep(ctx, decision.Delay); err != nil {
				return zero, apierror.ErrCancelled
			}
		}
	}

	return zero, apierror.ErrRetriesExhausted
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
