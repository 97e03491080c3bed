package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unalkalkan/ReelPilot/internal/apierror"
	"github.com/unalkalkan/ReelPilot/pkg/types"
)

// recordingPolicy returns a default policy whose waits are recorded instead of slept
func recordingPolicy(delays *[]time.Duration) Policy {
	p := DefaultPolicy()
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
	return p
}

func failingOp(calls *int, err error) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		*calls++
		return "", err
	}
}

func TestDo_RateLimitBecomesQuotaError(t *testing.T) {
	var delays []time.Duration
	calls := 0
	cause := &apierror.StatusError{Code: 429, Message: "resource exhausted"}

	_, err := Do(context.Background(), recordingPolicy(&delays), failingOp(&calls, cause))

	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
	want := []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("Expected delays %v, got %v", want, delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("Expected delay %d to be %v, got %v", i, want[i], delays[i])
		}
	}

	var quotaErr *apierror.QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Expected quota error, got %v", err)
	}
	if !errors.Is(quotaErr.Cause, cause) {
		t.Errorf("Expected original 429 as cause, got %v", quotaErr.Cause)
	}
}

func TestDo_ServerErrorPropagatesRaw(t *testing.T) {
	var delays []time.Duration
	calls := 0
	cause := &apierror.StatusError{Code: 500, Message: "internal"}

	_, err := Do(context.Background(), recordingPolicy(&delays), failingOp(&calls, cause))

	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Errorf("Expected delays [1s 2s], got %v", delays)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected raw 500 error, got %v", err)
	}
	if apierror.IsQuotaExceeded(err) {
		t.Error("500 must not be reported as quota error")
	}
}

func TestDo_ClientErrorNotRetried(t *testing.T) {
	var delays []time.Duration
	calls := 0
	cause := &apierror.StatusError{Code: 404, Message: "model not found"}

	_, err := Do(context.Background(), recordingPolicy(&delays), failingOp(&calls, cause))

	if calls != 1 {
		t.Errorf("Expected 1 attempt, got %d", calls)
	}
	if len(delays) != 0 {
		t.Errorf("Expected no delays, got %v", delays)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected 404 error unchanged, got %v", err)
	}
}

func TestDo_ConfigErrorNotRetried(t *testing.T) {
	var delays []time.Duration
	calls := 0
	cause := &apierror.ConfigError{Kind: apierror.InvalidCredential}

	_, err := Do(context.Background(), recordingPolicy(&delays), failingOp(&calls, cause))

	if calls != 1 {
		t.Errorf("Expected 1 attempt, got %d", calls)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected config error unchanged, got %v", err)
	}
}

func TestDo_UnclassifiedErrorNotRetried(t *testing.T) {
	var delays []time.Duration
	calls := 0

	_, err := Do(context.Background(), recordingPolicy(&delays), failingOp(&calls, errors.New("connection reset")))

	if calls != 1 {
		t.Errorf("Expected 1 attempt, got %d", calls)
	}
	if err == nil || err.Error() != "connection reset" {
		t.Errorf("Expected raw error, got %v", err)
	}
}

func TestDo_Cancellation(t *testing.T) {
	t.Run("AlreadyCancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		var delays []time.Duration
		_, err := Do(ctx, recordingPolicy(&delays), failingOp(&calls, nil))

		if calls != 0 {
			t.Errorf("Expected operation never to be called, got %d calls", calls)
		}
		if !errors.Is(err, apierror.ErrCancelled) {
			t.Errorf("Expected ErrCancelled, got %v", err)
		}
	})

	t.Run("CancelledDuringCall", func(t *testing.T) {
		calls := 0
		var delays []time.Duration
		_, err := Do(context.Background(), recordingPolicy(&delays), failingOp(&calls, context.Canceled))

		if calls != 1 {
			t.Errorf("Expected 1 attempt, got %d", calls)
		}
		if !errors.Is(err, apierror.ErrCancelled) {
			t.Errorf("Expected ErrCancelled, got %v", err)
		}
	})

	t.Run("CancelledDuringBackoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p := DefaultPolicy()
		p.Sleep = func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}

		calls := 0
		_, err := Do(ctx, p, failingOp(&calls, &apierror.StatusError{Code: 503}))

		if calls != 1 {
			t.Errorf("Expected 1 attempt, got %d", calls)
		}
		if !errors.Is(err, apierror.ErrCancelled) {
			t.Errorf("Expected ErrCancelled, got %v", err)
		}
	})
}

func TestDo_RecoversAfterTransientFailure(t *testing.T) {
	var delays []time.Duration
	calls := 0
	op := func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &apierror.StatusError{Code: 503, Message: "overloaded"}
		}
		return "ok", nil
	}

	result, err := Do(context.Background(), recordingPolicy(&delays), op)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("Expected 'ok', got '%s'", result)
	}
	if calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls)
	}
}

func TestDo_NoAttemptsAllowed(t *testing.T) {
	p := Policy{MaxAttempts: 0, InitialDelay: time.Second}
	calls := 0

	_, err := Do(context.Background(), p, failingOp(&calls, nil))
	if !errors.Is(err, apierror.ErrRetriesExhausted) {
		t.Errorf("Expected ErrRetriesExhausted, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected 0 calls, got %d", calls)
	}
}

func TestClassify(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name    string
		err     error
		attempt int
		want    Decision
	}{
		{"config", &apierror.ConfigError{Kind: apierror.MissingCredential}, 1, Decision{Action: Fatal, Kind: FatalConfig}},
		{"cancelled", apierror.ErrCancelled, 1, Decision{Action: Fatal, Kind: FatalCancelled}},
		{"bad request", &apierror.StatusError{Code: 400}, 1, Decision{Action: Fatal, Kind: FatalClient}},
		{"rate limit first", &apierror.StatusError{Code: 429}, 1, Decision{Action: RetryAfter, Delay: time.Second}},
		{"rate limit second", &apierror.StatusError{Code: 429}, 2, Decision{Action: RetryAfter, Delay: 2 * time.Second}},
		{"rate limit last", &apierror.StatusError{Code: 429}, 3, Decision{Action: NoRetry}},
		{"unavailable", &apierror.StatusError{Code: 503}, 1, Decision{Action: RetryAfter, Delay: time.Second}},
		{"redirect", &apierror.StatusError{Code: 302}, 1, Decision{Action: NoRetry}},
		{"unknown", errors.New("eof"), 1, Decision{Action: NoRetry}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Classify(tt.err, tt.attempt)
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(types.PipelineConfig{MaxAttempts: 5, RetryBackoffMs: 250})
	if p.MaxAttempts != 5 {
		t.Errorf("Expected 5 attempts, got %d", p.MaxAttempts)
	}
	if p.Delay(3) != time.Second {
		t.Errorf("Expected third delay of 1s, got %v", p.Delay(3))
	}

	p = FromConfig(types.PipelineConfig{})
	if p.MaxAttempts != DefaultMaxAttempts || p.InitialDelay != DefaultInitialDelay {
		t.Errorf("Expected defaults, got %+v", p)
	}
}
