package health

import (
	"context"
	"errors"
)

var errCapacity = errors.New("session limit reached")

// Pinger is implemented by backends that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// Verifier is implemented by the shared generation client holder
type Verifier interface {
	Verify(ctx context.Context) error
}

// StorageCheck is unhealthy when the artifact backend cannot be reached
func StorageCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if err := p.Ping(ctx); err != nil {
			return StatusUnhealthy, err
		}
		return StatusHealthy, nil
	}
}

// CredentialCheck is degraded when no generation client can be built.
// The server keeps serving; sessions report the credential problem.
func CredentialCheck(v Verifier) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if err := v.Verify(ctx); err != nil {
			return StatusDegraded, err
		}
		return StatusHealthy, nil
	}
}

// CapacityCheck is degraded once the session registry is full
func CapacityCheck(count func() int, limit int) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if limit > 0 && count() >= limit {
			return StatusDegraded, errCapacity
		}
		return StatusHealthy, nil
	}
}
