// Package apierror defines the error taxonomy shared by the generation
// backends, the retry wrapper and the workflow controller.
package apierror

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCancelled is returned when an operation stopped because its
	// cancellation token fired.
	ErrCancelled = errors.New("operation cancelled")

	// ErrRetriesExhausted is returned when the retry loop ends without
	// reaching a terminal condition.
	ErrRetriesExhausted = errors.New("maximum retry attempts exceeded without success")
)

// ConfigKind distinguishes the configuration failures
type ConfigKind int

const (
	MissingCredential ConfigKind = iota + 1
	ClientInit
	InvalidCredential
)

func (k ConfigKind) String() string {
	switch k {
	case MissingCredential:
		return "missing_credential"
	case ClientInit:
		return "client_init"
	case InvalidCredential:
		return "invalid_credential"
	default:
		return "unknown"
	}
}

// ConfigError is a fatal credential or client setup failure. It is never retried.
type ConfigError struct {
	Kind   ConfigKind
	Detail string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "configuration error (" + e.Kind.String() + ")"
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// StatusError carries an HTTP-like status reported by the backend
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Code, e.Message)
}

// StatusCode returns the HTTP-like status of the failure
func (e *StatusError) StatusCode() int {
	return e.Code
}

// QuotaExceededError is raised when the backend keeps answering 429
// after every retry attempt.
type QuotaExceededError struct {
	Cause error
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("API quota exceeded (429), check your plan and billing details: %v", e.Cause)
}

func (e *QuotaExceededError) Unwrap() error {
	return e.Cause
}

// StatusCode always reports 429
func (e *QuotaExceededError) StatusCode() int {
	return 429
}

// StatusCode extracts an HTTP-like status from anywhere in the error chain
func StatusCode(err error) (int, bool) {
	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		return coded.StatusCode(), true
	}
	return 0, false
}

// AsConfig returns the configuration error in the chain, if any
func AsConfig(err error) (*ConfigError, bool) {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr, true
	}
	return nil, false
}

// IsCancelled reports whether err represents a cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// IsQuotaExceeded reports whether err is a quota failure after retries
func IsQuotaExceeded(err error) bool {
	var quotaErr *QuotaExceededError
	return errors.As(err, &quotaErr)
}
