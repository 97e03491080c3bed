// Package storage persists session artifacts (export briefs and bundles)
// on the local filesystem or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned by Get when no object exists at the key
var ErrNotFound = errors.New("object not found")

// Adapter is the storage backend used by the artifact store
type Adapter interface {
	// Put stores data at key, replacing any existing object
	Put(ctx context.Context, key string, data io.Reader) error

	// Get opens the object at key. It returns ErrNotFound when absent.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the keys under prefix in lexical order
	List(ctx context.Context, prefix string) ([]string, error)

	// Ping checks that the backend is reachable and writable
	Ping(ctx context.Context) error

	Close() error
}

// cleanKey normalizes a slash-separated key and rejects keys that would
// escape the storage root
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}
	cleaned := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid storage key: %q", key)
		}
	}
	return cleaned, nil
}
