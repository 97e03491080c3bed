package storage

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
)

const (
	exportFile = "export.txt"
	bundleFile = "bundle.zip"
)

// ArtifactStore lays out per-session artifacts on top of an Adapter:
//
//	[<key_prefix>/]sessions/<id>/export.txt
//	[<key_prefix>/]sessions/<id>/bundle.zip
type ArtifactStore struct {
	adapter Adapter
	root    string
}

// NewArtifactStore wraps adapter with keys rooted at sessions/
func NewArtifactStore(adapter Adapter) *ArtifactStore {
	return &ArtifactStore{adapter: adapter, root: sessionsDir}
}

// Adapter returns the underlying backend
func (s *ArtifactStore) Adapter() Adapter {
	return s.adapter
}

// Copy saves an export prompt for the session. It lets the store act as
// the server-side clipboard.
func (s *ArtifactStore) Copy(ctx context.Context, sessionID, text string) error {
	key, err := s.sessionKey(sessionID, exportFile)
	if err != nil {
		return err
	}
	if err := s.adapter.Put(ctx, key, strings.NewReader(text)); err != nil {
		return err
	}
	log.Printf("[Storage] Saved export for session %s (%d bytes)", sessionID, len(text))
	return nil
}

// LoadExport returns the last export saved for the session
func (s *ArtifactStore) LoadExport(ctx context.Context, sessionID string) (string, error) {
	key, err := s.sessionKey(sessionID, exportFile)
	if err != nil {
		return "", err
	}
	data, err := s.read(ctx, key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveBundle stores a session bundle and returns its key
func (s *ArtifactStore) SaveBundle(ctx context.Context, sessionID string, data []byte) (string, error) {
	key, err := s.sessionKey(sessionID, bundleFile)
	if err != nil {
		return "", err
	}
	if err := s.adapter.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return "", err
	}
	log.Printf("[Storage] Saved bundle for session %s (%d bytes)", sessionID, len(data))
	return key, nil
}

// DeleteSession removes every artifact of the session
func (s *ArtifactStore) DeleteSession(ctx context.Context, sessionID string) error {
	prefix, err := s.sessionKey(sessionID, "")
	if err != nil {
		return err
	}
	keys, err := s.adapter.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.adapter.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the backend
func (s *ArtifactStore) Close() error {
	return s.adapter.Close()
}

// Ping checks the backend
func (s *ArtifactStore) Ping(ctx context.Context) error {
	return s.adapter.Ping(ctx)
}

func (s *ArtifactStore) read(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.adapter.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
