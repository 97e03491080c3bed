package storage

import (
	"fmt"
	"log"
	"strings"

	"github.com/unalkalkan/ReelPilot/pkg/types"
)

const sessionsDir = "sessions"

// NewAdapter creates the storage adapter selected by the configuration
func NewAdapter(cfg types.StorageConfig) (Adapter, error) {
	switch cfg.Adapter {
	case "local", "":
		return NewLocalAdapter(cfg.Local.BasePath)
	case "s3":
		return NewS3Adapter(S3Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Adapter)
	}
}

// OpenArtifactStore creates the configured adapter and an artifact store on
// top of it. A key prefix lets several deployments share one bucket.
func OpenArtifactStore(cfg types.StorageConfig) (*ArtifactStore, error) {
	root, err := artifactRoot(cfg.KeyPrefix)
	if err != nil {
		return nil, err
	}
	adapter, err := NewAdapter(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("[Storage] Session artifacts rooted at %s/", root)
	return &ArtifactStore{adapter: adapter, root: root}, nil
}

func artifactRoot(prefix string) (string, error) {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return sessionsDir, nil
	}
	cleaned, err := cleanKey(prefix)
	if err != nil {
		return "", fmt.Errorf("invalid storage key prefix: %w", err)
	}
	return cleaned + "/" + sessionsDir, nil
}

// sessionKey returns <root>/<id>/<name>. Session ids never contain path
// separators, so one session cannot address another's artifacts.
func (s *ArtifactStore) sessionKey(sessionID, name string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, "/\\") || strings.Contains(sessionID, "..") {
		return "", fmt.Errorf("invalid session id: %q", sessionID)
	}
	return s.root + "/" + sessionID + "/" + name, nil
}
