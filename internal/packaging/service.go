// Package packaging assembles a session's artifacts into a ZIP bundle.
package packaging

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/unalkalkan/ReelPilot/internal/storage"
	"github.com/unalkalkan/ReelPilot/internal/workflow"
	"github.com/unalkalkan/ReelPilot/pkg/types"
)

const bundleVersion = "1.0"

// ErrNothingToPackage is returned before a session has a script
var ErrNothingToPackage = errors.New("session has no script to package")

// Service builds session bundles and optionally archives them
type Service struct {
	store *storage.ArtifactStore
	now   func() time.Time
}

// NewService creates a packaging service. store may be nil, in which case
// bundles are only returned, never saved.
func NewService(store *storage.ArtifactStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Manifest describes the bundle contents
type Manifest struct {
	SessionID     string      `json:"session_id"`
	Title         string      `json:"title"`
	Topic         string      `json:"topic"`
	Stage         types.Stage `json:"stage"`
	Mode          types.Mode  `json:"mode"`
	Style         types.Style `json:"style"`
	TotalDuration float64     `json:"total_duration_seconds"`
	Segments      int         `json:"segments"`
	Images        []string    `json:"images"`
	CreatedAt     time.Time   `json:"created_at"`
	Version       string      `json:"version"`
}

// PackageSession writes the bundle for snap:
//
//	manifest.json, script.json, brief.txt, subtitles.srt,
//	plans.json, publishing.json, topics.json, images/
//
// Entries for artifacts the session has not produced yet are omitted.
func (s *Service) PackageSession(ctx context.Context, snap workflow.Snapshot) ([]byte, error) {
	if snap.Script == nil {
		return nil, ErrNothingToPackage
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	images := make([]string, 0, len(snap.Visuals))
	perScene := make(map[int]int)
	for _, img := range snap.Visuals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		perScene[img.Scene]++
		name := fmt.Sprintf("images/scene_%02d_%d%s", img.Scene, perScene[img.Scene], extension(img.MIMEType))
		if err := addFileFromReader(zw, name, bytes.NewReader(img.Data)); err != nil {
			return nil, fmt.Errorf("failed to add image %s: %w", img.ID, err)
		}
		images = append(images, name)
	}

	manifest := Manifest{
		SessionID:     snap.ID,
		Title:         snap.Script.Title,
		Topic:         snap.SelectedTopic,
		Stage:         snap.Stage,
		Mode:          snap.Config.Mode,
		Style:         snap.Config.Style,
		TotalDuration: snap.Script.TotalDuration(),
		Segments:      len(snap.Script.Segments),
		Images:        images,
		CreatedAt:     s.now(),
		Version:       bundleVersion,
	}
	if err := addJSONFile(zw, "manifest.json", manifest); err != nil {
		return nil, fmt.Errorf("failed to add manifest: %w", err)
	}
	if err := addJSONFile(zw, "script.json", snap.Script); err != nil {
		return nil, fmt.Errorf("failed to add script: %w", err)
	}

	brief := workflow.BuildExport(snap.Script, snap.Visuals, snap.VoiceOver, snap.Music)
	if err := addFileFromReader(zw, "brief.txt", strings.NewReader(brief)); err != nil {
		return nil, fmt.Errorf("failed to add brief: %w", err)
	}

	if snap.SRT != "" {
		if err := addFileFromReader(zw, "subtitles.srt", strings.NewReader(snap.SRT+"\n")); err != nil {
			return nil, fmt.Errorf("failed to add subtitles: %w", err)
		}
	}
	if snap.VoiceOver != nil || snap.Music != nil {
		plans := struct {
			VoiceOver *types.VoiceOverPlan `json:"voice_over,omitempty"`
			Music     *types.MusicPlan     `json:"music,omitempty"`
		}{snap.VoiceOver, snap.Music}
		if err := addJSONFile(zw, "plans.json", plans); err != nil {
			return nil, fmt.Errorf("failed to add plans: %w", err)
		}
	}
	if snap.Publishing != nil {
		if err := addJSONFile(zw, "publishing.json", snap.Publishing); err != nil {
			return nil, fmt.Errorf("failed to add publishing suggestions: %w", err)
		}
	}
	if snap.Topics != nil {
		if err := addJSONFile(zw, "topics.json", snap.Topics); err != nil {
			return nil, fmt.Errorf("failed to add topics: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip: %w", err)
	}

	log.Printf("[Packaging] Built bundle for session %s: %d images, %d bytes", snap.ID, len(images), buf.Len())
	return buf.Bytes(), nil
}

// Archive builds the bundle and saves it to the artifact store
func (s *Service) Archive(ctx context.Context, snap workflow.Snapshot) ([]byte, string, error) {
	data, err := s.PackageSession(ctx, snap)
	if err != nil {
		return nil, "", err
	}
	if s.store == nil {
		return data, "", nil
	}
	key, err := s.store.SaveBundle(ctx, snap.ID, data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to save bundle: %w", err)
	}
	return data, key, nil
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func addJSONFile(zw *zip.Writer, path string, data any) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return addFileFromReader(zw, path, bytes.NewReader(jsonData))
}

func addFileFromReader(zw *zip.Writer, path string, reader io.Reader) error {
	writer, err := zw.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}
	if _, err := io.Copy(writer, reader); err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}
	return nil
}
