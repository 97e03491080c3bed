package storage

import (
	"context"
	"errors"
	"testing"
)

func TestArtifactStore(t *testing.T) {
	adapter, err := NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create local adapter: %v", err)
	}
	store := NewArtifactStore(adapter)
	ctx := context.Background()

	t.Run("export round trip", func(t *testing.T) {
		if err := store.Copy(ctx, "sess1", "Title: Demo\n"); err != nil {
			t.Fatalf("Copy failed: %v", err)
		}
		text, err := store.LoadExport(ctx, "sess1")
		if err != nil {
			t.Fatalf("LoadExport failed: %v", err)
		}
		if text != "Title: Demo\n" {
			t.Errorf("Expected saved export, got %q", text)
		}
	})

	t.Run("missing export", func(t *testing.T) {
		if _, err := store.LoadExport(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("bundle", func(t *testing.T) {
		key, err := store.SaveBundle(ctx, "sess1", []byte("PK"))
		if err != nil {
			t.Fatalf("SaveBundle failed: %v", err)
		}
		if key != "sessions/sess1/bundle.zip" {
			t.Errorf("Expected bundle key, got %s", key)
		}
	})

	t.Run("delete session", func(t *testing.T) {
		if err := store.DeleteSession(ctx, "sess1"); err != nil {
			t.Fatalf("DeleteSession failed: %v", err)
		}
		keys, _ := adapter.List(ctx, "sessions/sess1/")
		if len(keys) != 0 {
			t.Errorf("Expected no artifacts left, got %v", keys)
		}
	})

	t.Run("invalid session id", func(t *testing.T) {
		if err := store.Copy(ctx, "../etc", "x"); err == nil {
			t.Error("Expected error for invalid session id")
		}
	})
}
