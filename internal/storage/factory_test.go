package storage

import (
	"context"
	"testing"

	"github.com/unalkalkan/ReelPilot/pkg/types"
)

func TestOpenArtifactStore(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown adapter", func(t *testing.T) {
		if _, err := OpenArtifactStore(types.StorageConfig{Adapter: "ftp"}); err == nil {
			t.Error("Expected error for unknown adapter")
		}
	})

	t.Run("default root", func(t *testing.T) {
		store, err := OpenArtifactStore(types.StorageConfig{
			Adapter: "local",
			Local:   types.LocalStorageOpts{BasePath: t.TempDir()},
		})
		if err != nil {
			t.Fatalf("OpenArtifactStore failed: %v", err)
		}
		defer store.Close()

		key, err := store.SaveBundle(ctx, "s1", []byte("PK"))
		if err != nil {
			t.Fatalf("SaveBundle failed: %v", err)
		}
		if key != "sessions/s1/bundle.zip" {
			t.Errorf("Expected sessions/s1/bundle.zip, got %s", key)
		}
	})

	t.Run("key prefix", func(t *testing.T) {
		base := t.TempDir()
		cfg := types.StorageConfig{
			Adapter:   "local",
			KeyPrefix: "/staging/",
			Local:     types.LocalStorageOpts{BasePath: base},
		}
		store, err := OpenArtifactStore(cfg)
		if err != nil {
			t.Fatalf("OpenArtifactStore failed: %v", err)
		}
		defer store.Close()

		key, err := store.SaveBundle(ctx, "s1", []byte("PK"))
		if err != nil {
			t.Fatalf("SaveBundle failed: %v", err)
		}
		if key != "staging/sessions/s1/bundle.zip" {
			t.Errorf("Expected staging/sessions/s1/bundle.zip, got %s", key)
		}
		if err := store.Copy(ctx, "s1", "Title: Demo\n"); err != nil {
			t.Fatalf("Copy failed: %v", err)
		}

		// An unprefixed store on the same backend sees none of it.
		plain := NewArtifactStore(store.Adapter())
		if _, err := plain.LoadExport(ctx, "s1"); err == nil {
			t.Error("Expected prefixed export to be invisible without the prefix")
		}

		if err := store.DeleteSession(ctx, "s1"); err != nil {
			t.Fatalf("DeleteSession failed: %v", err)
		}
		keys, _ := store.Adapter().List(ctx, "staging/")
		if len(keys) != 0 {
			t.Errorf("Expected no artifacts left, got %v", keys)
		}
	})

	t.Run("escaping prefix", func(t *testing.T) {
		_, err := OpenArtifactStore(types.StorageConfig{
			Adapter:   "local",
			KeyPrefix: "../outside",
			Local:     types.LocalStorageOpts{BasePath: t.TempDir()},
		})
		if err == nil {
			t.Error("Expected error for prefix escaping the storage root")
		}
	})
}
