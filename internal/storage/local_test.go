package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
)

func TestLocalAdapter(t *testing.T) {
	tmpDir := t.TempDir()
	adapter, err := NewLocalAdapter(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create local adapter: %v", err)
	}
	defer adapter.Close()

	ctx := context.Background()
	testKey := "sessions/abc/export.txt"
	testData := []byte("Title: Five minute workouts")

	t.Run("Put", func(t *testing.T) {
		if err := adapter.Put(ctx, testKey, bytes.NewReader(testData)); err != nil {
			t.Fatalf("Failed to put data: %v", err)
		}
	})

	t.Run("Exists", func(t *testing.T) {
		exists, err := adapter.Exists(ctx, testKey)
		if err != nil {
			t.Fatalf("Failed to check existence: %v", err)
		}
		if !exists {
			t.Error("File should exist after Put")
		}
	})

	t.Run("Get", func(t *testing.T) {
		reader, err := adapter.Get(ctx, testKey)
		if err != nil {
			t.Fatalf("Failed to get data: %v", err)
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("Failed to read data: %v", err)
		}
		if !bytes.Equal(data, testData) {
			t.Errorf("Expected %s, got %s", testData, data)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		if err := adapter.Put(ctx, testKey, bytes.NewReader([]byte("v2"))); err != nil {
			t.Fatalf("Failed to overwrite: %v", err)
		}
		reader, err := adapter.Get(ctx, testKey)
		if err != nil {
			t.Fatalf("Failed to get data: %v", err)
		}
		defer reader.Close()
		data, _ := io.ReadAll(reader)
		if string(data) != "v2" {
			t.Errorf("Expected v2, got %s", data)
		}
	})

	t.Run("List", func(t *testing.T) {
		adapter.Put(ctx, "sessions/abc/bundle.zip", bytes.NewReader([]byte("zip")))
		adapter.Put(ctx, "sessions/other/export.txt", bytes.NewReader([]byte("x")))

		keys, err := adapter.List(ctx, "sessions/abc/")
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}
		if len(keys) != 2 || keys[0] != "sessions/abc/bundle.zip" || keys[1] != testKey {
			t.Errorf("Expected sorted keys of session abc, got %v", keys)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := adapter.Delete(ctx, testKey); err != nil {
			t.Fatalf("Failed to delete data: %v", err)
		}
		exists, err := adapter.Exists(ctx, testKey)
		if err != nil {
			t.Fatalf("Failed to check existence: %v", err)
		}
		if exists {
			t.Error("File should not exist after Delete")
		}
		if err := adapter.Delete(ctx, testKey); err != nil {
			t.Errorf("Expected deleting a missing file to succeed, got %v", err)
		}
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		_, err := adapter.Get(ctx, "non-existent.txt")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RejectsTraversal", func(t *testing.T) {
		if err := adapter.Put(ctx, "../escape.txt", bytes.NewReader(testData)); err == nil {
			t.Error("Expected error for key escaping the base path")
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := adapter.Ping(ctx); err != nil {
			t.Errorf("Expected writable directory, got %v", err)
		}
	})
}

func TestLocalAdapterConcurrency(t *testing.T) {
	adapter, err := NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create local adapter: %v", err)
	}
	defer adapter.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			key := fmt.Sprintf("sessions/s%d/export.txt", idx)
			if err := adapter.Put(ctx, key, bytes.NewReader([]byte("test data"))); err != nil {
				t.Errorf("Failed to put data: %v", err)
			}
		}(i)
	}
	wg.Wait()

	keys, err := adapter.List(ctx, "sessions/")
	if err != nil {
		t.Fatalf("Failed to list files: %v", err)
	}
	if len(keys) != 10 {
		t.Errorf("Expected 10 files, got %d", len(keys))
	}
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "sessions/a/export.txt", want: "sessions/a/export.txt"},
		{key: "/sessions//a/", want: "sessions/a"},
		{key: "", wantErr: true},
		{key: "/", wantErr: true},
		{key: "a/../../b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := cleanKey(tt.key)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q, got %q", tt.key, got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Expected %q, got %q (err %v)", tt.want, got, err)
			}
		})
	}
}
