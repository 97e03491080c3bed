package provider

import (
	"context"
	"testing"

	"github.com/unalkalkan/ReelPilot/pkg/types"
)

func typesConfig(name string) types.ProviderConfig {
	return types.ProviderConfig{Name: name}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	names := r.List()
	if len(names) != 2 || names[0] != "gemini" || names[1] != "stub" {
		t.Errorf("Expected [gemini stub], got %v", names)
	}

	if err := r.Register("stub", stubBuilder); err == nil {
		t.Error("Expected error registering a duplicate backend")
	}

	if _, err := r.Factory(typesConfig("unknown")); err == nil {
		t.Error("Expected error for unknown backend")
	}

	factory, err := r.Factory(typesConfig("stub"))
	if err != nil {
		t.Fatalf("Failed to get stub factory: %v", err)
	}
	client, err := factory(context.Background(), "any")
	if err != nil {
		t.Fatalf("Stub factory failed: %v", err)
	}
	if client.Text.Name() != "stub-text" || client.Image.Name() != "stub-image" {
		t.Errorf("Unexpected stub client: %s/%s", client.Text.Name(), client.Image.Name())
	}
}
