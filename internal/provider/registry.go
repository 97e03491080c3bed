package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/unalkalkan/ReelPilot/pkg/types"
)

// Builder turns a provider configuration into a client Factory
type Builder func(cfg types.ProviderConfig) Factory

// Registry maps backend names to builders
type Registry struct {
	builders map[string]Builder
	mu       sync.RWMutex
}

// NewRegistry creates a registry with the built-in backends registered
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	r.builders["gemini"] = geminiBuilder
	r.builders["stub"] = stubBuilder
	return r
}

// Register adds a backend builder
func (r *Registry) Register(name string, b Builder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[name]; exists {
		return fmt.Errorf("provider already registered: %s", name)
	}
	r.builders[name] = b
	return nil
}

// Factory returns the client factory for the configured backend
func (r *Registry) Factory(cfg types.ProviderConfig) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.builders[cfg.Name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", cfg.Name)
	}
	return b(cfg), nil
}

// List returns the registered backend names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func geminiBuilder(cfg types.ProviderConfig) Factory {
	return func(ctx context.Context, apiKey string) (*Client, error) {
		text, err := NewGeminiTextProvider(ctx, apiKey, cfg)
		if err != nil {
			return nil, err
		}
		image, err := NewImagenProvider(apiKey, cfg)
		if err != nil {
			text.Close()
			return nil, err
		}
		return &Client{Text: text, Image: image}, nil
	}
}

func stubBuilder(cfg types.ProviderConfig) Factory {
	return func(ctx context.Context, apiKey string) (*Client, error) {
		return &Client{Text: NewStubTextProvider(), Image: NewStubImageProvider()}, nil
	}
}
