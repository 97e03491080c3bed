package provider

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/unalkalkan/ReelPilot/internal/apierror"
)

// DefaultAPIKeyEnv is the environment variable holding the credential
const DefaultAPIKeyEnv = "API_KEY"

// Factory builds a Client from a credential
type Factory func(ctx context.Context, apiKey string) (*Client, error)

// ClientHolder lazily builds one Client and hands the same instance to
// every caller until it is invalidated. The credential is read from the
// environment once for the lifetime of the holder.
type ClientHolder struct {
	keyEnv  string
	lookup  func(string) (string, bool)
	factory Factory

	keyOnce sync.Once
	apiKey  string

	mu     sync.Mutex
	client *Client
}

// NewClientHolder creates a holder reading the credential from keyEnv
func NewClientHolder(keyEnv string, factory Factory) *ClientHolder {
	if keyEnv == "" {
		keyEnv = DefaultAPIKeyEnv
	}
	return &ClientHolder{
		keyEnv:  keyEnv,
		lookup:  os.LookupEnv,
		factory: factory,
	}
}

// WithLookup replaces the environment lookup, for tests
func (h *ClientHolder) WithLookup(lookup func(string) (string, bool)) *ClientHolder {
	h.lookup = lookup
	return h
}

func (h *ClientHolder) credential() string {
	h.keyOnce.Do(func() {
		if val, ok := h.lookup(h.keyEnv); ok {
			h.apiKey = val
		}
	})
	return h.apiKey
}

// Get returns the shared client, building it on first use
func (h *ClientHolder) Get(ctx context.Context) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.client != nil {
		return h.client, nil
	}

	key := h.credential()
	if key == "" {
		return nil, &apierror.ConfigError{
			Kind:   apierror.MissingCredential,
			Detail: fmt.Sprintf("environment variable %s is not set", h.keyEnv),
		}
	}

	client, err := h.factory(ctx, key)
	if err != nil {
		if _, ok := apierror.AsConfig(err); ok {
			return nil, err
		}
		return nil, &apierror.ConfigError{Kind: apierror.ClientInit, Err: err}
	}

	log.Printf("[Provider] Generation client initialized (text=%s, image=%s)", client.Text.Name(), client.Image.Name())
	h.client = client
	return client, nil
}

// Invalidate drops the shared client so the next Get rebuilds it
func (h *ClientHolder) Invalidate() {
	h.mu.Lock()
	client := h.client
	h.client = nil
	h.mu.Unlock()

	if client != nil {
		log.Printf("[Provider] Generation client invalidated")
		if err := client.Close(); err != nil {
			log.Printf("[Provider] Error closing client: %v", err)
		}
	}
}

// Verify checks that a usable client can be obtained. A failure
// invalidates the handle.
func (h *ClientHolder) Verify(ctx context.Context) error {
	if _, err := h.Get(ctx); err != nil {
		h.Invalidate()
		return err
	}
	return nil
}

// Close releases the shared client if one was built
func (h *ClientHolder) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.client == nil {
		return nil
	}
	err := h.client.Close()
	h.client = nil
	return err
}
