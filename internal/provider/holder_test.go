package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/unalkalkan/ReelPilot/internal/apierror"
)

func envWith(values map[string]string, reads *int) func(string) (string, bool) {
	return func(key string) (string, bool) {
		*reads++
		v, ok := values[key]
		return v, ok
	}
}

func stubFactory(builds *int) Factory {
	return func(ctx context.Context, apiKey string) (*Client, error) {
		*builds++
		return &Client{Text: NewStubTextProvider(), Image: NewStubImageProvider()}, nil
	}
}

func TestClientHolder(t *testing.T) {
	t.Run("IdempotentGet", func(t *testing.T) {
		reads, builds := 0, 0
		h := NewClientHolder("", stubFactory(&builds)).
			WithLookup(envWith(map[string]string{DefaultAPIKeyEnv: "secret"}, &reads))

		first, err := h.Get(context.Background())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		second, err := h.Get(context.Background())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}

		if first != second {
			t.Error("Expected the same client instance on repeated Get")
		}
		if builds != 1 {
			t.Errorf("Expected 1 build, got %d", builds)
		}
	})

	t.Run("InvalidateRebuildsWithoutRereadingKey", func(t *testing.T) {
		reads, builds := 0, 0
		h := NewClientHolder("MY_KEY", stubFactory(&builds)).
			WithLookup(envWith(map[string]string{"MY_KEY": "secret"}, &reads))

		first, _ := h.Get(context.Background())
		h.Invalidate()
		second, err := h.Get(context.Background())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}

		if first == second {
			t.Error("Expected a new client after Invalidate")
		}
		if builds != 2 {
			t.Errorf("Expected 2 builds, got %d", builds)
		}
		if reads != 1 {
			t.Errorf("Expected the credential to be read once, got %d reads", reads)
		}
	})

	t.Run("MissingCredential", func(t *testing.T) {
		reads, builds := 0, 0
		h := NewClientHolder("", stubFactory(&builds)).WithLookup(envWith(nil, &reads))

		err := h.Verify(context.Background())
		cfgErr, ok := apierror.AsConfig(err)
		if !ok || cfgErr.Kind != apierror.MissingCredential {
			t.Fatalf("Expected missing credential error, got %v", err)
		}
		if builds != 0 {
			t.Errorf("Expected no build attempt, got %d", builds)
		}
	})

	t.Run("FactoryFailure", func(t *testing.T) {
		reads := 0
		h := NewClientHolder("", func(ctx context.Context, apiKey string) (*Client, error) {
			return nil, errors.New("dial failed")
		}).WithLookup(envWith(map[string]string{DefaultAPIKeyEnv: "secret"}, &reads))

		_, err := h.Get(context.Background())
		cfgErr, ok := apierror.AsConfig(err)
		if !ok || cfgErr.Kind != apierror.ClientInit {
			t.Fatalf("Expected client init error, got %v", err)
		}
	})
}
