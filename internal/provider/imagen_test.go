package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/unalkalkan/ReelPilot/internal/apierror"
	"github.com/unalkalkan/ReelPilot/pkg/types"
)

func TestNewImagenProvider(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		p, err := NewImagenProvider("test-key", types.ProviderConfig{})
		if err != nil {
			t.Fatalf("Failed to create provider: %v", err)
		}
		if p.model != DefaultImageModel {
			t.Errorf("Expected model '%s', got '%s'", DefaultImageModel, p.model)
		}
		if p.endpoint != DefaultImageEndpoint {
			t.Errorf("Expected endpoint '%s', got '%s'", DefaultImageEndpoint, p.endpoint)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		if _, err := NewImagenProvider("", types.ProviderConfig{}); err == nil {
			t.Error("Expected error for missing api key")
		}
	})
}

func TestImagenProvider_GenerateImage(t *testing.T) {
	imageBytes := []byte{0xff, 0xd8, 0xff, 0xe0}

	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("Expected POST request, got %s", r.Method)
			}
			if r.URL.Path != "/models/imagen-test:predict" {
				t.Errorf("Expected predict path, got %s", r.URL.Path)
			}
			if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
				t.Errorf("Expected api key header 'test-key', got '%s'", got)
			}

			var req predictRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("Failed to decode request: %v", err)
			}
			if len(req.Instances) != 1 || req.Instances[0].Prompt != "a cat on a skateboard" {
				t.Errorf("Unexpected instances: %+v", req.Instances)
			}
			if req.Parameters.SampleCount != 1 {
				t.Errorf("Expected sampleCount 1, got %d", req.Parameters.SampleCount)
			}
			if req.Parameters.AspectRatio != "9:16" {
				t.Errorf("Expected aspect ratio 9:16, got '%s'", req.Parameters.AspectRatio)
			}

			json.NewEncoder(w).Encode(predictResponse{
				Predictions: []prediction{{
					BytesBase64Encoded: base64.StdEncoding.EncodeToString(imageBytes),
					MIMEType:           "image/jpeg",
				}},
			})
		}))
		defer server.Close()

		p, err := NewImagenProvider("test-key", types.ProviderConfig{ImageEndpoint: server.URL + "/", ImageModel: "imagen-test"})
		if err != nil {
			t.Fatalf("Failed to create provider: %v", err)
		}

		resp, err := p.GenerateImage(context.Background(), ImageRequest{Prompt: "a cat on a skateboard", AspectRatio: "9:16"})
		if err != nil {
			t.Fatalf("GenerateImage failed: %v", err)
		}
		if resp == nil {
			t.Fatal("Expected an image")
		}
		if !bytes.Equal(resp.Data, imageBytes) {
			t.Errorf("Expected %v, got %v", imageBytes, resp.Data)
		}
		if resp.MIMEType != "image/jpeg" {
			t.Errorf("Expected image/jpeg, got '%s'", resp.MIMEType)
		}
	})

	t.Run("NoPredictions", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"predictions": []}`))
		}))
		defer server.Close()

		p, _ := NewImagenProvider("test-key", types.ProviderConfig{ImageEndpoint: server.URL})
		resp, err := p.GenerateImage(context.Background(), ImageRequest{Prompt: "filtered"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if resp != nil {
			t.Errorf("Expected no image, got %+v", resp)
		}
	})

	t.Run("RateLimited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"}}`))
		}))
		defer server.Close()

		p, _ := NewImagenProvider("test-key", types.ProviderConfig{ImageEndpoint: server.URL})
		_, err := p.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})

		code, ok := apierror.StatusCode(err)
		if !ok || code != http.StatusTooManyRequests {
			t.Fatalf("Expected status 429, got %v (%v)", code, err)
		}
		if !strings.Contains(err.Error(), "Resource has been exhausted") {
			t.Errorf("Expected backend message in error, got '%v'", err)
		}
	})

	t.Run("InvalidKey", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid. Please pass a valid API key.", "status": "INVALID_ARGUMENT"}}`))
		}))
		defer server.Close()

		p, _ := NewImagenProvider("bad-key", types.ProviderConfig{ImageEndpoint: server.URL})
		_, err := p.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})

		cfgErr, ok := apierror.AsConfig(err)
		if !ok {
			t.Fatalf("Expected configuration error, got %v", err)
		}
		if cfgErr.Kind != apierror.InvalidCredential {
			t.Errorf("Expected invalid credential, got %v", cfgErr.Kind)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Request should not reach the server")
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p, _ := NewImagenProvider("test-key", types.ProviderConfig{ImageEndpoint: server.URL})
		_, err := p.GenerateImage(ctx, ImageRequest{Prompt: "x"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}
