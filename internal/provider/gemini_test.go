package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	gaxerror "github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"

	"github.com/unalkalkan/ReelPilot/internal/apierror"
)

func TestNormalizeError(t *testing.T) {
	t.Run("GoogleAPIStatus", func(t *testing.T) {
		err := normalizeError(fmt.Errorf("generate: %w", &googleapi.Error{Code: 503, Message: "model overloaded"}))
		code, ok := apierror.StatusCode(err)
		if !ok || code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d (%v)", code, err)
		}
	})

	t.Run("GaxWrappedStatus", func(t *testing.T) {
		apiErr, ok := gaxerror.FromError(&googleapi.Error{Code: 429, Message: "quota"})
		if !ok {
			t.Fatal("Expected gax to wrap the googleapi error")
		}
		code, ok := apierror.StatusCode(normalizeError(apiErr))
		if !ok || code != http.StatusTooManyRequests {
			t.Errorf("Expected status 429, got %d", code)
		}
	})

	t.Run("InvalidKey", func(t *testing.T) {
		err := normalizeError(&googleapi.Error{Code: 400, Message: "API key not valid. Please pass a valid API key."})
		cfgErr, ok := apierror.AsConfig(err)
		if !ok || cfgErr.Kind != apierror.InvalidCredential {
			t.Errorf("Expected invalid credential error, got %v", err)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		err := normalizeError(fmt.Errorf("rpc: %w", context.Canceled))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected cancellation to pass through, got %v", err)
		}
	})

	t.Run("Unclassified", func(t *testing.T) {
		orig := errors.New("tls handshake timeout")
		if err := normalizeError(orig); err != orig {
			t.Errorf("Expected error unchanged, got %v", err)
		}
	})
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"title":`), genai.Text(`"x"}`)}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}

	if got := responseText(resp); got != `{"title":"x"}` {
		t.Errorf("Expected first candidate text, got '%s'", got)
	}
	if got := responseText(nil); got != "" {
		t.Errorf("Expected empty text for nil response, got '%s'", got)
	}
}

func TestTruncateForLog(t *testing.T) {
	if got := truncateForLog("line one\nline two", 100); got != "line one line two" {
		t.Errorf("Expected newlines flattened, got '%s'", got)
	}
	if got := truncateForLog("abcdef", 3); got != "abc..." {
		t.Errorf("Expected 'abc...', got '%s'", got)
	}
	if got := truncateForLog("aé", 2); got != "a..." {
		t.Errorf("Expected cut before the split rune, got %q", got)
	}
}
