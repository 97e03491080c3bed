package provider

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	gaxerror "github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/unalkalkan/ReelPilot/internal/apierror"
	"github.com/unalkalkan/ReelPilot/pkg/types"
)

const (
	DefaultTextModel     = "gemini-2.5-flash"
	DefaultImageModel    = "imagen-3.0-generate-002"
	DefaultImageEndpoint = "https://generativelanguage.googleapis.com/v1beta"
)

// GeminiTextProvider implements TextGenerator on top of the Gemini SDK
type GeminiTextProvider struct {
	name   string
	model  string
	client *genai.Client
}

// NewGeminiTextProvider creates a Gemini text provider for the given credential
func NewGeminiTextProvider(ctx context.Context, apiKey string, cfg types.ProviderConfig) (*GeminiTextProvider, error) {
	model := cfg.TextModel
	if model == "" {
		model = DefaultTextModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiTextProvider{
		name:   "gemini-text",
		model:  model,
		client: client,
	}, nil
}

func (g *GeminiTextProvider) Name() string {
	return g.name
}

// GenerateJSON calls the text model with a JSON response MIME type
func (g *GeminiTextProvider) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"

	log.Printf("[Gemini-text] Request: model=%s, prompt_length=%d chars", g.model, len(prompt))
	log.Printf("[Gemini-text] Request prompt (truncated): %s", truncateForLog(prompt, 300))

	startTime := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	duration := time.Since(startTime)
	if err != nil {
		log.Printf("[Gemini-text] Request failed after %v: %v", duration, err)
		return "", normalizeError(err)
	}

	text := responseText(resp)
	log.Printf("[Gemini-text] Response received (took %v, %d chars): %s", duration, len(text), truncateForLog(text, 300))
	return text, nil
}

func (g *GeminiTextProvider) Close() error {
	return g.client.Close()
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		break
	}
	return sb.String()
}

// normalizeError maps SDK failures onto the shared error taxonomy so the
// retry wrapper can classify them by status.
func normalizeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if isInvalidCredential(err) {
		return &apierror.ConfigError{Kind: apierror.InvalidCredential, Err: err}
	}

	var apiErr *gaxerror.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.HTTPCode()
		if code <= 0 && apiErr.GRPCStatus() != nil {
			code = httpCodeFromGRPC(apiErr.GRPCStatus().Code())
		}
		if code > 0 {
			return &apierror.StatusError{Code: code, Status: apiErr.Reason(), Message: err.Error()}
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &apierror.StatusError{Code: gErr.Code, Message: gErr.Message}
	}

	return err
}

func isInvalidCredential(err error) bool {
	var apiErr *gaxerror.APIError
	if errors.As(err, &apiErr) && apiErr.Reason() == "API_KEY_INVALID" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "api key not valid") ||
		strings.Contains(msg, "invalid api key") ||
		strings.Contains(msg, "api_key_invalid")
}

func httpCodeFromGRPC(c codes.Code) int {
	switch c {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Internal, codes.Unknown, codes.DataLoss:
		return http.StatusInternalServerError
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return 0
	}
}

// truncateForLog truncates a string for logging purposes
func truncateForLog(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	if len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
