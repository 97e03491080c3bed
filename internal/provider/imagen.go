package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/unalkalkan/ReelPilot/internal/apierror"
	"github.com/unalkalkan/ReelPilot/pkg/types"
)

// ImagenProvider implements ImageGenerator against the Imagen predict REST endpoint
type ImagenProvider struct {
	name       string
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewImagenProvider creates a new Imagen provider
func NewImagenProvider(apiKey string, cfg types.ProviderConfig) (*ImagenProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required for Imagen provider")
	}

	endpoint := cfg.ImageEndpoint
	if endpoint == "" {
		endpoint = DefaultImageEndpoint
	}
	model := cfg.ImageModel
	if model == "" {
		model = DefaultImageModel
	}

	timeout := 120 * time.Second
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &ImagenProvider{
		name:     "imagen",
		endpoint: strings.TrimSuffix(endpoint, "/"),
		model:    model,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (p *ImagenProvider) Name() string {
	return p.name
}

func (p *ImagenProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// Imagen API structures
type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount    int    `json:"sampleCount"`
	OutputMIMEType string `json:"outputMimeType,omitempty"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
}

type predictResponse struct {
	Predictions []prediction `json:"predictions"`
}

type prediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MIMEType           string `json:"mimeType"`
}

type googleErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateImage requests a single image for the prompt
func (p *ImagenProvider) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	reqBody := predictRequest{
		Instances: []predictInstance{{Prompt: req.Prompt}},
		Parameters: predictParameters{
			SampleCount:    1,
			OutputMIMEType: mimeType,
			AspectRatio:    req.AspectRatio,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:predict", p.endpoint, p.model)
	log.Printf("[Imagen] Request: POST %s (prompt_length=%d chars)", url, len(req.Prompt))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	startTime := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	duration := time.Since(startTime)
	if err != nil {
		log.Printf("[Imagen] Request failed after %v: %v", duration, err)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("[Imagen] Response: %s (took %v)", resp.Status, duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.errorFromResponse(resp.StatusCode, body)
	}

	var apiResp predictResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	for _, pred := range apiResp.Predictions {
		if pred.BytesBase64Encoded == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(pred.BytesBase64Encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image payload: %w", err)
		}
		outType := pred.MIMEType
		if outType == "" {
			outType = mimeType
		}
		return &ImageResponse{Data: data, MIMEType: outType}, nil
	}

	// Safety filters can drop every prediction
	log.Printf("[Imagen] No image in response")
	return nil, nil
}

func (p *ImagenProvider) errorFromResponse(status int, body []byte) error {
	var errResp googleErrorResponse
	message := truncateForLog(string(body), 500)
	reason := ""
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		reason = errResp.Error.Status
	}
	log.Printf("[Imagen] API error (status %d, %s): %s", status, reason, message)

	lower := strings.ToLower(message)
	if strings.Contains(lower, "api key not valid") || strings.Contains(lower, "api_key_invalid") {
		return &apierror.ConfigError{
			Kind: apierror.InvalidCredential,
			Err:  &apierror.StatusError{Code: status, Status: reason, Message: message},
		}
	}
	return &apierror.StatusError{Code: status, Status: reason, Message: message}
}
