package provider

import (
	"context"
	"errors"
)

// TextGenerator produces a text completion that is expected to be a JSON document
type TextGenerator interface {
	// Name returns the provider name
	Name() string

	// GenerateJSON sends the prompt and asks for an application/json response
	GenerateJSON(ctx context.Context, prompt string) (string, error)

	// Close cleans up resources
	Close() error
}

// ImageGenerator produces a single still image from a prompt
type ImageGenerator interface {
	// Name returns the provider name
	Name() string

	// GenerateImage returns nil without error when the backend produced no image
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error)

	// Close cleans up resources
	Close() error
}

// ImageRequest describes one image to generate
type ImageRequest struct {
	Prompt      string
	MIMEType    string // e.g. "image/jpeg"
	AspectRatio string // e.g. "9:16"
}

// ImageResponse contains the generated image payload
type ImageResponse struct {
	Data     []byte
	MIMEType string
}

// Client is the generation-client handle shared by a process
type Client struct {
	Text  TextGenerator
	Image ImageGenerator
}

// Close releases both generators
func (c *Client) Close() error {
	var errs []error
	if c.Text != nil {
		errs = append(errs, c.Text.Close())
	}
	if c.Image != nil {
		errs = append(errs, c.Image.Close())
	}
	return errors.Join(errs...)
}
