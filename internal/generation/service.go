// Package generation exposes the content pipeline's network operations
// over the shared generation client and the retry wrapper.
package generation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/unalkalkan/ReelPilot/internal/apierror"
	"github.com/unalkalkan/ReelPilot/internal/provider"
	"github.com/unalkalkan/ReelPilot/internal/retry"
	"github.com/unalkalkan/ReelPilot/pkg/types"
)

const (
	DefaultTopicCount       = 5
	DefaultMaxSegments      = 3
	DefaultImagesPerSegment = 1
	DefaultLanguage         = "English"

	imageMIMEType    = "image/jpeg"
	imageAspectRatio = "9:16"
)

// ClientSource hands out the shared generation client
type ClientSource interface {
	Get(ctx context.Context) (*provider.Client, error)
	Invalidate()
}

// ScriptRequest carries the inputs of a script generation
type ScriptRequest struct {
	Topic      string
	Mode       types.Mode
	Style      types.Style
	Audacity   int
	Feedback   string
	Refinement string
}

// VisualsRequest carries the inputs of an image batch
type VisualsRequest struct {
	Segments []types.Segment
	Style    types.Style
	Mood     string
	Audience string
}

// ProgressFunc receives human-readable progress; an empty string clears it
type ProgressFunc func(detail string)

// Service implements the four generation operations
type Service struct {
	clients          ClientSource
	policy           retry.Policy
	topicCount       int
	maxSegments      int
	imagesPerSegment int
	language         string
	now              func() time.Time
}

// NewService creates a generation service
func NewService(clients ClientSource, policy retry.Policy, cfg types.PipelineConfig) *Service {
	s := &Service{
		clients:          clients,
		policy:           policy,
		topicCount:       cfg.TrendingTopicCount,
		maxSegments:      cfg.MaxSegmentsForVisuals,
		imagesPerSegment: cfg.ImagesPerSegment,
		language:         cfg.ContentLanguage,
		now:              time.Now,
	}
	if s.topicCount <= 0 {
		s.topicCount = DefaultTopicCount
	}
	if s.maxSegments <= 0 {
		s.maxSegments = DefaultMaxSegments
	}
	if s.imagesPerSegment <= 0 {
		s.imagesPerSegment = DefaultImagesPerSegment
	}
	if s.language == "" {
		s.language = DefaultLanguage
	}
	return s
}

// TopicCount is the number of suggestions requested when the caller passes none
func (s *Service) TopicCount() int {
	return s.topicCount
}

// DiscoverTrendingTopics asks for count topic suggestions and an optional
// AI pick. An unparseable response yields an empty analysis.
func (s *Service) DiscoverTrendingTopics(ctx context.Context, mode types.Mode, style types.Style, count int) (*types.TopicAnalysis, error) {
	if count <= 0 {
		count = s.topicCount
	}

	text, err := s.generateText(ctx, topicsPrompt(mode, style, count, s.language))
	if err != nil {
		return nil, err
	}

	analysis := ParseJSON[types.TopicAnalysis](text)
	if analysis == nil {
		analysis = &types.TopicAnalysis{}
	}
	if analysis.SuggestedTopics == nil {
		analysis.SuggestedTopics = []string{}
	}
	if analysis.AIChoice != nil && analysis.AIChoice.Topic == "" {
		analysis.AIChoice = nil
	}

	log.Printf("[Generation] Trend analysis: %d topics, ai_choice=%v", len(analysis.SuggestedTopics), analysis.AIChoice != nil)
	return analysis, nil
}

// GenerateScript writes a full script for the topic. It returns nil
// without error when the response cannot be parsed.
func (s *Service) GenerateScript(ctx context.Context, req ScriptRequest) (*types.Script, error) {
	text, err := s.generateText(ctx, scriptPrompt(req, s.language))
	if err != nil {
		return nil, err
	}

	script := ParseJSON[types.Script](text)
	if script != nil {
		log.Printf("[Generation] Script generated: %q, %d segments, %.1fs", script.Title, len(script.Segments), script.TotalDuration())
	}
	return script, nil
}

// GenerateVisuals produces ImagesPerSegment images for each of the first
// MaxSegments segments. When ctx is cancelled it returns the images
// produced so far together with apierror.ErrCancelled.
func (s *Service) GenerateVisuals(ctx context.Context, req VisualsRequest, onProgress ProgressFunc) ([]types.GeneratedImage, error) {
	if onProgress == nil {
		onProgress = func(string) {}
	}
	defer onProgress("")

	client, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	segments := req.Segments
	if len(segments) > s.maxSegments {
		segments = segments[:s.maxSegments]
	}
	total := len(segments) * s.imagesPerSegment
	images := make([]types.GeneratedImage, 0, total)

	count := 0
	for _, seg := range segments {
		for i := 0; i < s.imagesPerSegment; i++ {
			if ctx.Err() != nil {
				log.Printf("[Generation] Visual generation cancelled after %d/%d images", len(images), total)
				return images, apierror.ErrCancelled
			}

			count++
			onProgress(fmt.Sprintf("Generating image %d/%d for scene %d...", count, total, seg.Scene))

			prompt := imagePrompt(seg, req, i, s.imagesPerSegment)
			resp, err := retry.Do(ctx, s.policy, func(ctx context.Context) (*provider.ImageResponse, error) {
				return client.Image.GenerateImage(ctx, provider.ImageRequest{
					Prompt:      prompt,
					MIMEType:    imageMIMEType,
					AspectRatio: imageAspectRatio,
				})
			})
			if err != nil {
				if apierror.IsCancelled(err) {
					log.Printf("[Generation] Image for scene %d cancelled", seg.Scene)
					return images, apierror.ErrCancelled
				}
				s.noteFailure(err)
				return nil, fmt.Errorf("image %d for scene %d: %w", i+1, seg.Scene, err)
			}
			if ctx.Err() != nil {
				return images, apierror.ErrCancelled
			}
			if resp == nil || len(resp.Data) == 0 {
				continue
			}

			images = append(images, types.GeneratedImage{
				ID:        fmt.Sprintf("img_s%d_%s", seg.Scene, uuid.NewString()),
				Prompt:    prompt,
				Data:      resp.Data,
				MIMEType:  resp.MIMEType,
				Scene:     seg.Scene,
				CreatedAt: s.now(),
			})
		}
	}

	return images, nil
}

// GeneratePublishingSuggestions returns posting advice for the topic. It
// returns nil without error when the response cannot be parsed.
func (s *Service) GeneratePublishingSuggestions(ctx context.Context, topic string, keywords []string) (*types.PublishingSuggestions, error) {
	text, err := s.generateText(ctx, publishingPrompt(topic, keywords, s.language))
	if err != nil {
		return nil, err
	}
	return ParseJSON[types.PublishingSuggestions](text), nil
}

func (s *Service) client(ctx context.Context) (*provider.Client, error) {
	client, err := s.clients.Get(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Service) generateText(ctx context.Context, prompt string) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	text, err := retry.Do(ctx, s.policy, func(ctx context.Context) (string, error) {
		return client.Text.GenerateJSON(ctx, prompt)
	})
	if err != nil {
		s.noteFailure(err)
		return "", err
	}
	return text, nil
}

// noteFailure drops the shared client when the backend rejected the credential
func (s *Service) noteFailure(err error) {
	if cfgErr, ok := apierror.AsConfig(err); ok && cfgErr.Kind == apierror.InvalidCredential {
		log.Printf("[Generation] Credential rejected, invalidating client")
		s.clients.Invalidate()
	}
}
