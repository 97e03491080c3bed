package provider

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
)

// stubPNG is a 1x1 transparent PNG
const stubPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

const (
	stubTopicsJSON = `{
  "suggested_topics": ["Five minute morning stretches", "Budget meal prep for students", "Hidden phone settings"],
  "ai_chosen_topic": {"topic": "Five minute morning stretches", "reasoning": "Broad appeal and easy to film."}
}`
	stubScriptJSON = "```json\n" + `{
  "title": "Stretch Before Coffee",
  "target_audience": "Busy young professionals",
  "overall_mood": "Inspirational and light",
  "keywords": ["stretching", "morning routine", "wellness"],
  "hook_suggestion": "Your back will thank you in five minutes.",
  "cta_suggestion": "Follow for a new routine every day!",
  "full_text_for_voiceover": "Wake up and reach for the ceiling. Now fold forward slowly. Finish with three deep breaths.",
  "segments": [
    {"scene": 1, "visual_description": "Person stretching arms up by a sunny window", "dialogue_voiceover": "Wake up and reach for the ceiling.", "duration_seconds": 5},
    {"scene": 2, "visual_description": "Slow forward fold on a yoga mat", "dialogue_voiceover": "Now fold forward slowly.", "duration_seconds": 6},
    {"scene": 3, "visual_description": "Close-up of calm breathing with coffee steaming", "dialogue_voiceover": "Finish with three deep breaths.", "duration_seconds": 4}
  ]
}` + "\n```"
	stubPublishingJSON = `{
  "hashtags": ["#fyp", "#morningroutine", "#stretching"],
  "optimal_posting_time": "Weekdays between seven and nine in the morning",
  "caption_ideas": ["Five minutes, zero excuses.", "Who else skips stretching?"],
  "engagement_tips": ["Ask viewers for their favourite stretch.", "Reply to comments within the first hour."]
}`
)

// StubTextProvider answers with canned JSON picked from the shape example
// embedded in the prompt. Responses can be overridden by substring.
type StubTextProvider struct {
	mu        sync.Mutex
	overrides map[string]string
	calls     int
}

// NewStubTextProvider creates a new stub text provider
func NewStubTextProvider() *StubTextProvider {
	return &StubTextProvider{overrides: make(map[string]string)}
}

func (s *StubTextProvider) Name() string {
	return "stub-text"
}

// SetResponse makes every prompt containing marker return response
func (s *StubTextProvider) SetResponse(marker, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[marker] = response
}

// Calls returns the number of GenerateJSON calls served
func (s *StubTextProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *StubTextProvider) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	for marker, resp := range s.overrides {
		if strings.Contains(prompt, marker) {
			return resp, nil
		}
	}

	switch {
	case strings.Contains(prompt, "suggested_topics"):
		return stubTopicsJSON, nil
	case strings.Contains(prompt, "full_text_for_voiceover"):
		return stubScriptJSON, nil
	case strings.Contains(prompt, "optimal_posting_time"):
		return stubPublishingJSON, nil
	}
	return "{}", nil
}

func (s *StubTextProvider) Close() error {
	return nil
}

// StubImageProvider returns the same tiny PNG for every prompt
type StubImageProvider struct {
	mu      sync.Mutex
	prompts []string
}

// NewStubImageProvider creates a new stub image provider
func NewStubImageProvider() *StubImageProvider {
	return &StubImageProvider{}
}

func (s *StubImageProvider) Name() string {
	return "stub-image"
}

func (s *StubImageProvider) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.prompts = append(s.prompts, req.Prompt)
	s.mu.Unlock()

	data, _ := base64.StdEncoding.DecodeString(stubPNG)
	return &ImageResponse{Data: data, MIMEType: "image/png"}, nil
}

// Prompts returns the prompts received so far
func (s *StubImageProvider) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *StubImageProvider) Close() error {
	return nil
}
