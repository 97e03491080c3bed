package types

import "time"

// Stage identifies where a session currently is in the content pipeline
type Stage string

const (
	StageInitialConfig                Stage = "initial_config"
	StageTrendAnalysisPending         Stage = "trend_analysis_pending"
	StageTrendAnalysisResults         Stage = "trend_analysis_results"
	StageScriptGenerationPending      Stage = "script_generation_pending"
	StageScriptGenerationResults      Stage = "script_generation_results"
	StageVisualGenerationPending      Stage = "visual_generation_pending"
	StageVisualGenerationResults      Stage = "visual_generation_results"
	StageAudioSubtitlesPending        Stage = "audio_subtitles_pending"
	StageAudioSubtitlesResults        Stage = "audio_subtitles_results"
	StageVideoPlanningPending         Stage = "video_planning_pending"
	StageVideoPlanningResults         Stage = "video_planning_results"
	StagePublishingSuggestionsPending Stage = "publishing_suggestions_pending"
	StagePublishingSuggestionsResults Stage = "publishing_suggestions_results"
	StageError                        Stage = "error"
)

// IsPending reports whether the stage is the in-flight half of a step
func (s Stage) IsPending() bool {
	switch s {
	case StageTrendAnalysisPending, StageScriptGenerationPending, StageVisualGenerationPending,
		StageAudioSubtitlesPending, StageVideoPlanningPending, StagePublishingSuggestionsPending:
		return true
	}
	return false
}

// IsCheckpoint reports whether guided mode pauses at this stage
func (s Stage) IsCheckpoint() bool {
	return s != StageError && !s.IsPending()
}

// Mode selects whether the user confirms each transition
type Mode string

const (
	ModeGuided     Mode = "guided"
	ModeAutonomous Mode = "autonomous"
)

// Style is the strategic tone of generated content
type Style string

const (
	StyleBalanced Style = "balanced_engagement"
	StyleBold     Style = "maximal_bold_buzz"
)

const (
	MinAudacity     = 1
	MaxAudacity     = 10
	DefaultAudacity = 5
)

// SessionConfig holds the user-chosen parameters of a session
type SessionConfig struct {
	Mode        Mode   `json:"mode"`
	Style       Style  `json:"style"`
	Audacity    int    `json:"audacity"`
	CustomTopic string `json:"custom_topic,omitempty"`
}

// Normalized returns a copy with unknown values replaced by defaults and
// audacity clamped to its range.
func (c SessionConfig) Normalized() SessionConfig {
	if c.Mode != ModeAutonomous {
		c.Mode = ModeGuided
	}
	if c.Style != StyleBold {
		c.Style = StyleBalanced
	}
	switch {
	case c.Audacity == 0:
		c.Audacity = DefaultAudacity
	case c.Audacity < MinAudacity:
		c.Audacity = MinAudacity
	case c.Audacity > MaxAudacity:
		c.Audacity = MaxAudacity
	}
	return c
}

// AIChoice is the topic the model picked itself, with its rationale
type AIChoice struct {
	Topic     string `json:"topic"`
	Reasoning string `json:"reasoning"`
}

// TopicAnalysis is the result of one trend-analysis step
type TopicAnalysis struct {
	SuggestedTopics []string  `json:"suggested_topics"`
	AIChoice        *AIChoice `json:"ai_chosen_topic,omitempty"`
}

// Segment is one scene of a script
type Segment struct {
	Scene             int     `json:"scene"`
	VisualDescription string  `json:"visual_description"`
	Narration         string  `json:"dialogue_voiceover"`
	DurationSeconds   float64 `json:"duration_seconds"`
}

// Script is a complete short-video script
type Script struct {
	Title          string    `json:"title"`
	TargetAudience string    `json:"target_audience"`
	Mood           string    `json:"overall_mood"`
	Keywords       []string  `json:"keywords"`
	Segments       []Segment `json:"segments"`
	Narration      string    `json:"full_text_for_voiceover"`
	Hook           string    `json:"hook_suggestion"`
	CallToAction   string    `json:"cta_suggestion"`
}

// TotalDuration returns the summed duration of all segments in seconds
func (s *Script) TotalDuration() float64 {
	var total float64
	for _, seg := range s.Segments {
		total += seg.DurationSeconds
	}
	return total
}

// GeneratedImage is one key image illustrating a scene
type GeneratedImage struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Data      []byte    `json:"data"`
	MIMEType  string    `json:"mime_type"`
	Scene     int       `json:"scene"`
	CreatedAt time.Time `json:"created_at"`
}

// VoiceOverPlan describes the intended voice-over delivery
type VoiceOverPlan struct {
	Style     string `json:"style"`
	SampleCue string `json:"sample_cue"`
}

// MusicPlan describes the intended background music
type MusicPlan struct {
	Style         string `json:"style"`
	MoodAlignment string `json:"mood_alignment"`
}

// SubtitleCue is one timed caption, times in seconds
type SubtitleCue struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// PublishingSuggestions holds advice for posting the finished video
type PublishingSuggestions struct {
	Hashtags           []string `json:"hashtags"`
	OptimalPostingTime string   `json:"optimal_posting_time"`
	CaptionIdeas       []string `json:"caption_ideas"`
	EngagementTips     []string `json:"engagement_tips"`
}

// StoryboardState is the transient playback position of the storyboard preview
type StoryboardState struct {
	Playing      bool `json:"playing"`
	SegmentIndex int  `json:"segment_index"`
	ImageIndex   int  `json:"image_index"`
}

// StageTransition records one stage change of a session
type StageTransition struct {
	From Stage     `json:"from"`
	To   Stage     `json:"to"`
	At   time.Time `json:"at"`
}
