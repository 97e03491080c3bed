package workflow

import (
	"time"

	"github.com/unalkalkan/ReelPilot/pkg/types"
)

// Snapshot is a read-only copy of a session's state
type Snapshot struct {
	ID              string                       `json:"id"`
	Stage           types.Stage                  `json:"stage"`
	Config          types.SessionConfig          `json:"config"`
	Busy            bool                         `json:"busy"`
	Progress        string                       `json:"progress,omitempty"`
	Error           string                       `json:"error,omitempty"`
	Notice          string                       `json:"notice,omitempty"`
	CredentialError bool                         `json:"credential_error"`
	Topics          *types.TopicAnalysis         `json:"topics,omitempty"`
	SelectedTopic   string                       `json:"selected_topic,omitempty"`
	TopicRefinement string                       `json:"topic_refinement,omitempty"`
	Script          *types.Script                `json:"script,omitempty"`
	ScriptFeedback  string                       `json:"script_feedback,omitempty"`
	Visuals         []types.GeneratedImage       `json:"visuals"`
	VoiceOver       *types.VoiceOverPlan         `json:"voice_over,omitempty"`
	Music           *types.MusicPlan             `json:"music,omitempty"`
	Subtitles       []types.SubtitleCue          `json:"subtitles,omitempty"`
	SRT             string                       `json:"srt,omitempty"`
	Publishing      *types.PublishingSuggestions `json:"publishing,omitempty"`
	Storyboard      types.StoryboardState        `json:"storyboard"`
	ExportPrompt    string                       `json:"export_prompt,omitempty"`
	ExportVisible   bool                         `json:"export_visible"`
	ExportCopied    bool                         `json:"export_copied"`
	History         []types.StageTransition      `json:"history"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

// session is the mutable state owned by a Controller. Every field is
// written under the controller mutex.
type session struct {
	stage      types.Stage
	config     types.SessionConfig
	busy       bool
	progress   string
	errMsg     string
	notice     string
	topics     *types.TopicAnalysis
	topic      string
	refinement string
	script     *types.Script
	feedback   string
	visuals    []types.GeneratedImage
	voiceOver  *types.VoiceOverPlan
	music      *types.MusicPlan
	subtitles  []types.SubtitleCue
	srt        string
	publishing *types.PublishingSuggestions
	storyboard types.StoryboardState
	export     string
	exportOpen bool
	copied     bool
	history    []types.StageTransition
	updatedAt  time.Time
}

func newSession(cfg types.SessionConfig, now time.Time) session {
	return session{
		stage:     types.StageInitialConfig,
		config:    cfg,
		visuals:   []types.GeneratedImage{},
		updatedAt: now,
	}
}

// clearDownstream drops every artifact derived from the current script
func (s *session) clearDownstream() {
	s.visuals = []types.GeneratedImage{}
	s.voiceOver = nil
	s.music = nil
	s.subtitles = nil
	s.srt = ""
	s.publishing = nil
	s.storyboard = types.StoryboardState{}
	s.export = ""
	s.exportOpen = false
	s.copied = false
}

func (s *session) snapshot(id string, credFailed bool) Snapshot {
	return Snapshot{
		ID:              id,
		Stage:           s.stage,
		Config:          s.config,
		Busy:            s.busy,
		Progress:        s.progress,
		Error:           s.errMsg,
		Notice:          s.notice,
		CredentialError: credFailed,
		Topics:          copyTopics(s.topics),
		SelectedTopic:   s.topic,
		TopicRefinement: s.refinement,
		Script:          copyScript(s.script),
		ScriptFeedback:  s.feedback,
		Visuals:         copyImages(s.visuals),
		VoiceOver:       copyPtr(s.voiceOver),
		Music:           copyPtr(s.music),
		Subtitles:       append([]types.SubtitleCue(nil), s.subtitles...),
		SRT:             s.srt,
		Publishing:      copyPublishing(s.publishing),
		Storyboard:      s.storyboard,
		ExportPrompt:    s.export,
		ExportVisible:   s.exportOpen,
		ExportCopied:    s.copied,
		History:         append([]types.StageTransition(nil), s.history...),
		UpdatedAt:       s.updatedAt,
	}
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}

func copyTopics(t *types.TopicAnalysis) *types.TopicAnalysis {
	if t == nil {
		return nil
	}
	return &types.TopicAnalysis{
		SuggestedTopics: copyStrings(t.SuggestedTopics),
		AIChoice:        copyPtr(t.AIChoice),
	}
}

func copyScript(s *types.Script) *types.Script {
	if s == nil {
		return nil
	}
	c := *s
	c.Keywords = copyStrings(s.Keywords)
	c.Segments = append([]types.Segment(nil), s.Segments...)
	return &c
}

func copyImages(in []types.GeneratedImage) []types.GeneratedImage {
	out := make([]types.GeneratedImage, len(in))
	for i, img := range in {
		out[i] = img
		out[i].Data = append([]byte(nil), img.Data...)
	}
	return out
}

func copyPublishing(p *types.PublishingSuggestions) *types.PublishingSuggestions {
	if p == nil {
		return nil
	}
	return &types.PublishingSuggestions{
		Hashtags:           copyStrings(p.Hashtags),
		OptimalPostingTime: p.OptimalPostingTime,
		CaptionIdeas:       copyStrings(p.CaptionIdeas),
		EngagementTips:     copyStrings(p.EngagementTips),
	}
}
