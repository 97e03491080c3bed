package workflow

import (
	"context"
	"fmt"
	"log"

	"github.com/unalkalkan/ReelPilot/internal/generation"
	"github.com/unalkalkan/ReelPilot/internal/placeholder"
	"github.com/unalkalkan/ReelPilot/pkg/types"
)

// stageInput is the slice of session state a pending stage works from,
// copied when the stage starts
type stageInput struct {
	config     types.SessionConfig
	topic      string
	refinement string
	feedback   string
	script     *types.Script
}

// stageOutput is applied to the session when a stage completes. halt
// stops an autonomous chain at the results stage with the given notice.
type stageOutput struct {
	apply func(s *session)
	halt  string
}

type stageHandler struct {
	results     types.Stage
	failure     string
	cancellable bool
	progress    func(in stageInput) string
	run         func(c *Controller, ctx context.Context, epoch uint64, in stageInput) (stageOutput, error)
}

// nextPending maps every checkpoint to the pending stage that follows it
var nextPending = map[types.Stage]types.Stage{
	types.StageInitialConfig:           types.StageTrendAnalysisPending,
	types.StageTrendAnalysisResults:    types.StageScriptGenerationPending,
	types.StageScriptGenerationResults: types.StageVisualGenerationPending,
	types.StageVisualGenerationResults: types.StageAudioSubtitlesPending,
	types.StageAudioSubtitlesResults:   types.StageVideoPlanningPending,
	types.StageVideoPlanningResults:    types.StagePublishingSuggestionsPending,
}

var pendingStages = map[types.Stage]stageHandler{
	types.StageTrendAnalysisPending: {
		results:  types.StageTrendAnalysisResults,
		failure:  "Failed to fetch trending topics",
		progress: func(stageInput) string { return "Analyzing current trends and selecting the best topic..." },
		run:      (*Controller).runTrendAnalysis,
	},
	types.StageScriptGenerationPending: {
		results: types.StageScriptGenerationResults,
		failure: "Script generation failed",
		progress: func(in stageInput) string {
			return fmt.Sprintf("Writing the script for %q...", in.topic)
		},
		run: (*Controller).runScriptGeneration,
	},
	types.StageVisualGenerationPending: {
		results:     types.StageVisualGenerationResults,
		failure:     "Visual generation failed",
		cancellable: true,
		progress:    func(stageInput) string { return "Generating key images for the storyboard..." },
		run:         (*Controller).runVisualGeneration,
	},
	types.StageAudioSubtitlesPending: {
		results:  types.StageAudioSubtitlesResults,
		failure:  "Audio and subtitle planning failed",
		progress: func(stageInput) string { return "Planning voice-over, music and subtitles..." },
		run:      (*Controller).runAudioSubtitles,
	},
	types.StageVideoPlanningPending: {
		results:  types.StageVideoPlanningResults,
		failure:  "Video planning failed",
		progress: func(stageInput) string { return "Preparing the video assembly plan..." },
		run:      (*Controller).runVideoPlanning,
	},
	types.StagePublishingSuggestionsPending: {
		results:  types.StagePublishingSuggestionsResults,
		failure:  "Failed to get publishing suggestions",
		progress: func(stageInput) string { return "Optimizing the publishing strategy..." },
		run:      (*Controller).runPublishingSuggestions,
	},
}

// checkPrerequisites returns the failure message for entering stage with
// the given session, or "" when the stage can start
func checkPrerequisites(stage types.Stage, s *session) string {
	switch stage {
	case types.StageScriptGenerationPending:
		if s.topic == "" {
			return msgSelectTopic
		}
	case types.StageVisualGenerationPending:
		if s.script == nil || len(s.script.Segments) == 0 {
			return "No script or segments available for visual generation."
		}
	case types.StageAudioSubtitlesPending:
		if s.script == nil {
			return "No script data available for audio and subtitle planning."
		}
	case types.StagePublishingSuggestionsPending:
		if s.topic == "" || s.script == nil {
			return "Missing topic or keywords for publishing suggestions."
		}
	}
	return ""
}

// enter applies the entry action of a pending stage
func enter(stage types.Stage, s *session) {
	switch stage {
	case types.StageTrendAnalysisPending:
		s.refinement = ""
	case types.StageVisualGenerationPending:
		s.visuals = []types.GeneratedImage{}
		s.storyboard = types.StoryboardState{}
	case types.StageVideoPlanningPending:
		s.storyboard = types.StoryboardState{}
	}
}

func (c *Controller) runTrendAnalysis(ctx context.Context, _ uint64, in stageInput) (stageOutput, error) {
	analysis, err := c.gen.DiscoverTrendingTopics(ctx, in.config.Mode, in.config.Style, c.opts.TopicCount)
	if err != nil {
		return stageOutput{}, err
	}

	selected := ""
	if in.config.Mode == types.ModeAutonomous {
		switch {
		case analysis.AIChoice != nil && analysis.AIChoice.Topic != "":
			selected = analysis.AIChoice.Topic
		case len(analysis.SuggestedTopics) > 0:
			selected = analysis.SuggestedTopics[0]
		}
	}

	out := stageOutput{apply: func(s *session) {
		s.topics = analysis
		if selected != "" {
			s.topic = selected
		}
	}}
	if in.config.Mode == types.ModeAutonomous && selected == "" {
		log.Printf("[Workflow] Session %s: no topic available for the autonomous run", c.id)
		out.halt = msgNoTopics
	}
	return out, nil
}

func (c *Controller) runScriptGeneration(ctx context.Context, _ uint64, in stageInput) (stageOutput, error) {
	script, err := c.gen.GenerateScript(ctx, generation.ScriptRequest{
		Topic:      in.topic,
		Mode:       in.config.Mode,
		Style:      in.config.Style,
		Audacity:   in.config.Audacity,
		Feedback:   in.feedback,
		Refinement: in.refinement,
	})
	if err != nil {
		return stageOutput{}, err
	}
	if script == nil {
		return stageOutput{}, newStageError("Script generation returned no data.")
	}

	return stageOutput{apply: func(s *session) {
		s.clearDownstream()
		s.script = script
		s.feedback = ""
		s.refinement = ""
	}}, nil
}

func (c *Controller) runVisualGeneration(ctx context.Context, epoch uint64, in stageInput) (stageOutput, error) {
	images, err := c.gen.GenerateVisuals(ctx, generation.VisualsRequest{
		Segments: in.script.Segments,
		Style:    in.config.Style,
		Mood:     in.script.Mood,
		Audience: in.script.TargetAudience,
	}, func(detail string) {
		c.setProgress(epoch, detail)
	})

	out := stageOutput{apply: func(s *session) {
		if images == nil {
			images = []types.GeneratedImage{}
		}
		s.visuals = images
	}}
	if err != nil && images == nil {
		out.apply = nil
	}
	return out, err
}

func (c *Controller) runAudioSubtitles(ctx context.Context, _ uint64, in stageInput) (stageOutput, error) {
	if err := c.sleep(ctx, c.opts.AudioDelay); err != nil {
		return stageOutput{}, err
	}

	voice := placeholder.VoiceOver(in.script.Narration, in.script.Mood)
	music := placeholder.Music(in.script.Mood, in.config.Style)
	cues := placeholder.Subtitles(in.script.Segments)
	srt := placeholder.FormatSRT(cues)

	return stageOutput{apply: func(s *session) {
		s.voiceOver = &voice
		s.music = &music
		s.subtitles = cues
		s.srt = srt
	}}, nil
}

func (c *Controller) runVideoPlanning(ctx context.Context, _ uint64, _ stageInput) (stageOutput, error) {
	if err := c.sleep(ctx, c.opts.VideoDelay); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{apply: func(s *session) {
		s.storyboard = types.StoryboardState{}
	}}, nil
}

func (c *Controller) runPublishingSuggestions(ctx context.Context, _ uint64, in stageInput) (stageOutput, error) {
	suggestions, err := c.gen.GeneratePublishingSuggestions(ctx, in.topic, in.script.Keywords)
	if err != nil {
		return stageOutput{}, err
	}
	if suggestions == nil {
		return stageOutput{}, newStageError("Publishing suggestions returned no data.")
	}
	return stageOutput{apply: func(s *session) {
		s.publishing = suggestions
	}}, nil
}
