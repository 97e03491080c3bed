package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/unalkalkan/ReelPilot/pkg/types"
)

var topicsExample = types.TopicAnalysis{
	SuggestedTopics: []string{"Example trending topic one", "Example trending topic two"},
	AIChoice: &types.AIChoice{
		Topic:     "Example trending topic one",
		Reasoning: "This topic fits the current strategy best because it is highly engaging.",
	},
}

var scriptExample = types.Script{
	Title:          "Example video title",
	TargetAudience: "e.g. people aged eighteen to twenty-five",
	Mood:           "e.g. funny and light",
	Keywords:       []string{"keywordOne", "keywordTwo", "keywordThree"},
	Hook:           "A punchy hook for the first three seconds.",
	CallToAction:   "Simple call to action: follow now!",
	Narration:      "Hi everyone! Today we talk about the number one topic to go viral. It is one hundred percent amazing.",
	Segments: []types.Segment{
		{Scene: 1, VisualDescription: "Dynamic visuals for the first scene", Narration: "Hi everyone, here we go with a new video!", DurationSeconds: 5},
		{Scene: 2, VisualDescription: "Quick demo of the product or idea", Narration: "Look at this, it is super simple and works ninety-nine percent of the time.", DurationSeconds: 10},
	},
}

var publishingExample = types.PublishingSuggestions{
	Hashtags:           []string{"#fyp", "#viral", "#specificTopic"},
	OptimalPostingTime: "e.g. weekdays six to nine in the evening, weekends noon to three (local time)",
	CaptionIdeas:       []string{"A short, engaging caption idea.", "Another caption with a question to drive comments."},
	EngagementTips:     []string{"Ask a question in the caption.", "Use trending sounds when they fit.", "Reply quickly to comments."},
}

func example(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}

func topicsPrompt(mode types.Mode, style types.Style, count int, language string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are an AI trend analyst for short-form vertical video. Identify %d trending topics or content ideas, written in %s.\n", count, language)
	sb.WriteString("Then select ONE of them as \"ai_chosen_topic\", the one you consider most promising for the agent's strategic style, and give a short \"reasoning\" for the choice.\n\n")
	sb.WriteString("Agent parameters:\n")
	fmt.Fprintf(&sb, "- Interaction mode: %s\n", mode)
	fmt.Fprintf(&sb, "- Strategic style: %s\n", style)
	if style == types.StyleBold {
		sb.WriteString("For the bold style the chosen topic must strongly favour polarizing, hotly debated or daring content that sparks discussion. Be bold in your choice and reasoning.\n\n")
	} else {
		sb.WriteString("For the balanced style the chosen topic must favour broad appeal, positivity or informativeness, aiming for balanced engagement. Your reasoning must reflect this.\n\n")
	}
	sb.WriteString("Return a single JSON object with this structure (English keys):\n")
	sb.WriteString(example(topicsExample))
	sb.WriteString("\n\nIf no topic is found, return an empty suggested_topics array and omit ai_chosen_topic.\n")
	fmt.Fprintf(&sb, "Make sure suggested_topics contains %d entries when possible.\n", count)
	sb.WriteString("Output ONLY the JSON object, with no other text or markdown formatting.")

	return sb.String()
}

func scriptPrompt(req ScriptRequest, language string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are an AI scriptwriter for short-form vertical video. Write a viral video script in %s.\n", language)
	fmt.Fprintf(&sb, "Base topic: %s\n", req.Topic)
	if req.Refinement != "" {
		fmt.Fprintf(&sb, "User refinement of the topic (focus on this specific angle): %q\n", req.Refinement)
	}
	fmt.Fprintf(&sb, "Interaction mode: %s\n", req.Mode)
	fmt.Fprintf(&sb, "Strategic style: %s\n", req.Style)
	if req.Style == types.StyleBold {
		fmt.Fprintf(&sb, "Audacity level (1-10, 10 being the boldest): %d. The script must be edgier, more provocative and more attention-grabbing accordingly.\n", req.Audacity)
	}
	if req.Feedback != "" {
		fmt.Fprintf(&sb, "Revise the script using this user feedback: %q\n", req.Feedback)
	}

	sb.WriteString("\nThe video must be short, engaging and optimized for vertical video feeds (usually fifteen to sixty seconds in total).\n\n")
	sb.WriteString("IMPORTANT FOR THE VOICE-OVER (fields \"dialogue_voiceover\" and \"full_text_for_voiceover\"):\n")
	sb.WriteString("- The text MUST be easy and fluid to read aloud by a voice actor.\n")
	sb.WriteString("- AVOID symbols, digits and abbreviations. SPELL EVERYTHING OUT IN WORDS.\n")
	sb.WriteString("  Examples: \"percent\" instead of \"%\", \"number one\" instead of \"#1\", \"twenty-five\" instead of \"25\", \"two p m\" instead of \"14h\", \"and so on\" instead of \"etc.\"\n")
	sb.WriteString("- The tone must be conversational and suited to dynamic narration.\n\n")
	sb.WriteString("Return a JSON object with this structure (English keys):\n")
	sb.WriteString(example(scriptExample))
	sb.WriteString("\n\nMake sure that:\n")
	sb.WriteString("- The output is a single valid JSON object.\n")
	sb.WriteString("- \"full_text_for_voiceover\" is the concatenation of every segment's \"dialogue_voiceover\", forming a coherent narration.\n")
	sb.WriteString("- Segments are numbered from 1 without gaps and describe distinct scenes.\n")
	sb.WriteString("- \"visual_description\" gives clear visual ideas for each segment.\n")
	sb.WriteString("- \"duration_seconds\" is a realistic positive number for each segment.\n")
	sb.WriteString("Output ONLY the raw JSON object. Do not wrap it in markdown and do not add any text before or after it.")

	return sb.String()
}

func imagePrompt(seg types.Segment, req VisualsRequest, index, perSegment int) string {
	var sb strings.Builder

	sb.WriteString("Key frame for a short vertical video.\n")
	fmt.Fprintf(&sb, "Scene %d: %s.\n", seg.Scene, seg.VisualDescription)
	fmt.Fprintf(&sb, "Dialogue (context only, do not render text in the image): %q.\n", seg.Narration)
	fmt.Fprintf(&sb, "Overall mood: %s.\n", req.Mood)
	fmt.Fprintf(&sb, "Target audience: %s.", req.Audience)
	if req.Style == types.StyleBold {
		sb.WriteString(" Style: eye-catching, daring, unconventional, highly shareable, viral potential.")
	} else {
		sb.WriteString(" Style: engaging, clear, attractive, balanced for broad engagement, high quality.")
	}
	sb.WriteString(" Aspect ratio 9:16 (vertical video). This is a single key frame representing this moment of the video.")
	if perSegment > 1 {
		fmt.Fprintf(&sb, " (Image %d of %d for this scene.)", index+1, perSegment)
	}

	return sb.String()
}

func publishingPrompt(topic string, keywords []string, language string) string {
	var sb strings.Builder

	sb.WriteString("You are an AI publishing strategist for short-form vertical video.\n")
	fmt.Fprintf(&sb, "The video is about: %q\n", topic)
	fmt.Fprintf(&sb, "Main script keywords: %s\n\n", strings.Join(keywords, ", "))
	fmt.Fprintf(&sb, "Give publishing suggestions in %s that maximize reach and engagement.\n", language)
	sb.WriteString("Format your answer as a JSON object with this structure (English keys):\n")
	sb.WriteString(example(publishingExample))
	sb.WriteString("\n\nHashtags must be relevant and mix broad and niche tags.\n")
	sb.WriteString("The optimal posting time is a general indication.\n")
	sb.WriteString("Caption ideas must be short and catchy. Engagement tips must be actionable.\n")
	sb.WriteString("Output ONLY the JSON object, with no other text or markdown formatting.")

	return sb.String()
}
