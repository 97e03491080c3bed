// Package placeholder derives audio plans and a subtitle track from a
// finished script without calling any backend.
package placeholder

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/unalkalkan/ReelPilot/pkg/types"
)

const fallbackSampleLine = "This is a sample line for the voice-over"

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

type moodRule struct {
	keywords []string
	value    string
}

var voiceStyles = []moodRule{
	{[]string{"funny", "comic", "humor", "humour"}, "Playful, upbeat voice with comic timing."},
	{[]string{"inspir", "motivat"}, "Warm, encouraging and confident voice."},
	{[]string{"bold", "daring", "edgy"}, "Strong, assertive voice that grabs attention."},
}

var musicGenres = []moodRule{
	{[]string{"funny", "comic", "humor", "humour"}, "Quirky, light instrumental, possibly with sound effects"},
	{[]string{"inspir"}, "Inspiring orchestral or ambient electronic music"},
	{[]string{"suspens"}, "Tense atmospheric electronica or cinematic score"},
	{[]string{"educat"}, "Neutral, positive background music (lo-fi, acoustic)"},
}

const (
	defaultVoiceStyle = "Clear, engaging standard voice."
	defaultMusicGenre = "Instrumental"
)

func matchMood(mood string, rules []moodRule, fallback string) string {
	m := strings.ToLower(mood)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(m, kw) {
				return rule.value
			}
		}
	}
	return fallback
}

// VoiceOver picks a voice style from the mood and quotes the first
// sentence of the narration as a sample cue.
func VoiceOver(narration, mood string) types.VoiceOverPlan {
	first := strings.TrimSpace(sentenceBoundary.Split(narration, 2)[0])
	if first == "" {
		first = fallbackSampleLine
	}
	if !strings.ContainsAny(first[len(first)-1:], ".!?") {
		first += "."
	}

	return types.VoiceOverPlan{
		Style:     matchMood(mood, voiceStyles, defaultVoiceStyle),
		SampleCue: fmt.Sprintf("Sample line: %q (read in the suggested style).", first),
	}
}

// Music picks a genre from the mood; the bold style asks for a
// higher-energy rendition of the same genre.
func Music(mood string, style types.Style) types.MusicPlan {
	genre := strings.ToLower(matchMood(mood, musicGenres, defaultMusicGenre))

	var desc string
	if style == types.StyleBold {
		desc = fmt.Sprintf("High-energy sound, possibly a trending or bold %s track.", genre)
	} else {
		desc = fmt.Sprintf("Engaging %s track that supports the content without overpowering it.", genre)
	}

	return types.MusicPlan{
		Style:         desc,
		MoodAlignment: fmt.Sprintf("Chosen to match the script mood: %q.", mood),
	}
}

// Subtitles builds one cue per segment. Cue i starts at the summed
// duration of the segments before it and ends after its own duration.
func Subtitles(segments []types.Segment) []types.SubtitleCue {
	cues := make([]types.SubtitleCue, 0, len(segments))
	offset := 0.0
	for i, seg := range segments {
		end := offset + seg.DurationSeconds
		cues = append(cues, types.SubtitleCue{
			Index: i + 1,
			Start: offset,
			End:   end,
			Text:  seg.Narration,
		})
		offset = end
	}
	return cues
}

// FormatSRT renders cues as blank-line separated SRT blocks
func FormatSRT(cues []types.SubtitleCue) string {
	blocks := make([]string, 0, len(cues))
	for _, cue := range cues {
		blocks = append(blocks, fmt.Sprintf("%d\n%s --> %s\n%s",
			cue.Index, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), cue.Text))
	}
	return strings.TrimSpace(strings.Join(blocks, "\n\n"))
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int64(math.Round(seconds * 1000))
	h := totalMs / 3_600_000
	m := (totalMs % 3_600_000) / 60_000
	s := (totalMs % 60_000) / 1000
	ms := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
