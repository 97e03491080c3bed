package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/unalkalkan/ReelPilot/pkg/types"
)

const exportPromptPreview = 100

// ExportHeader is the metadata block at the top of an export prompt
type ExportHeader struct {
	Title         string
	Audience      string
	Mood          string
	VoiceStyle    string
	MusicStyle    string
	TotalDuration string
	Keywords      []string
}

// BuildExport renders the editing brief handed to an external video editor
func BuildExport(script *types.Script, visuals []types.GeneratedImage, voice *types.VoiceOverPlan, music *types.MusicPlan) string {
	var sb strings.Builder

	voiceStyle, musicStyle := "Not specified", "Not specified"
	if voice != nil && voice.Style != "" {
		voiceStyle = voice.Style
	}
	if music != nil && music.Style != "" {
		musicStyle = music.Style
	}

	sb.WriteString("Create a short vertical video (9:16) from the following script.\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", oneLine(script.Title))
	fmt.Fprintf(&sb, "Audience: %s\n", oneLine(script.TargetAudience))
	fmt.Fprintf(&sb, "Mood: %s\n", oneLine(script.Mood))
	fmt.Fprintf(&sb, "Voice style: %s\n", oneLine(voiceStyle))
	fmt.Fprintf(&sb, "Music style: %s\n", oneLine(musicStyle))
	fmt.Fprintf(&sb, "Total duration: %.0f seconds\n\n", script.TotalDuration())

	sb.WriteString("General instructions:\n")
	sb.WriteString("- Generate an AI voice-over from the narration of each scene, in the voice style above.\n")
	sb.WriteString("- Add background music matching the music style and mood.\n")
	sb.WriteString("- Add animated subtitles synchronized with the voice-over.\n")
	sb.WriteString("- Use dynamic transitions between scenes and keep the pacing tight.\n\n")

	for _, seg := range script.Segments {
		fmt.Fprintf(&sb, "Scene %d (%.0f seconds)\n", seg.Scene, seg.DurationSeconds)
		fmt.Fprintf(&sb, "Visual: %s\n", seg.VisualDescription)
		for _, img := range imagesForScene(visuals, seg.Scene) {
			fmt.Fprintf(&sb, "Reference image: %s\n", preview(img.Prompt))
		}
		fmt.Fprintf(&sb, "Narration: %s\n\n", seg.Narration)
	}

	if script.Hook != "" {
		fmt.Fprintf(&sb, "Hook: %s\n", script.Hook)
	}
	if script.CallToAction != "" {
		fmt.Fprintf(&sb, "Call to action: %s\n", script.CallToAction)
	}
	fmt.Fprintf(&sb, "Keywords: %s\n", joinKeywords(script.Keywords))

	return sb.String()
}

func preview(prompt string) string {
	prompt = oneLine(prompt)
	if utf8.RuneCountInString(prompt) > exportPromptPreview {
		return string([]rune(prompt)[:exportPromptPreview]) + "..."
	}
	return prompt
}

// oneLine collapses whitespace, including newlines, to single spaces
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// joinKeywords renders keywords on one line. Backslashes and commas
// inside a keyword are escaped with a backslash.
func joinKeywords(keywords []string) string {
	escaped := make([]string, len(keywords))
	for i, kw := range keywords {
		kw = strings.ReplaceAll(oneLine(kw), `\`, `\\`)
		escaped[i] = strings.ReplaceAll(kw, ",", `\,`)
	}
	return strings.Join(escaped, ", ")
}

func splitKeywords(line string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if kw := strings.TrimSpace(cur.String()); kw != "" {
			out = append(out, kw)
		}
		cur.Reset()
	}
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == ',':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}

// ParseExportHeader reads the metadata back from an export prompt. Only
// the header block after the opening line and the final Keywords line
// are read, so scene text cannot shadow header values.
func ParseExportHeader(text string) ExportHeader {
	var h ExportHeader
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	i := 1
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	for ; i < len(lines) && strings.TrimSpace(lines[i]) != ""; i++ {
		key, value, ok := strings.Cut(lines[i], ": ")
		if !ok {
			continue
		}
		switch key {
		case "Title":
			h.Title = value
		case "Audience":
			h.Audience = value
		case "Mood":
			h.Mood = value
		case "Voice style":
			h.VoiceStyle = value
		case "Music style":
			h.MusicStyle = value
		case "Total duration":
			h.TotalDuration = value
		}
	}

	for j := len(lines) - 1; j >= 0; j-- {
		if strings.TrimSpace(lines[j]) == "" {
			continue
		}
		if value, ok := strings.CutPrefix(lines[j], "Keywords: "); ok {
			h.Keywords = splitKeywords(value)
		}
		break
	}
	return h
}

// RequestExport builds the export prompt from the current artifacts and
// makes it visible
func (c *Controller) RequestExport() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.s.script == nil {
		return "", ErrNoScript
	}
	c.s.export = BuildExport(c.s.script, c.s.visuals, c.s.voiceOver, c.s.music)
	c.s.exportOpen = true
	c.s.copied = false
	c.touch()
	return c.s.export, nil
}

// CloseExport hides the export prompt
func (c *Controller) CloseExport() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.s.exportOpen = false
	c.s.copied = false
	c.touch()
}

// CopyExport hands the export prompt to the clipboard
func (c *Controller) CopyExport(ctx context.Context) error {
	c.mu.Lock()
	text := c.s.export
	c.mu.Unlock()

	if text == "" {
		return ErrNoExport
	}
	if c.opts.Clipboard == nil {
		return fmt.Errorf("no clipboard configured")
	}
	if err := c.opts.Clipboard.Copy(ctx, c.id, text); err != nil {
		log.Printf("[Workflow] Session %s: failed to copy export: %v", c.id, err)
		return fmt.Errorf("failed to copy export: %w", err)
	}

	c.mu.Lock()
	c.s.copied = c.s.export == text
	c.touch()
	c.mu.Unlock()
	return nil
}
