package generation

import (
	"encoding/json"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"
)

var fencePattern = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// StripFence removes a surrounding markdown code fence, if any
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(s); m != nil && m[2] != "" {
		return strings.TrimSpace(m[2])
	}
	return s
}

// ParseJSON decodes a model response into T. It returns nil when the
// response is not valid JSON.
func ParseJSON[T any](text string) *T {
	var v T
	if err := json.Unmarshal([]byte(StripFence(text)), &v); err != nil {
		log.Printf("[Generation] Failed to parse JSON response: %v (raw: %s)", err, truncate(text, 300))
		return nil
	}
	return &v
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
