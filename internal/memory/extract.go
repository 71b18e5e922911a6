// Package memory assembles the per-turn context bundle and distills
// durable facts, names and mood from what the user says.
package memory

import (
	"regexp"
	"strings"
	"time"

	"github.com/nyralabs/nira/internal/core"
)

// namePattern matches self-introductions in English and Hinglish,
// e.g. "my name is Priya", "mera naam Rahul hai", "main Arjun hoon".
var namePattern = regexp.MustCompile(`(?i)\b(?:mera naam|my name is|i am|i'm|this is|main)\s+([a-zA-Z]{2,15})(?:\s+hai\b|\s+hoon\b|\s+here\b|[.!,?]|\s*$)`)

// nameStopwords are captures that are grammar, not names.
var nameStopwords = map[string]bool{
	"not": true, "fine": true, "good": true, "okay": true, "ok": true,
	"sure": true, "sorry": true, "happy": true, "sad": true,
	"tired": true, "busy": true, "here": true, "so": true,
	"very": true, "really": true, "just": true, "feeling": true,
	"bored": true, "done": true, "back": true,
}

// ExtractName pulls a display name out of a self-introduction. The
// second return is false when the message contains no usable name.
func ExtractName(message string) (string, bool) {
	m := namePattern.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	candidate := strings.ToLower(m[1])
	if nameStopwords[candidate] {
		return "", false
	}
	return strings.ToUpper(candidate[:1]) + candidate[1:], true
}

// DeriveMood maps a user message onto the single mood snapshot. Long
// messages read as reflective, stress words as stressed, everything
// else as engaged.
func DeriveMood(message string, now time.Time) core.EmotionalState {
	mood := "engaged"
	switch {
	case len(message) > 50:
		mood = "reflective"
	case strings.Contains(strings.ToLower(message), "stress"):
		mood = "stressed"
	}
	return core.EmotionalState{
		Mood:        mood,
		Energy:      "high",
		LastUpdated: now.UTC(),
	}
}
