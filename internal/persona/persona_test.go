package persona

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/nyralabs/nira/internal/core"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		tag  string
		want core.Persona
	}{
		{"nira", core.PersonaNira},
		{"ali", core.PersonaAli},
		{"ALI", core.PersonaAli},
		{"", core.PersonaNira},
		{"unknown", core.PersonaNira},
	}

	for _, tt := range tests {
		if got := Normalize(tt.tag); got != tt.want {
			t.Errorf("Normalize(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func TestSystemPrompt_PersonaSelection(t *testing.T) {
	nira := SystemPrompt(&core.MemoryBundle{Persona: core.PersonaNira})
	if !strings.Contains(nira, "NIRA (Female)") {
		t.Error("nira prompt missing persona header")
	}
	if !strings.Contains(nira, "FEMME GUARD") {
		t.Error("nira prompt missing feminine grammar rules")
	}

	ali := SystemPrompt(&core.MemoryBundle{Persona: core.PersonaAli})
	if !strings.Contains(ali, "ALI (Male)") {
		t.Error("ali prompt missing persona header")
	}
	if strings.Contains(ali, "FEMME GUARD") {
		t.Error("ali prompt must not carry feminine grammar rules")
	}
}

func TestSystemPrompt_MoodClause(t *testing.T) {
	withMood := SystemPrompt(&core.MemoryBundle{
		Persona:        core.PersonaNira,
		EmotionalState: core.EmotionalState{Mood: "reflective"},
	})
	if !strings.Contains(withMood, "You are currently feeling reflective.") {
		t.Error("mood clause missing")
	}

	withoutMood := SystemPrompt(&core.MemoryBundle{Persona: core.PersonaNira})
	if strings.Contains(withoutMood, "currently feeling") {
		t.Error("mood clause present without a mood")
	}
}

func TestSystemPrompt_IdentityClause(t *testing.T) {
	known := SystemPrompt(&core.MemoryBundle{
		Persona:  core.PersonaNira,
		Identity: core.UserProfile{Name: "Rahul"},
	})
	if !strings.Contains(known, "The user's name is Rahul.") {
		t.Error("known-name clause missing")
	}

	unknown := SystemPrompt(&core.MemoryBundle{Persona: core.PersonaNira})
	if !strings.Contains(unknown, "don't know the user's name") {
		t.Error("unknown-name clause missing")
	}
}

func TestSystemPrompt_ContextAndVisionBlocks(t *testing.T) {
	prompt := SystemPrompt(&core.MemoryBundle{
		Persona:           core.PersonaNira,
		LongTerm:          []string{"loves chai", "works in Pune"},
		Stats:             core.FriendshipStats{Days: 12, Interactions: 40},
		VisionDescription: "Your friend is holding a guitar.",
	})

	if !strings.Contains(prompt, "Core Memories about your friend:") {
		t.Error("facts block missing")
	}
	if !strings.Contains(prompt, "- loves chai") {
		t.Error("fact bullet missing")
	}
	if !strings.Contains(prompt, "friends for 12 days and have had 40 interactions") {
		t.Error("stats clause missing")
	}
	if !strings.Contains(prompt, "VISION: WHAT YOU SEE RIGHT NOW") ||
		!strings.Contains(prompt, "holding a guitar") {
		t.Error("vision block missing")
	}
}

func TestSystemPrompt_EmptyBundleOmitsBlocks(t *testing.T) {
	prompt := SystemPrompt(&core.MemoryBundle{Persona: core.PersonaNira})

	if strings.Contains(prompt, "Core Memories") {
		t.Error("facts block present with no facts")
	}
	if strings.Contains(prompt, "VISION:") {
		t.Error("vision block present with no description")
	}
}

func TestCannedLine(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		line := CannedLine(rnd)
		if line == "" {
			t.Fatal("canned line must never be empty")
		}
	}

	if CannedLine(nil) == "" {
		t.Error("nil rand must still return a line")
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips as an AI",
			in:   "Well, as an AI I cannot say.",
			want: "Well, honestly I cannot say.",
		},
		{
			name: "case insensitive",
			in:   "AS A LANGUAGE MODEL, maybe.",
			want: "honestly, maybe.",
		},
		{
			name: "removes sign off",
			in:   "Take care! Sincerely, NIRA",
			want: "Take care!",
		},
		{
			name: "friend replacement",
			in:   "I'm just a friend, yaar.",
			want: "I'm your friend, yaar.",
		},
		{
			name: "trims whitespace",
			in:   "  sab theek hai  ",
			want: "sab theek hai",
		},
		{
			name: "clean text passes through",
			in:   "Main bilkul set hoon, tum batao!",
			want: "Main bilkul set hoon, tum batao!",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitize_Deterministic(t *testing.T) {
	in := "as an AI, I'm just a friend. Sincerely, NIRA"
	first := Sanitize(in)
	for i := 0; i < 5; i++ {
		if got := Sanitize(in); got != first {
			t.Fatalf("Sanitize not deterministic: %q vs %q", got, first)
		}
	}
	if strings.Contains(first, "as an AI") {
		t.Error("banned phrase survived sanitization")
	}
	if !strings.Contains(first, "honestly") {
		t.Error("filler word missing from sanitized output")
	}
}
