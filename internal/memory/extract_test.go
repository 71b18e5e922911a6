package memory

import (
	"testing"
	"time"
)

func TestExtractName(t *testing.T) {
	tests := []struct {
		message string
		want    string
		found   bool
	}{
		{"mera naam Rahul hai", "Rahul", true},
		{"My name is priya", "Priya", true},
		{"i am ARJUN", "Arjun", true},
		{"main Simran hoon", "Simran", true},
		{"this is Dev here", "Dev", true},
		{"I'm Kabir, nice to meet you", "Kabir", true},
		{"i am fine", "", false},
		{"i am so tired today", "", false},
		{"main okay hoon", "", false},
		{"what should I cook today", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, found := ExtractName(tt.message)
		if found != tt.found || got != tt.want {
			t.Errorf("ExtractName(%q) = (%q, %v), want (%q, %v)", tt.message, got, found, tt.want, tt.found)
		}
	}
}

func TestExtractNameIdempotentNormalization(t *testing.T) {
	first, _ := ExtractName("my name is rahul")
	second, _ := ExtractName("my name is RAHUL")
	if first != second {
		t.Errorf("normalization should be stable: %q vs %q", first, second)
	}
}

func TestDeriveMood(t *testing.T) {
	now := time.Now()
	tests := []struct {
		message string
		mood    string
	}{
		{"hi", "engaged"},
		{"exams are giving me so much stress yaar", "stressed"},
		{"I keep thinking about what you said yesterday and honestly it changed how I see things", "reflective"},
	}
	for _, tt := range tests {
		state := DeriveMood(tt.message, now)
		if state.Mood != tt.mood {
			t.Errorf("DeriveMood(%q).Mood = %q, want %q", tt.message, state.Mood, tt.mood)
		}
		if state.Energy != "high" {
			t.Errorf("energy should default to high, got %q", state.Energy)
		}
		if state.LastUpdated.IsZero() {
			t.Error("LastUpdated must be set")
		}
	}
}
