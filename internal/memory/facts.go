package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/nyralabs/nira/internal/core"
	"github.com/nyralabs/nira/internal/llm"
	"github.com/nyralabs/nira/internal/logging"
	"github.com/nyralabs/nira/internal/storage"
)

// Extraction cadence: every fifth interaction, or any time the user
// writes something long enough to likely carry substance.
const (
	extractEveryNth  = 5
	extractMinLength = 200
)

const extractSystemPrompt = `You extract durable facts about a person from one chat message.
A durable fact is something worth remembering next week: their job, family, city, goals, fears, important events.
Reply with ONE short third-person sentence, e.g. "Has a job interview at Infosys next month."
If the message contains nothing durable, reply with exactly NONE.`

// FactExtractor distills long-term facts out of user messages using a
// cheap model call, on a cadence rather than every turn.
type FactExtractor struct {
	provider llm.Provider
	facts    *storage.FactStore
	recall   Recaller // optional
}

// NewFactExtractor creates a fact extractor. recall may be nil.
func NewFactExtractor(provider llm.Provider, facts *storage.FactStore, recall Recaller) *FactExtractor {
	return &FactExtractor{provider: provider, facts: facts, recall: recall}
}

// ShouldExtract decides whether this turn warrants an extraction call.
func (e *FactExtractor) ShouldExtract(interactions int, message string) bool {
	if interactions > 0 && interactions%extractEveryNth == 0 {
		return true
	}
	return len(message) > extractMinLength
}

// Extract runs the extraction call and persists any fact found.
// A NONE verdict returns (nil, nil).
func (e *FactExtractor) Extract(ctx context.Context, userID, message string) (*core.LongTermFact, error) {
	if e.provider == nil || !e.provider.IsConfigured() {
		return nil, nil
	}

	reply, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System:      extractSystemPrompt,
		UserMessage: message,
		MaxTokens:   60,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	summary := strings.Trim(strings.TrimSpace(reply), `"`)
	if summary == "" || strings.EqualFold(summary, "none") || strings.EqualFold(summary, "none.") {
		return nil, nil
	}

	fact, err := e.facts.Append(userID, summary)
	if err != nil {
		return nil, fmt.Errorf("failed to store fact: %w", err)
	}

	if e.recall != nil {
		if err := e.recall.Index(ctx, userID, fact.ID, fact.Summary); err != nil {
			logging.WithField("user", userID).Warn("fact not indexed for recall: %v", err)
		}
	}
	return fact, nil
}
