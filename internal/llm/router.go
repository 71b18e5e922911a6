package llm

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/nyralabs/nira/internal/core"
	"github.com/nyralabs/nira/internal/logging"
	"github.com/nyralabs/nira/internal/persona"
)

// ProviderCanned is the provider name reported when every real
// provider failed and a canned line was returned.
const ProviderCanned = "canned"

// historyWindow limits how many prior turns reach the model.
const historyWindow = 8

// Defaults used when no global config has arrived yet.
const (
	defaultMaxTokens   = 150
	defaultTemperature = 0.85
)

// searchTriggers mark queries that need live web retrieval. Matching
// queries are routed past providers without search capability.
var searchTriggers = []string{
	"latest", "news", "search for", "look up", "link to",
	"send me a link", "current price", "weather", "live score",
	"what happened today",
}

// ConfigSource returns the current GlobalConfig snapshot, or nil if
// none has been delivered yet. Implementations must not block.
type ConfigSource func() *core.GlobalConfig

// Router walks an ordered provider chain until one returns a
// non-empty completion. It never fails the caller: when the chain is
// exhausted it degrades to a canned persona line.
type Router struct {
	descriptors []Descriptor
	configFn    ConfigSource

	mu  sync.Mutex
	rnd *rand.Rand
}

// RouterConfig configures the fallback router
type RouterConfig struct {
	Providers    []Descriptor
	ConfigSource ConfigSource
	Seed         int64 // deterministic canned-line selection for tests
}

// NewRouter creates a new fallback router
func NewRouter(cfg RouterConfig) *Router {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Router{
		descriptors: cfg.Providers,
		configFn:    cfg.ConfigSource,
		rnd:         rand.New(rand.NewSource(seed)),
	}
}

// RouteResult carries the reply and which provider produced it.
type RouteResult struct {
	Text     string
	Provider string
	Tokens   int
}

// Reply produces the assistant reply for a user message given the
// assembled memory bundle. It always returns a non-empty result.
func (r *Router) Reply(ctx context.Context, userMessage string, mem *core.MemoryBundle) RouteResult {
	system := persona.SystemPrompt(mem)
	history := historyMessages(mem.RecentTurns)

	maxTokens, temperature := defaultMaxTokens, defaultTemperature
	cfg := r.snapshot()
	if cfg != nil && cfg.AI.Temperature > 0 {
		temperature = cfg.AI.Temperature
	}

	// Visual context rides on the message itself so the model treats
	// it as high priority.
	message := userMessage
	if mem.VisionDescription != "" {
		message = fmt.Sprintf("[What I am seeing right now: %s]\n%s", mem.VisionDescription, userMessage)
	}

	req := CompletionRequest{
		System:      system,
		History:     history,
		UserMessage: message,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	needsSearch := NeedsSearch(userMessage) && (cfg == nil || cfg.Features.SearchEnabled)

	for _, d := range r.orderedChain(cfg) {
		if !d.Provider.IsConfigured() {
			continue
		}
		if needsSearch && !d.SupportsSearch && r.hasSearchProvider() {
			logging.WithField("provider", d.Provider.Name()).Debug("skipping provider without search capability")
			continue
		}

		text, err := d.Provider.Complete(ctx, req)
		if err != nil {
			logging.WithField("provider", d.Provider.Name()).Warn("provider failed: %v", truncateErr(err))
			continue
		}
		if text = strings.TrimSpace(text); text == "" {
			logging.WithField("provider", d.Provider.Name()).Warn("provider returned empty completion")
			continue
		}

		return RouteResult{Text: text, Provider: d.Provider.Name(), Tokens: len(text)}
	}

	r.mu.Lock()
	line := persona.CannedLine(r.rnd)
	r.mu.Unlock()

	return RouteResult{Text: line, Provider: ProviderCanned}
}

// NeedsSearch reports whether a message looks like it needs live web
// retrieval. The trigger list is fixed and deliberately small.
func NeedsSearch(message string) bool {
	lower := strings.ToLower(message)
	for _, trigger := range searchTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

func (r *Router) snapshot() *core.GlobalConfig {
	if r.configFn == nil {
		return nil
	}
	return r.configFn()
}

// orderedChain orders descriptors by the config's primary/fallback
// choice, keeping the declared order as the tail.
func (r *Router) orderedChain(cfg *core.GlobalConfig) []Descriptor {
	if cfg == nil || cfg.AI.PrimaryModel == "" {
		return r.descriptors
	}

	ordered := make([]Descriptor, 0, len(r.descriptors))
	for _, name := range []string{cfg.AI.PrimaryModel, cfg.AI.FallbackModel} {
		for _, d := range r.descriptors {
			if d.Provider.Name() == name {
				ordered = append(ordered, d)
			}
		}
	}
	for _, d := range r.descriptors {
		if !containsProvider(ordered, d.Provider.Name()) {
			ordered = append(ordered, d)
		}
	}
	return ordered
}

func (r *Router) hasSearchProvider() bool {
	for _, d := range r.descriptors {
		if d.SupportsSearch && d.Provider.IsConfigured() {
			return true
		}
	}
	return false
}

func containsProvider(list []Descriptor, name string) bool {
	for _, d := range list {
		if d.Provider.Name() == name {
			return true
		}
	}
	return false
}

func historyMessages(turns []core.ConversationTurn) []Message {
	if len(turns) > historyWindow {
		turns = turns[len(turns)-historyWindow:]
	}
	messages := make([]Message, 0, len(turns))
	for _, t := range turns {
		role := "assistant"
		if t.Role == core.RoleUser {
			role = "user"
		}
		messages = append(messages, Message{Role: role, Content: t.Content})
	}
	return messages
}

func truncateErr(err error) string {
	msg := err.Error()
	if len(msg) > 80 {
		msg = msg[:80]
	}
	return msg
}
