package memory

import (
	"context"
	"sync"
	"time"

	"github.com/nyralabs/nira/internal/core"
	"github.com/nyralabs/nira/internal/logging"
	"github.com/nyralabs/nira/internal/storage"
)

// How much history reaches each turn's context.
const (
	factLimit     = 10
	turnLimit     = 15
	semanticLimit = 3
)

// Recaller finds facts by meaning. Implementations back onto a vector
// store; a nil Recaller disables semantic recall entirely.
type Recaller interface {
	Index(ctx context.Context, userID, factID, summary string) error
	Search(ctx context.Context, userID, query string, limit int) ([]string, error)
}

// VisionFunc produces a scene description for the current turn.
type VisionFunc func(ctx context.Context) (string, error)

// Assembler gathers everything the model needs to answer one turn.
type Assembler struct {
	profiles      *storage.ProfileStore
	emotions      *storage.EmotionStore
	facts         *storage.FactStore
	conversations *storage.ConversationStore
	recall        Recaller // optional
}

// NewAssembler creates a memory assembler. recall may be nil.
func NewAssembler(profiles *storage.ProfileStore, emotions *storage.EmotionStore, facts *storage.FactStore, conversations *storage.ConversationStore, recall Recaller) *Assembler {
	return &Assembler{
		profiles:      profiles,
		emotions:      emotions,
		facts:         facts,
		conversations: conversations,
		recall:        recall,
	}
}

// AssembleInput names what one turn's context is built from.
type AssembleInput struct {
	UserID  string
	Message string
	Persona core.Persona
	Vision  VisionFunc // optional
	Now     time.Time
}

// Assemble fetches every memory source concurrently and never fails:
// a source that errors contributes its zero value so one bad read
// cannot take down the turn.
func (a *Assembler) Assemble(ctx context.Context, in AssembleInput) *core.MemoryBundle {
	bundle := &core.MemoryBundle{Persona: in.Persona}

	var wg sync.WaitGroup
	fetch := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				logging.WithFields(map[string]interface{}{"source": name, "user": in.UserID}).
					Warn("memory fetch degraded: %v", err)
			}
		}()
	}

	fetch("profile", func() error {
		profile, err := a.profiles.GetByID(in.UserID)
		if err == core.ErrProfileNotFound {
			return nil // first contact, nothing known yet
		}
		if err != nil {
			return err
		}
		bundle.Identity = *profile
		bundle.Stats = friendshipStats(profile, in.Now)
		return nil
	})

	fetch("emotional_state", func() error {
		state, err := a.emotions.Get(in.UserID)
		if err != nil {
			return err
		}
		bundle.EmotionalState = *state
		return nil
	})

	fetch("long_term_facts", func() error {
		facts, err := a.facts.Recent(in.UserID, factLimit)
		if err != nil {
			return err
		}
		summaries := make([]string, 0, len(facts))
		for _, f := range facts {
			summaries = append(summaries, f.Summary)
		}
		bundle.LongTerm = summaries
		return nil
	})

	fetch("conversation_turns", func() error {
		turns, err := a.conversations.Recent(in.UserID, turnLimit)
		if err != nil {
			return err
		}
		// Stored newest-first; the model wants chronological order.
		for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
			turns[i], turns[j] = turns[j], turns[i]
		}
		bundle.RecentTurns = turns
		return nil
	})

	var semantic []string
	if a.recall != nil && in.Message != "" {
		fetch("semantic_recall", func() error {
			hits, err := a.recall.Search(ctx, in.UserID, in.Message, semanticLimit)
			if err != nil {
				return err
			}
			semantic = hits
			return nil
		})
	}

	if in.Vision != nil {
		fetch("vision", func() error {
			description, err := in.Vision(ctx)
			if err != nil {
				return err
			}
			bundle.VisionDescription = description
			return nil
		})
	}

	wg.Wait()

	bundle.LongTerm = mergeFacts(bundle.LongTerm, semantic)
	return bundle
}

// friendshipStats derives how long and how much we have talked.
func friendshipStats(p *core.UserProfile, now time.Time) core.FriendshipStats {
	stats := core.FriendshipStats{Interactions: p.TotalInteractions}
	if !p.CreatedAt.IsZero() {
		days := int(now.Sub(p.CreatedAt).Hours() / 24)
		if days < 1 {
			days = 1
		}
		stats.Days = days
	}
	return stats
}

// mergeFacts appends semantic hits that recency didn't already surface.
func mergeFacts(recent, semantic []string) []string {
	seen := make(map[string]bool, len(recent))
	for _, f := range recent {
		seen[f] = true
	}
	for _, f := range semantic {
		if !seen[f] {
			recent = append(recent, f)
			seen[f] = true
		}
	}
	return recent
}
