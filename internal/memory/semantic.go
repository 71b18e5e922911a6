package memory

import (
	"context"
	"fmt"

	"github.com/nyralabs/nira/internal/embeddings"
	"github.com/nyralabs/nira/internal/vectors"
)

// Recall implements Recaller on top of Gemini embeddings and Qdrant.
type Recall struct {
	embed *embeddings.Service
	store *vectors.Store
}

// NewRecall wires the embedding service to the vector store.
func NewRecall(embed *embeddings.Service, store *vectors.Store) *Recall {
	return &Recall{embed: embed, store: store}
}

// Index embeds one fact and upserts it into the facts collection.
func (r *Recall) Index(ctx context.Context, userID, factID, summary string) error {
	vector, err := r.embed.Embed(ctx, summary)
	if err != nil {
		return fmt.Errorf("failed to embed fact: %w", err)
	}
	return r.store.UpsertFact(ctx, factID, userID, summary, vector)
}

// Search embeds the query and returns matching fact summaries.
func (r *Recall) Search(ctx context.Context, userID, query string, limit int) ([]string, error) {
	vector, err := r.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.store.SearchFacts(ctx, userID, vector, uint64(limit))
	if err != nil {
		return nil, err
	}

	summaries := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Summary != "" {
			summaries = append(summaries, h.Summary)
		}
	}
	return summaries, nil
}
