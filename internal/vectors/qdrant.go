// Package vectors stores long-term fact embeddings in Qdrant so the
// memory assembler can recall facts by meaning, not just recency.
package vectors

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

const collectionFacts = "facts"

// Store wraps the Qdrant client for fact vector operations
type Store struct {
	client *qdrant.Client
}

// Config for vector store
type Config struct {
	Host   string // Qdrant host, default "localhost"
	Port   int    // Qdrant gRPC port, default 6334
	UseTLS bool   // Use TLS
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host: "localhost",
		Port: 6334,
	}
}

// NewStore creates a new vector store
func NewStore(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	return &Store{client: client}, nil
}

// Close closes the Qdrant connection
func (s *Store) Close() error {
	return s.client.Close()
}

// EnsureSchema creates the facts collection if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context, dimension uint64) error {
	exists, err := s.client.CollectionExists(ctx, collectionFacts)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", collectionFacts, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionFacts,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collectionFacts, err)
	}
	return nil
}

// UpsertFact indexes one fact embedding, keyed by the fact's id.
func (s *Store) UpsertFact(ctx context.Context, id, userID, summary string, vector []float32) error {
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionFacts,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(vector...),
			Payload: map[string]*qdrant.Value{
				"user_id": qdrant.NewValueString(userID),
				"summary": qdrant.NewValueString(summary),
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert fact: %w", err)
	}
	return nil
}

// FactHit is one semantic search match.
type FactHit struct {
	ID      string
	Summary string
	Score   float32
}

// SearchFacts returns the user's facts closest to the query vector.
func (s *Store) SearchFacts(ctx context.Context, userID string, vector []float32, limit uint64) ([]FactHit, error) {
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionFacts,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "user_id",
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{Keyword: userID},
						},
					},
				},
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]FactHit, 0, len(results))
	for _, r := range results {
		hit := FactHit{ID: r.Id.GetUuid(), Score: r.Score}
		if v, ok := r.Payload["summary"]; ok {
			hit.Summary = v.GetStringValue()
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DeleteFacts removes fact points by id, e.g. when a user is purged.
func (s *Store) DeleteFacts(ctx context.Context, ids []string) error {
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionFacts,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIDs},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}
