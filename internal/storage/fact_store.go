package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/nyralabs/nira/internal/core"
)

// FactStore handles long-term fact persistence
type FactStore struct {
	db *DB
}

// NewFactStore creates a new fact store
func NewFactStore(db *DB) *FactStore {
	return &FactStore{db: db}
}

// Append stores a newly extracted fact and returns it.
func (s *FactStore) Append(userID, summary string) (*core.LongTermFact, error) {
	fact := &core.LongTermFact{
		ID:        uuid.New().String(),
		UserID:    userID,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.conn.Exec(`
		INSERT INTO long_term_facts (id, user_id, summary, created_at)
		VALUES (?, ?, ?, ?)
	`, fact.ID, fact.UserID, fact.Summary, fact.CreatedAt)
	if err != nil {
		return nil, err
	}

	return fact, nil
}

// Recent returns the newest facts for a user, newest first.
func (s *FactStore) Recent(userID string, limit int) ([]core.LongTermFact, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.conn.Query(`
		SELECT id, user_id, summary, created_at
		FROM long_term_facts
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []core.LongTermFact
	for rows.Next() {
		var f core.LongTermFact
		if err := rows.Scan(&f.ID, &f.UserID, &f.Summary, &f.CreatedAt); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}

	return facts, rows.Err()
}
