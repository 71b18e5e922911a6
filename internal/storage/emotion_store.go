package storage

import (
	"database/sql"
	"time"

	"github.com/nyralabs/nira/internal/core"
)

// EmotionStore handles the per-user mood snapshot
type EmotionStore struct {
	db *DB
}

// NewEmotionStore creates a new emotion store
func NewEmotionStore(db *DB) *EmotionStore {
	return &EmotionStore{db: db}
}

// Get returns the current snapshot. A user with no snapshot yet gets
// the zero value, not an error.
func (s *EmotionStore) Get(userID string) (*core.EmotionalState, error) {
	state := &core.EmotionalState{}
	err := s.db.conn.QueryRow(`
		SELECT mood, energy, last_updated FROM emotional_states WHERE user_id = ?
	`, userID).Scan(&state.Mood, &state.Energy, &state.LastUpdated)
	if err == sql.ErrNoRows {
		return &core.EmotionalState{}, nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Set overwrites the snapshot. No mood history is retained.
func (s *EmotionStore) Set(userID string, state core.EmotionalState) error {
	if state.LastUpdated.IsZero() {
		state.LastUpdated = time.Now().UTC()
	}

	_, err := s.db.conn.Exec(`
		INSERT INTO emotional_states (user_id, mood, energy, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			mood = excluded.mood,
			energy = excluded.energy,
			last_updated = excluded.last_updated
	`, userID, state.Mood, state.Energy, state.LastUpdated)
	return err
}
