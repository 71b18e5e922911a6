package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/nyralabs/nira/internal/core"
)

// ConversationStore handles conversation turn persistence
type ConversationStore struct {
	db *DB
}

// NewConversationStore creates a new conversation store
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// AppendExchange writes the user turn, the model turn and the profile
// interaction update in one transaction. Readers never observe a user
// turn without its reply.
func (s *ConversationStore) AppendExchange(userID, userMessage, modelReply string) error {
	now := time.Now().UTC()

	return s.db.Transaction(func(tx *sql.Tx) error {
		for _, turn := range []struct {
			role    core.Role
			content string
		}{
			{core.RoleUser, userMessage},
			{core.RoleModel, modelReply},
		} {
			if _, err := tx.Exec(`
				INSERT INTO conversation_turns (id, user_id, role, content, timestamp)
				VALUES (?, ?, ?, ?, ?)
			`, uuid.New().String(), userID, turn.role, turn.content, now); err != nil {
				return err
			}
		}

		return TouchInteraction(tx, userID, now)
	})
}

// Recent returns the most recent turns for a user, newest first.
func (s *ConversationStore) Recent(userID string, limit int) ([]core.ConversationTurn, error) {
	if limit <= 0 {
		limit = 15
	}

	rows, err := s.db.conn.Query(`
		SELECT id, user_id, role, content, timestamp
		FROM conversation_turns
		WHERE user_id = ?
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []core.ConversationTurn
	for rows.Next() {
		var t core.ConversationTurn
		if err := rows.Scan(&t.ID, &t.UserID, &t.Role, &t.Content, &t.Timestamp); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}

	return turns, rows.Err()
}

// CountForUser returns how many turns a user has recorded.
func (s *ConversationStore) CountForUser(userID string) (int, error) {
	var n int
	err := s.db.conn.QueryRow(
		"SELECT COUNT(*) FROM conversation_turns WHERE user_id = ?", userID,
	).Scan(&n)
	return n, err
}
