package storage

import (
	"database/sql"
	"time"

	"github.com/nyralabs/nira/internal/core"
)

// ProfileStore handles user profile persistence
type ProfileStore struct {
	db *DB
}

// NewProfileStore creates a new profile store
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// GetByID returns a profile by user id
func (s *ProfileStore) GetByID(id string) (*core.UserProfile, error) {
	return scanProfile(s.db.conn.QueryRow(`
		SELECT id, name, email, role, total_interactions, is_suspended, created_at, last_active
		FROM profiles WHERE id = ?
	`, id))
}

func scanProfile(row *sql.Row) (*core.UserProfile, error) {
	p := &core.UserProfile{}
	var name, email sql.NullString
	var createdAt, lastActive sql.NullTime

	err := row.Scan(&p.ID, &name, &email, &p.Role, &p.TotalInteractions, &p.IsSuspended, &createdAt, &lastActive)
	if err == sql.ErrNoRows {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Name = name.String
	p.Email = email.String
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	if lastActive.Valid {
		p.LastActive = lastActive.Time
	}
	return p, nil
}

// TouchInteraction increments the interaction counter, refreshes the
// last-active timestamp and sets created_at only if it was never set.
// It participates in the exchange transaction, so a reader never sees
// the counter move without the matching turns.
func TouchInteraction(tx *sql.Tx, userID string, now time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO profiles (id, total_interactions, created_at, last_active)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			total_interactions = profiles.total_interactions + 1,
			created_at = COALESCE(profiles.created_at, excluded.created_at),
			last_active = excluded.last_active
	`, userID, now, now)
	return err
}

// SetNameIfEmpty persists a lazily-discovered display name. An existing
// name is never overwritten.
func (s *ProfileStore) SetNameIfEmpty(userID, name string) (bool, error) {
	res, err := s.db.conn.Exec(`
		INSERT INTO profiles (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
		WHERE profiles.name IS NULL OR profiles.name = ''
	`, userID, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetSuspended flips the moderation flag for a user.
func (s *ProfileStore) SetSuspended(userID string, suspended bool) error {
	_, err := s.db.conn.Exec(`
		INSERT INTO profiles (id, is_suspended) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET is_suspended = excluded.is_suspended
	`, userID, suspended)
	return err
}

// EnsureRole upgrades a profile's role, creating the record if needed.
func (s *ProfileStore) EnsureRole(userID, email, role string) error {
	_, err := s.db.conn.Exec(`
		INSERT INTO profiles (id, email, role) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET role = excluded.role, email = excluded.email
	`, userID, email, role)
	return err
}

// List returns recent profiles for moderation, capped at limit.
func (s *ProfileStore) List(limit int) ([]*core.UserProfile, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.conn.Query(`
		SELECT id, name, email, role, total_interactions, is_suspended, created_at, last_active
		FROM profiles ORDER BY last_active DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*core.UserProfile
	for rows.Next() {
		p := &core.UserProfile{}
		var name, email sql.NullString
		var createdAt, lastActive sql.NullTime
		if err := rows.Scan(&p.ID, &name, &email, &p.Role, &p.TotalInteractions, &p.IsSuspended, &createdAt, &lastActive); err != nil {
			return nil, err
		}
		p.Name = name.String
		p.Email = email.String
		if createdAt.Valid {
			p.CreatedAt = createdAt.Time
		}
		if lastActive.Valid {
			p.LastActive = lastActive.Time
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// Count returns the number of known users.
func (s *ProfileStore) Count() (int, error) {
	var n int
	err := s.db.conn.QueryRow("SELECT COUNT(*) FROM profiles").Scan(&n)
	return n, err
}
