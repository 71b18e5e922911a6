package storage

import (
	"database/sql"
	"time"

	"github.com/nyralabs/nira/internal/core"
)

// UsageStore handles rate-limit counters and dashboard metrics
type UsageStore struct {
	db *DB
}

// NewUsageStore creates a new usage store
func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{db: db}
}

// IncrementDaily bumps the per-user chat counter for a day. The
// increment happens inside the database, so simultaneous requests from
// one user cannot lose updates.
func (s *UsageStore) IncrementDaily(userID, day string, n int) error {
	_, err := s.db.conn.Exec(`
		INSERT INTO daily_usage (user_id, day, message_count, last_active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET
			message_count = daily_usage.message_count + excluded.message_count,
			last_active = excluded.last_active
	`, userID, day, n, time.Now().UTC())
	return err
}

// GetDaily returns the counter for one user and day. A missing record
// reads as zero.
func (s *UsageStore) GetDaily(userID, day string) (*core.DailyUsage, error) {
	usage := &core.DailyUsage{UserID: userID, Day: day}
	err := s.db.conn.QueryRow(`
		SELECT message_count, last_active FROM daily_usage WHERE user_id = ? AND day = ?
	`, userID, day).Scan(&usage.MessageCount, &usage.LastActive)
	if err == sql.ErrNoRows {
		return usage, nil
	}
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// LogType records one call of the given type (chat, groq, gemini,
// sarvam, vision) with its token volume in the per-day aggregate.
func (s *UsageStore) LogType(day, usageType string, tokens int) error {
	if tokens <= 0 {
		tokens = 1
	}
	_, err := s.db.conn.Exec(`
		INSERT INTO usage_metrics (day, type, call_count, volume, last_updated)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(day, type) DO UPDATE SET
			call_count = usage_metrics.call_count + 1,
			volume = usage_metrics.volume + excluded.volume,
			last_updated = excluded.last_updated
	`, day, usageType, tokens, time.Now().UTC())
	return err
}

// Metrics returns the aggregate for one day. Absent rows read as an
// empty document, matching what the dashboard expects.
func (s *UsageStore) Metrics(day string) (*core.UsageMetrics, error) {
	rows, err := s.db.conn.Query(`
		SELECT type, call_count, volume, last_updated FROM usage_metrics WHERE day = ?
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := &core.UsageMetrics{
		Day:    day,
		Counts: make(map[string]int),
		Volume: make(map[string]int),
	}
	for rows.Next() {
		var usageType string
		var count, volume int
		var updated time.Time
		if err := rows.Scan(&usageType, &count, &volume, &updated); err != nil {
			return nil, err
		}
		metrics.Counts[usageType] = count
		metrics.Volume[usageType] = volume
		if updated.After(metrics.LastUpdated) {
			metrics.LastUpdated = updated
		}
	}

	return metrics, rows.Err()
}
