package storage

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/nyralabs/nira/internal/core"
)

// ConfigStore holds the singleton GlobalConfig document and pushes
// change notifications to subscribers, so readers never query the
// store per request.
type ConfigStore struct {
	db *DB

	mu          sync.Mutex
	subscribers []func(*core.GlobalConfig)
}

// NewConfigStore creates a new config store
func NewConfigStore(db *DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// Get returns the stored config, or core.ErrConfigNotFound.
func (s *ConfigStore) Get() (*core.GlobalConfig, error) {
	var payload string
	err := s.db.conn.QueryRow("SELECT payload FROM global_config WHERE id = 1").Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, core.ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}

	cfg := &core.GlobalConfig{}
	if err := json.Unmarshal([]byte(payload), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save persists the full document and notifies subscribers.
func (s *ConfigStore) Save(cfg *core.GlobalConfig) error {
	cfg.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	_, err = s.db.conn.Exec(`
		INSERT INTO global_config (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, string(payload), cfg.UpdatedAt)
	if err != nil {
		return err
	}

	s.notify(cfg)
	return nil
}

// Subscribe registers a callback invoked after every successful Save.
// The callback receives its own copy of the document.
func (s *ConfigStore) Subscribe(fn func(*core.GlobalConfig)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *ConfigStore) notify(cfg *core.GlobalConfig) {
	s.mu.Lock()
	subs := make([]func(*core.GlobalConfig), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		snapshot := *cfg
		fn(&snapshot)
	}
}
