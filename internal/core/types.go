// Package core defines the fundamental types and errors for NIRA.
package core

import "time"

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Persona selects a behavioral/linguistic profile for the companion.
type Persona string

const (
	PersonaNira Persona = "nira"
	PersonaAli  Persona = "ali"
)

// UserProfile is the identity record for one user.
type UserProfile struct {
	ID                string    `json:"id"`
	Name              string    `json:"name,omitempty"`
	Email             string    `json:"email,omitempty"`
	Role              string    `json:"role,omitempty"`
	TotalInteractions int       `json:"total_interactions"`
	IsSuspended       bool      `json:"is_suspended"`
	CreatedAt         time.Time `json:"created_at"`
	LastActive        time.Time `json:"last_active"`
}

// EmotionalState is the single mutable mood snapshot per user.
// It is overwritten on every turn; no history is kept.
type EmotionalState struct {
	Mood        string    `json:"mood"`
	Energy      string    `json:"energy"`
	LastUpdated time.Time `json:"last_updated"`
}

// LongTermFact is a durable, previously-extracted statement about the user.
type LongTermFact struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationTurn is one message in a user's append-only history.
type ConversationTurn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyUsage is the per-user per-UTC-day rate limit counter.
type DailyUsage struct {
	UserID       string    `json:"user_id"`
	Day          string    `json:"day"` // UTC date, YYYY-MM-DD
	MessageCount int       `json:"message_count"`
	LastActive   time.Time `json:"last_active"`
}

// UsageMetrics aggregates per-day usage across all users, per type,
// for dashboard display only.
type UsageMetrics struct {
	Day         string         `json:"day"`
	Counts      map[string]int `json:"counts"` // calls per type
	Volume      map[string]int `json:"stats"`  // token volume per type
	LastUpdated time.Time      `json:"last_updated"`
}

// FeatureFlags toggles optional subsystems.
type FeatureFlags struct {
	SearchEnabled bool `json:"search_enabled"`
	TTSEnabled    bool `json:"tts_enabled"`
	VisionEnabled bool `json:"vision_enabled"`
}

// AIConfig holds model routing and generation parameters.
type AIConfig struct {
	PrimaryModel   string  `json:"primary_model"`
	FallbackModel  string  `json:"fallback_model"`
	Temperature    float64 `json:"temperature"`
	ChallengeLevel int     `json:"challenge_level"`
	EmotionalDepth int     `json:"emotional_depth"`
}

// EmergencyFlags are operator kill switches.
type EmergencyFlags struct {
	KillSwitch      bool `json:"kill_switch"`
	MaintenanceMode bool `json:"maintenance_mode"`
}

// GlobalConfig is the single system-wide configuration record.
// Mutated only through the admin interface; read via an in-memory
// snapshot that is refreshed by a change subscription.
type GlobalConfig struct {
	MaxMessagesPerUser      int            `json:"max_messages_per_user"`
	MaxSystemMessagesPerDay int            `json:"max_system_messages_per_day"`
	Features                FeatureFlags   `json:"features"`
	AI                      AIConfig       `json:"ai"`
	Emergency               EmergencyFlags `json:"emergency"`
	UpdatedAt               time.Time      `json:"updated_at"`
}

// DefaultGlobalConfig returns the config synthesized when none exists.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		MaxMessagesPerUser:      50,
		MaxSystemMessagesPerDay: 5000,
		Features: FeatureFlags{
			SearchEnabled: true,
			TTSEnabled:    true,
			VisionEnabled: true,
		},
		AI: AIConfig{
			PrimaryModel:   "groq",
			FallbackModel:  "gemini",
			Temperature:    0.85,
			ChallengeLevel: 5,
			EmotionalDepth: 7,
		},
	}
}

// FriendshipStats is derived per turn: days since the account was
// created and the total interaction count.
type FriendshipStats struct {
	Days         int `json:"days"`
	Interactions int `json:"interactions"`
}

// MemoryBundle is the aggregated per-turn context assembled before
// each model call.
type MemoryBundle struct {
	Identity          UserProfile
	EmotionalState    EmotionalState
	LongTerm          []string
	RecentTurns       []ConversationTurn // chronological, oldest first
	Stats             FriendshipStats
	Persona           Persona
	VisionDescription string
}

// LimitDecision is the Usage Limiter's verdict for one request.
type LimitDecision struct {
	Allowed bool
	Reason  string
}

// DayKey returns the UTC date string used to key daily counters.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
