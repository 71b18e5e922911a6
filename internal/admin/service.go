// Package admin owns the global configuration snapshot, usage limits,
// usage accounting and user moderation.
package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nyralabs/nira/internal/core"
	"github.com/nyralabs/nira/internal/logging"
	"github.com/nyralabs/nira/internal/storage"
)

// Deny reasons surfaced to the client verbatim.
const (
	ReasonMaintenance = "System is in emergency maintenance mode."
	ReasonDailyLimit  = "Daily limit reached. Nira is resting now, try again tomorrow! 🌙"
)

// Roles recognised by the admin surface.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// UsageTypeChat is the only usage type that counts against the
// per-user daily limit.
const UsageTypeChat = "chat"

// Service caches the global config in memory and applies it to every
// request without touching storage on the hot path.
type Service struct {
	configs  *storage.ConfigStore
	profiles *storage.ProfileStore
	usage    *storage.UsageStore

	cache    atomic.Pointer[core.GlobalConfig]
	founders map[string]bool
}

// NewService loads (or synthesizes) the global config and subscribes
// to config changes so the cached snapshot stays current.
func NewService(configs *storage.ConfigStore, profiles *storage.ProfileStore, usage *storage.UsageStore, founderEmails []string) (*Service, error) {
	s := &Service{
		configs:  configs,
		profiles: profiles,
		usage:    usage,
		founders: make(map[string]bool, len(founderEmails)),
	}
	for _, email := range founderEmails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			s.founders[email] = true
		}
	}

	cfg, err := configs.Get()
	if errors.Is(err, core.ErrConfigNotFound) {
		cfg = core.DefaultGlobalConfig()
		if err := configs.Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to seed default config: %w", err)
		}
		logging.Info("no global config found, seeded defaults")
	} else if err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}
	s.cache.Store(cfg)

	configs.Subscribe(func(updated *core.GlobalConfig) {
		s.cache.Store(updated)
		logging.Info("global config snapshot refreshed")
	})

	return s, nil
}

// Config returns the cached snapshot. Callers must not mutate it.
func (s *Service) Config() *core.GlobalConfig {
	return s.cache.Load()
}

// CheckLimits decides whether a chat turn may proceed. It fails open:
// a missing config or a storage error never blocks a user.
func (s *Service) CheckLimits(userID string, now time.Time) core.LimitDecision {
	cfg := s.Config()
	if cfg == nil {
		return core.LimitDecision{Allowed: true}
	}
	if cfg.Emergency.KillSwitch {
		return core.LimitDecision{Allowed: false, Reason: ReasonMaintenance}
	}

	usage, err := s.usage.GetDaily(userID, core.DayKey(now))
	if err != nil {
		logging.WithField("user", userID).Warn("limit check failed open: %v", err)
		return core.LimitDecision{Allowed: true}
	}
	if usage.MessageCount >= cfg.MaxMessagesPerUser {
		return core.LimitDecision{Allowed: false, Reason: ReasonDailyLimit}
	}
	return core.LimitDecision{Allowed: true}
}

// LogUsage records one API call in the daily metrics. Chat calls also
// advance the caller's daily limit counter.
func (s *Service) LogUsage(userID, usageType string, tokens int, now time.Time) error {
	day := core.DayKey(now)
	if err := s.usage.LogType(day, usageType, tokens); err != nil {
		return fmt.Errorf("failed to log usage metrics: %w", err)
	}
	if usageType == UsageTypeChat {
		if err := s.usage.IncrementDaily(userID, day, 1); err != nil {
			return fmt.Errorf("failed to increment daily count: %w", err)
		}
	}
	return nil
}

// Stats is the admin dashboard snapshot.
type Stats struct {
	TotalUsers int                `json:"total_users"`
	Today      *core.UsageMetrics `json:"today"`
	Config     *core.GlobalConfig `json:"config"`
}

// GetStats aggregates the dashboard view for one day.
func (s *Service) GetStats(now time.Time) (*Stats, error) {
	total, err := s.profiles.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	metrics, err := s.usage.Metrics(core.DayKey(now))
	if err != nil {
		return nil, fmt.Errorf("failed to load usage metrics: %w", err)
	}
	return &Stats{TotalUsers: total, Today: metrics, Config: s.Config()}, nil
}

// ListUsers returns the most recently active profiles.
func (s *Service) ListUsers(limit int) ([]*core.UserProfile, error) {
	return s.profiles.List(limit)
}

// UpdateConfig merges a partial JSON document over the current config
// and persists the result. Fields absent from the patch keep their
// current values.
func (s *Service) UpdateConfig(patch json.RawMessage) (*core.GlobalConfig, error) {
	current := s.Config()
	if current == nil {
		current = core.DefaultGlobalConfig()
	}

	merged := *current
	if err := json.Unmarshal(patch, &merged); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	if merged.MaxMessagesPerUser < 0 || merged.MaxSystemMessagesPerDay < 0 {
		return nil, fmt.Errorf("%w: limits must not be negative", core.ErrInvalidInput)
	}

	if err := s.configs.Save(&merged); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return &merged, nil
}

// Toggle flips one boolean flag addressed by a dotted path, e.g.
// "emergency.killSwitch" or "features.search".
func (s *Service) Toggle(path string, enabled bool) (*core.GlobalConfig, error) {
	current := s.Config()
	if current == nil {
		current = core.DefaultGlobalConfig()
	}
	updated := *current

	switch path {
	case "emergency.killSwitch":
		updated.Emergency.KillSwitch = enabled
	case "emergency.maintenanceMode":
		updated.Emergency.MaintenanceMode = enabled
	case "features.search":
		updated.Features.SearchEnabled = enabled
	case "features.tts":
		updated.Features.TTSEnabled = enabled
	case "features.vision":
		updated.Features.VisionEnabled = enabled
	default:
		return nil, fmt.Errorf("%w: unknown toggle %q", core.ErrInvalidInput, path)
	}

	if err := s.configs.Save(&updated); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	logging.WithFields(map[string]interface{}{"path": path, "enabled": enabled}).Warn("admin toggle applied")
	return &updated, nil
}

// Moderate suspends or reactivates a user account.
func (s *Service) Moderate(userID, action string) error {
	switch action {
	case "suspend":
		return s.profiles.SetSuspended(userID, true)
	case "activate":
		return s.profiles.SetSuspended(userID, false)
	default:
		return fmt.Errorf("%w: unknown action %q", core.ErrInvalidInput, action)
	}
}

// Authorize reports whether the caller may use the admin surface.
// Founder emails always pass and are promoted to super_admin on the
// way through, so a reinstalled database cannot lock the operator out.
func (s *Service) Authorize(userID, email string) (bool, error) {
	if s.founders[strings.ToLower(email)] {
		if err := s.profiles.EnsureRole(userID, email, RoleSuperAdmin); err != nil {
			return false, fmt.Errorf("failed to ensure founder role: %w", err)
		}
		return true, nil
	}

	profile, err := s.profiles.GetByID(userID)
	if errors.Is(err, core.ErrProfileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return profile.Role == RoleAdmin || profile.Role == RoleSuperAdmin, nil
}
