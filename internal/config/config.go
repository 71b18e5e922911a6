// Package config handles NIRA process configuration.
//
// Runtime behavior (limits, feature flags, kill switches) lives in the
// GlobalConfig document managed by internal/admin; this package only
// covers what the process needs before it can reach the store.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process configuration.
type Config struct {
	// Server
	Port           int
	AllowedOrigins []string

	// Paths
	DataDir string

	// Providers
	GroqAPIKey    string
	GeminiAPIKey  string
	SarvamAPIKey  string
	GroqBaseURL   string
	GeminiBaseURL string
	SarvamBaseURL string

	// Identity
	GoogleAudience    string   // expected audience of incoming ID tokens
	AdminEmails       []string // founder safeguard list
	OpsPassphraseHash string   // bcrypt hash gating destructive admin actions

	// Vectors (optional semantic fact recall)
	QdrantHost string
	QdrantPort int

	// Timeouts
	ProviderTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first if present, matching how the
// service is deployed.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnvInt("PORT", 5000),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		DataDir:        getEnv("DATA_DIR", "./data"),

		GroqAPIKey:    cleanKey(os.Getenv("GROQ_API_KEY")),
		GeminiAPIKey:  cleanKey(os.Getenv("GEMINI_API_KEY")),
		SarvamAPIKey:  cleanKey(os.Getenv("SARVAM_API_KEY")),
		GroqBaseURL:   getEnv("GROQ_BASE_URL", "https://api.groq.com/openai"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		SarvamBaseURL: getEnv("SARVAM_BASE_URL", "https://api.sarvam.ai"),

		GoogleAudience:    os.Getenv("GOOGLE_AUDIENCE"),
		AdminEmails:       splitList(getEnv("ADMIN_EMAILS", "admin@nyra.ai")),
		OpsPassphraseHash: cleanKey(os.Getenv("OPS_PASSPHRASE_HASH")),

		QdrantHost: getEnv("QDRANT_HOST", ""),
		QdrantPort: getEnvInt("QDRANT_PORT", 6334),

		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir must not be empty")
	}
	return nil
}

// cleanKey strips the quotes and whitespace some deploy environments
// wrap around secrets.
func cleanKey(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, `"'`)
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
