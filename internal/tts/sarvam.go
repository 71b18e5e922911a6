// Package tts turns replies into speech through the Sarvam AI API.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/nyralabs/nira/internal/core"
)

// SarvamClient handles Sarvam text-to-speech calls
type SarvamClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// SarvamConfig for the Sarvam client
type SarvamConfig struct {
	APIKey  string        // Sarvam API key
	BaseURL string        // API base URL
	Timeout time.Duration // Request timeout
}

// DefaultSarvamConfig returns config from environment
func DefaultSarvamConfig() SarvamConfig {
	return SarvamConfig{
		APIKey:  os.Getenv("SARVAM_API_KEY"),
		BaseURL: "https://api.sarvam.ai",
		Timeout: 10 * time.Second,
	}
}

// NewSarvamClient creates a new Sarvam client
func NewSarvamClient(cfg SarvamConfig) *SarvamClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sarvam.ai"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &SarvamClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// IsConfigured checks if API key is set
func (c *SarvamClient) IsConfigured() bool { return c.apiKey != "" }

var (
	taggedURLPattern = regexp.MustCompile(`(?is)<URL>.*?</URL>`)
	nakedURLPattern  = regexp.MustCompile(`(?i)https?://\S+`)
	bracketPattern   = regexp.MustCompile(`[\[\]()]`)
)

// domainReplacements spell out TLDs so the voice doesn't read them as
// punctuation.
var domainReplacements = []struct {
	pattern *regexp.Regexp
	to      string
}{
	{regexp.MustCompile(`(?i)\.com`), " dot com"},
	{regexp.MustCompile(`(?i)\.in`), " dot in"},
	{regexp.MustCompile(`(?i)\.org`), " dot org"},
	{regexp.MustCompile(`(?i)\.net`), " dot net"},
	{regexp.MustCompile(`(?i)\.app`), " dot app"},
	{regexp.MustCompile(`(?i)\.vercel`), " dot vercel"},
	{regexp.MustCompile(`(?i)\.ai`), " dot ai"},
}

// CleanText rewrites a reply for natural speech: link markup becomes
// the word "Link", naked URLs are dropped, and URL punctuation becomes
// pauses instead of spelled-out symbols.
func CleanText(text string) string {
	if text == "" {
		return text
	}
	text = taggedURLPattern.ReplaceAllString(text, "Link")
	text = nakedURLPattern.ReplaceAllString(text, "")
	text = bracketPattern.ReplaceAllString(text, " ")
	for _, r := range domainReplacements {
		text = r.pattern.ReplaceAllString(text, r.to)
	}
	text = strings.ReplaceAll(text, "/", " ")
	text = strings.ReplaceAll(text, "-", " ")
	text = strings.ReplaceAll(text, "_", " ")
	return text
}

type ttsRequest struct {
	Inputs             []string `json:"inputs"`
	TargetLanguageCode string   `json:"target_language_code"`
	Speaker            string   `json:"speaker"`
	Model              string   `json:"model"`
	Pace               float64  `json:"pace"`
	SpeechSampleRate   int      `json:"speech_sample_rate"`
}

type ttsResponse struct {
	Audios []string `json:"audios"`
}

// Speak synthesizes text and returns base64-encoded audio. Language
// defaults to Hindi and the speaker to priya.
func (c *SarvamClient) Speak(ctx context.Context, text, languageCode, speaker string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", core.ErrTextRequired
	}
	if languageCode == "" {
		languageCode = "hi-IN"
	}
	if speaker == "" {
		speaker = "priya"
	}

	body, err := json.Marshal(ttsRequest{
		Inputs:             []string{CleanText(text)},
		TargetLanguageCode: languageCode,
		Speaker:            strings.ToLower(speaker),
		Model:              "bulbul:v2",
		Pace:               1.1,
		SpeechSampleRate:   16000,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/text-to-speech", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-subscription-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrTTSFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: API error %d: %s", core.ErrTTSFailed, resp.StatusCode, string(respBody))
	}

	var ttsResp ttsResponse
	if err := json.Unmarshal(respBody, &ttsResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(ttsResp.Audios) == 0 || ttsResp.Audios[0] == "" {
		return "", fmt.Errorf("%w: empty audio buffer", core.ErrTTSFailed)
	}
	return ttsResp.Audios[0], nil
}
