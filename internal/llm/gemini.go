package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/nyralabs/nira/internal/core"
)

// GeminiClient handles Gemini generateContent calls. It is the
// retrieval-capable member of the fallback chain: with search enabled
// it attaches the Google Search grounding tool.
type GeminiClient struct {
	apiKey       string
	baseURL      string
	model        string
	enableSearch bool
	httpClient   *http.Client
}

// GeminiConfig for the Gemini client
type GeminiConfig struct {
	APIKey       string        // Gemini API key
	BaseURL      string        // API base URL
	Model        string        // Model to use
	EnableSearch bool          // Attach the search retrieval tool
	Timeout      time.Duration // Request timeout
}

// DefaultGeminiConfig returns config from environment
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		APIKey:       os.Getenv("GEMINI_API_KEY"),
		BaseURL:      "https://generativelanguage.googleapis.com",
		Model:        "gemini-1.5-flash-latest",
		EnableSearch: true,
		Timeout:      30 * time.Second,
	}
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash-latest"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &GeminiClient{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		model:        cfg.Model,
		enableSearch: cfg.EnableSearch,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiTool struct {
	GoogleSearchRetrieval map[string]interface{} `json:"google_search_retrieval,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	Tools            []geminiTool            `json:"tools,omitempty"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Name implements Provider.
func (c *GeminiClient) Name() string { return "gemini" }

// IsConfigured checks if API key is set
func (c *GeminiClient) IsConfigured() bool { return c.apiKey != "" }

// Complete sends a completion request. Gemini takes one flattened
// prompt: system text, then the recent history, then the new message.
func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var sb strings.Builder
	sb.WriteString(req.System)
	if len(req.History) > 0 {
		sb.WriteString("\n\nRecent Chat History:\n")
		for _, m := range req.History {
			sb.WriteString(m.Role)
			sb.WriteString(": ")
			sb.WriteString(m.Content)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\nUser: ")
	sb.WriteString(req.UserMessage)

	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: sb.String()}}}},
	}
	if c.enableSearch {
		body.Tools = []geminiTool{{GoogleSearchRetrieval: map[string]interface{}{}}}
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		body.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
	}

	return c.generate(ctx, c.model, body)
}

// GenerateParts runs a raw generateContent call with arbitrary parts.
// The vision service uses this for image description.
func (c *GeminiClient) GenerateParts(ctx context.Context, model string, parts ...geminiPart) (string, error) {
	if model == "" {
		model = c.model
	}
	return c.generate(ctx, model, geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
	})
}

// TextPart builds a text part for GenerateParts.
func TextPart(text string) geminiPart {
	return geminiPart{Text: text}
}

// ImagePart builds an inline image part for GenerateParts.
func ImagePart(base64Data, mimeType string) geminiPart {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return geminiPart{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64Data}}
}

func (c *GeminiClient) generate(ctx context.Context, model string, body geminiRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, model, url.QueryEscape(c.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: API error %d: %s", core.ErrProviderFailed, resp.StatusCode, string(respBody))
	}

	var genResp geminiResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", core.ErrEmptyCompletion
	}

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}
