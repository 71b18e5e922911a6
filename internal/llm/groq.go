package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/nyralabs/nira/internal/core"
)

// GroqClient handles Groq chat completion calls (OpenAI-style API)
type GroqClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// GroqConfig for the Groq client
type GroqConfig struct {
	APIKey  string        // Groq API key
	BaseURL string        // API base URL
	Model   string        // Model to use
	Timeout time.Duration // Request timeout
}

// DefaultGroqConfig returns config from environment
func DefaultGroqConfig() GroqConfig {
	return GroqConfig{
		APIKey:  os.Getenv("GROQ_API_KEY"),
		BaseURL: "https://api.groq.com/openai",
		Model:   "llama-3.3-70b-versatile",
		Timeout: 30 * time.Second,
	}
}

// NewGroqClient creates a new Groq client
func NewGroqClient(cfg GroqConfig) *GroqClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai"
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.3-70b-versatile"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &GroqClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// groqChatRequest is the chat completions request body
type groqChatRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type groqMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// groqChatResponse is the chat completions response body
type groqChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      groqMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Name implements Provider.
func (c *GroqClient) Name() string { return "groq" }

// IsConfigured checks if API key is set
func (c *GroqClient) IsConfigured() bool { return c.apiKey != "" }

// Complete sends a chat completion request
func (c *GroqClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]groqMessage, 0, len(req.History)+2)
	messages = append(messages, groqMessage{Role: "system", Content: req.System})
	for _, m := range req.History {
		messages = append(messages, groqMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, groqMessage{Role: "user", Content: req.UserMessage})

	body, err := json.Marshal(groqChatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

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

	var chatResp groqChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", core.ErrEmptyCompletion
	}

	return chatResp.Choices[0].Message.Content, nil
}
