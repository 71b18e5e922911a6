package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nyralabs/nira/internal/core"
)

func TestGroqComplete(t *testing.T) {
	var captured groqChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "arre wah!"}},
			},
		})
	}))
	defer server.Close()

	client := NewGroqClient(GroqConfig{APIKey: "test-key", BaseURL: server.URL})
	text, err := client.Complete(context.Background(), CompletionRequest{
		System:      "you are nira",
		History:     []Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}},
		UserMessage: "kaise ho",
		MaxTokens:   150,
		Temperature: 0.85,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "arre wah!" {
		t.Errorf("unexpected reply %q", text)
	}

	if captured.Model != "llama-3.3-70b-versatile" {
		t.Errorf("unexpected model %q", captured.Model)
	}
	if len(captured.Messages) != 4 {
		t.Fatalf("expected system + 2 history + user, got %d messages", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" || captured.Messages[3].Content != "kaise ho" {
		t.Errorf("message ordering wrong: %+v", captured.Messages)
	}
	if captured.MaxTokens != 150 || captured.Temperature != 0.85 {
		t.Errorf("generation settings not forwarded: %+v", captured)
	}
}

func TestGroqCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewGroqClient(GroqConfig{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), CompletionRequest{UserMessage: "hi"})
	if !errors.Is(err, core.ErrProviderFailed) {
		t.Fatalf("expected provider failure on non-200 response, got %v", err)
	}
}

func TestGroqCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	client := NewGroqClient(GroqConfig{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), CompletionRequest{UserMessage: "hi"})
	if !errors.Is(err, core.ErrEmptyCompletion) {
		t.Fatalf("expected empty completion error, got %v", err)
	}
}

func TestGroqIsConfigured(t *testing.T) {
	if NewGroqClient(GroqConfig{}).IsConfigured() {
		t.Error("client without key should not report configured")
	}
	if !NewGroqClient(GroqConfig{APIKey: "k"}).IsConfigured() {
		t.Error("client with key should report configured")
	}
}
