package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nyralabs/nira/internal/core"
)

func geminiServer(t *testing.T, reply string, captured *geminiRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key not passed as query parameter")
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Fatalf("decode request: %v", err)
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]string{{"text": reply}},
				}},
			},
		})
	}))
}

func TestGeminiCompleteFlattensPrompt(t *testing.T) {
	var captured geminiRequest
	server := geminiServer(t, "bilkul!", &captured)
	defer server.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "test-key", BaseURL: server.URL, EnableSearch: true})
	text, err := client.Complete(context.Background(), CompletionRequest{
		System:      "you are nira",
		History:     []Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello ji"}},
		UserMessage: "kya chal raha hai",
		Temperature: 0.85,
		MaxTokens:   150,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "bilkul!" {
		t.Errorf("unexpected reply %q", text)
	}

	if len(captured.Contents) != 1 || len(captured.Contents[0].Parts) != 1 {
		t.Fatalf("expected one flattened content part, got %+v", captured.Contents)
	}
	prompt := captured.Contents[0].Parts[0].Text
	for _, want := range []string{"you are nira", "Recent Chat History:", "assistant: hello ji", "User: kya chal raha hai"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("flattened prompt missing %q:\n%s", want, prompt)
		}
	}
	if len(captured.Tools) != 1 || captured.Tools[0].GoogleSearchRetrieval == nil {
		t.Errorf("search retrieval tool not attached: %+v", captured.Tools)
	}
	if captured.GenerationConfig == nil || captured.GenerationConfig.MaxOutputTokens != 150 {
		t.Errorf("generation config not forwarded: %+v", captured.GenerationConfig)
	}
}

func TestGeminiSearchToolDisabled(t *testing.T) {
	var captured geminiRequest
	server := geminiServer(t, "ok", &captured)
	defer server.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "test-key", BaseURL: server.URL, EnableSearch: false})
	if _, err := client.Complete(context.Background(), CompletionRequest{UserMessage: "hi"}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if len(captured.Tools) != 0 {
		t.Errorf("tools should be omitted when search is off: %+v", captured.Tools)
	}
}

func TestGeminiGenerateParts(t *testing.T) {
	var captured geminiRequest
	server := geminiServer(t, "a cat on a sofa", &captured)
	defer server.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "test-key", BaseURL: server.URL})
	text, err := client.GenerateParts(context.Background(), "gemini-1.5-flash",
		TextPart("describe this"), ImagePart("aGVsbG8=", ""))
	if err != nil {
		t.Fatalf("GenerateParts failed: %v", err)
	}
	if text != "a cat on a sofa" {
		t.Errorf("unexpected reply %q", text)
	}

	parts := captured.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MimeType != "image/jpeg" {
		t.Errorf("image part should default to image/jpeg: %+v", parts[1])
	}
}

func TestGeminiCompleteNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), CompletionRequest{UserMessage: "hi"})
	if !errors.Is(err, core.ErrEmptyCompletion) {
		t.Fatalf("expected empty completion error, got %v", err)
	}
}

func TestGeminiGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), CompletionRequest{UserMessage: "hi"})
	if !errors.Is(err, core.ErrProviderFailed) {
		t.Fatalf("expected provider failure on non-200 response, got %v", err)
	}
}
