package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nyralabs/nira/internal/llm"
	"github.com/nyralabs/nira/internal/testutil"
)

func TestShouldExtract(t *testing.T) {
	e := NewFactExtractor(nil, nil, nil)

	tests := []struct {
		interactions int
		message      string
		want         bool
	}{
		{5, "hi", true},
		{10, "hi", true},
		{4, "hi", false},
		{0, "hi", false},
		{3, strings.Repeat("a", 201), true},
		{3, strings.Repeat("a", 200), false},
	}
	for _, tt := range tests {
		if got := e.ShouldExtract(tt.interactions, tt.message); got != tt.want {
			t.Errorf("ShouldExtract(%d, len %d) = %v, want %v", tt.interactions, len(tt.message), got, tt.want)
		}
	}
}

func TestExtractStoresFact(t *testing.T) {
	stores := newTestStores(t)
	var lastReq llm.CompletionRequest
	provider := &testutil.MockProvider{
		CompleteFunc: func(_ context.Context, req llm.CompletionRequest) (string, error) {
			lastReq = req
			return `"Has a sister named Anjali."`, nil
		},
	}
	e := NewFactExtractor(provider, stores.facts, nil)

	fact, err := e.Extract(context.Background(), "u1", "my sister anjali is visiting this weekend")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if fact == nil || fact.Summary != "Has a sister named Anjali." {
		t.Fatalf("unexpected fact: %+v", fact)
	}

	stored, err := stores.facts.Recent("u1", 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(stored) != 1 || stored[0].Summary != "Has a sister named Anjali." {
		t.Errorf("fact not persisted: %+v", stored)
	}
	if lastReq.Temperature != 0.1 {
		t.Errorf("extraction should run cold, got temperature %v", lastReq.Temperature)
	}
}

func TestExtractNoneVerdict(t *testing.T) {
	stores := newTestStores(t)
	provider := &testutil.MockProvider{
		CompleteFunc: func(context.Context, llm.CompletionRequest) (string, error) {
			return "NONE", nil
		},
	}
	e := NewFactExtractor(provider, stores.facts, nil)

	fact, err := e.Extract(context.Background(), "u1", "lol ok")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if fact != nil {
		t.Errorf("NONE verdict should store nothing, got %+v", fact)
	}

	stored, _ := stores.facts.Recent("u1", 10)
	if len(stored) != 0 {
		t.Errorf("no fact should be persisted, got %+v", stored)
	}
}

func TestExtractUnconfiguredProvider(t *testing.T) {
	e := NewFactExtractor(&testutil.MockProvider{
		IsConfiguredFunc: func() bool { return false },
	}, nil, nil)

	fact, err := e.Extract(context.Background(), "u1", "anything")
	if err != nil || fact != nil {
		t.Errorf("unconfigured provider should no-op, got (%+v, %v)", fact, err)
	}
}

func TestExtractProviderError(t *testing.T) {
	stores := newTestStores(t)
	provider := &testutil.MockProvider{
		CompleteFunc: func(context.Context, llm.CompletionRequest) (string, error) {
			return "", errors.New("rate limited")
		},
	}
	e := NewFactExtractor(provider, stores.facts, nil)

	if _, err := e.Extract(context.Background(), "u1", "hello"); err == nil {
		t.Fatal("provider error should propagate")
	}
}
