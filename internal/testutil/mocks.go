package testutil

import (
	"context"

	"github.com/nyralabs/nira/internal/llm"
)

// MockProvider implements llm.Provider for testing.
type MockProvider struct {
	ProviderName     string
	IsConfiguredFunc func() bool
	CompleteFunc     func(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// Name returns the configured provider name, defaulting to "mock".
func (m *MockProvider) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

// IsConfigured calls the mock function if set, defaulting to true.
func (m *MockProvider) IsConfigured() bool {
	if m.IsConfiguredFunc != nil {
		return m.IsConfiguredFunc()
	}
	return true
}

// Complete calls the mock function if set.
func (m *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// MockPublisher implements chat.Publisher for testing.
type MockPublisher struct {
	PublishFunc func(event string, payload interface{})
}

// Publish calls the mock function if set.
func (m *MockPublisher) Publish(event string, payload interface{}) {
	if m.PublishFunc != nil {
		m.PublishFunc(event, payload)
	}
}

// MockRecaller implements memory.Recaller for testing.
type MockRecaller struct {
	IndexFunc  func(ctx context.Context, userID, factID, summary string) error
	SearchFunc func(ctx context.Context, userID, query string, limit int) ([]string, error)
}

// Index calls the mock function if set.
func (m *MockRecaller) Index(ctx context.Context, userID, factID, summary string) error {
	if m.IndexFunc != nil {
		return m.IndexFunc(ctx, userID, factID, summary)
	}
	return nil
}

// Search calls the mock function if set.
func (m *MockRecaller) Search(ctx context.Context, userID, query string, limit int) ([]string, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, userID, query, limit)
	}
	return nil, nil
}
