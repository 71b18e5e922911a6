// Package llm provides completion providers and the fallback router
// behind every chat turn.
package llm

import "context"

// Message represents a conversation message
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// CompletionRequest is a provider-agnostic chat completion request.
type CompletionRequest struct {
	System      string
	History     []Message // prior turns, chronological
	UserMessage string
	MaxTokens   int
	Temperature float64
}

// Provider is one completion backend in the fallback chain.
type Provider interface {
	// Name identifies the provider in config and usage metrics.
	Name() string
	// IsConfigured reports whether the required credential is present.
	IsConfigured() bool
	// Complete runs one chat completion. An empty result is an error.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Descriptor pairs a provider with its capability flags. Adding or
// removing a provider is a data change in the descriptor list, not a
// control-flow change in the router.
type Descriptor struct {
	Provider Provider

	// SupportsSearch marks providers with live web retrieval. Search-like
	// queries are routed past providers without it.
	SupportsSearch bool
}
