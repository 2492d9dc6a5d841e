// Package perception implements the generation backend clients. Every role in
// the clarification pipeline talks to a backend through the LLMClient
// interface: an ordered list of role-tagged messages in, a single text blob
// out. The blob may be malformed or free-form; recovering structure from it is
// the extract package's job, not this one's.
package perception

import (
	"context"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role-tagged message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions carries per-request generation parameters.
type CompletionOptions struct {
	Temperature     float64
	MaxOutputTokens int
}

// LLMClient defines the interface for generation backends.
type LLMClient interface {
	Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error)
}
