package domain

import "context"

// Role names a chat message author.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest asks the completion service for one response.
type CompletionRequest struct {
	Model    string
	Messages []Message
	// Deterministic forces temperature 0. Otherwise the provider default applies.
	Deterministic bool
	MaxTokens     int
}

// CompletionResult carries the generated text and token usage.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Completer is the text generation contract shared by classifier and synthesizer.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}
