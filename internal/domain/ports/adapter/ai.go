package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// AIServiceAdapter is the port for LLM chat. Any provider exposing a
// chat-completions-shaped endpoint can sit behind it.
type AIServiceAdapter interface {
	ListModels(ctx context.Context) ([]string, error)

	// Chat returns only the assistant text.
	Chat(ctx context.Context, model string, messages []Message) (string, error)
}
