// File: internal/infra/adapters/ai/noop_ai.go
package ai

import (
	"context"

	"unique-ue/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAI)(nil)

// NoopAI is a stand-in provider for dev mode and tests.
type NoopAI struct{}

func (NoopAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"noop"}, nil
}

func (NoopAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}
	return "echo: " + messages[len(messages)-1].Content, nil
}
