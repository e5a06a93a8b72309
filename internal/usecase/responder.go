// File: internal/usecase/responder.go
package usecase

import (
	"context"

	"unique-ue/internal/domain/model"
	"unique-ue/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// personaPrompts selects a system-prompt variant per persona. The prompt
// text itself is presentation; "qore" is the chat surface's default.
var personaPrompts = map[string]string{
	"qore": "You are The Qore, a cognitive interface that maintains a knowledge graph of the user's ideas. " +
		"Answer conversationally. When the conversation produces durable facts or relationships, append a " +
		"<memory_update> block declaring the new nodes and links.",
	"default": "You are a helpful assistant for the uniQue-ue website.",
}

func systemPromptFor(persona string) string {
	if p, ok := personaPrompts[persona]; ok {
		return p
	}
	return personaPrompts["default"]
}

// Responder produces the reply for one chat turn: reflex table first, the
// AI provider only when no trigger matched. Shared by the synchronous
// fallback path and the scheduled sweep.
type Responder struct {
	ai       adapter.AIServiceAdapter
	reflexes *ReflexTable
	model    string
	log      *zerolog.Logger
}

func NewResponder(ai adapter.AIServiceAdapter, reflexes *ReflexTable, model string, logger *zerolog.Logger) *Responder {
	return &Responder{ai: ai, reflexes: reflexes, model: model, log: logger}
}

// Respond returns the reply text and whether it came from the reflex table.
func (r *Responder) Respond(ctx context.Context, job *model.Job) (string, bool, error) {
	if reply, ok := r.reflexes.Match(job.Message); ok {
		r.log.Debug().Str("job_id", job.ID).Msg("reflex matched, skipping AI call")
		return reply, true, nil
	}

	msgs := make([]adapter.Message, 0, len(job.History)+2)
	msgs = append(msgs, adapter.Message{Role: "system", Content: systemPromptFor(job.Persona)})
	for _, turn := range job.History {
		role := turn.Role
		if role == "model" {
			role = "assistant"
		}
		msgs = append(msgs, adapter.Message{Role: role, Content: turn.Content})
	}
	msgs = append(msgs, adapter.Message{Role: "user", Content: job.Message})

	reply, err := r.ai.Chat(ctx, r.model, msgs)
	if err != nil {
		return "", false, err
	}
	return reply, false, nil
}
