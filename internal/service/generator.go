package service

import (
	"context"
	"log/slog"

	"github.com/blue-enigma/triply/internal/domain"
	"github.com/blue-enigma/triply/internal/port"
)

// fallbackAnswer is returned when the blocking chat call fails; the
// envelope still succeeds with the retrieved context attached.
const fallbackAnswer = "Sorry, I couldn't generate a response due to an internal error."

// Generator invokes the chat model with a composed prompt, either
// blocking or as an incremental token stream.
type Generator struct {
	ai              port.AIProvider
	maxAnswerTokens int
	maxStreamTokens int
}

// NewGenerator creates a new answer generator.
func NewGenerator(ai port.AIProvider, maxAnswerTokens, maxStreamTokens int) *Generator {
	return &Generator{ai: ai, maxAnswerTokens: maxAnswerTokens, maxStreamTokens: maxStreamTokens}
}

// Generate returns the full answer text. Model failures are absorbed
// here: the caller gets a static apology instead of an error, since the
// retrieved context is still worth returning.
func (g *Generator) Generate(ctx context.Context, messages []domain.ChatMessage) string {
	answer, err := g.ai.Chat(ctx, messages, g.maxAnswerTokens)
	if err != nil {
		slog.Error("chat model failed", "model", g.ai.ModelName(), "error", err)
		return fallbackAnswer
	}
	return answer
}

// GenerateStream emits one event per model delta on the returned
// channel. The stream always terminates with exactly one done sentinel
// or one error sentinel, never both, and the channel is then closed.
// Already-emitted tokens remain valid when an error terminates the
// stream.
func (g *Generator) GenerateStream(ctx context.Context, messages []domain.ChatMessage) <-chan domain.StreamEvent {
	events := make(chan domain.StreamEvent, 64)

	deltas, err := g.ai.ChatStream(ctx, messages, g.maxStreamTokens)
	if err != nil {
		slog.Error("chat stream failed to start", "model", g.ai.ModelName(), "error", err)
		events <- domain.StreamEvent{Err: err.Error()}
		close(events)
		return events
	}

	go func() {
		defer close(events)

		// emit delivers an event unless the consumer has gone away; a
		// cancelled context means nobody is reading, so stop pulling
		// deltas instead of parking on the send forever.
		emit := func(event domain.StreamEvent) bool {
			select {
			case events <- event:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for delta := range deltas {
			switch {
			case delta.Err != nil:
				slog.Error("chat stream failed", "model", g.ai.ModelName(), "error", delta.Err)
				emit(domain.StreamEvent{Err: delta.Err.Error()})
				return
			case delta.Done:
				emit(domain.StreamEvent{Done: true})
				return
			case delta.Content != "":
				if !emit(domain.StreamEvent{Token: delta.Content}) {
					return
				}
			}
		}
		// Provider closed the channel without a terminal delta.
		emit(domain.StreamEvent{Done: true})
	}()

	return events
}
