package port

import (
	"context"

	"github.com/blue-enigma/triply/internal/domain"
)

// ChatDelta is one increment of a streamed chat completion. Content
// carries a text fragment; Done marks normal completion; Err carries a
// mid-stream failure. The producing channel is closed after the first
// terminal delta.
type ChatDelta struct {
	Content string
	Done    bool
	Err     error
}

// AIProvider abstracts the model backend for embeddings and chat
// completions. Implementations can target OpenAI or any compatible API.
type AIProvider interface {
	// ModelName returns the identifier of the chat model being used.
	ModelName() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Chat sends the prompt and returns the complete response text.
	Chat(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (string, error)

	// ChatStream sends the prompt and streams response deltas via channel.
	// The returned channel always ends with a terminal delta (Done or Err)
	// and is then closed.
	ChatStream(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (<-chan ChatDelta, error)
}
