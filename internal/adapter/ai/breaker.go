package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/blue-enigma/triply/internal/domain"
	"github.com/blue-enigma/triply/internal/port"
)

// BreakerProvider wraps an AIProvider with a circuit breaker so that a
// failing model backend sheds load quickly instead of tying up request
// workers. Embed and Chat calls are guarded; ChatStream only guards
// stream initiation, since already-emitted tokens stay valid.
type BreakerProvider struct {
	inner   port.AIProvider
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerProvider creates a circuit-breaking decorator around inner.
func NewBreakerProvider(inner port.AIProvider) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:    "ai-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// ModelName returns the chat model identifier of the wrapped provider.
func (b *BreakerProvider) ModelName() string {
	return b.inner.ModelName()
}

// Embed generates an embedding through the circuit breaker.
func (b *BreakerProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := b.breaker.Execute(func() (any, error) {
		return b.inner.Embed(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return res.([]float32), nil
}

// Chat sends the prompt through the circuit breaker.
func (b *BreakerProvider) Chat(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (string, error) {
	res, err := b.breaker.Execute(func() (any, error) {
		return b.inner.Chat(ctx, messages, maxTokens)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// ChatStream initiates a stream through the circuit breaker. Mid-stream
// failures are delivered on the channel and do not trip the breaker.
func (b *BreakerProvider) ChatStream(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (<-chan port.ChatDelta, error) {
	res, err := b.breaker.Execute(func() (any, error) {
		return b.inner.ChatStream(ctx, messages, maxTokens)
	})
	if err != nil {
		return nil, err
	}
	return res.(<-chan port.ChatDelta), nil
}
