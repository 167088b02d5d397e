package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blue-enigma/triply/internal/domain"
	"github.com/blue-enigma/triply/internal/port"
)

// Retriever turns query text into ranked semantic matches from the
// vector index.
type Retriever struct {
	ai        port.AIProvider
	index     port.VectorIndex
	topK      int
	dimension int
}

// NewRetriever creates a new vector retriever.
func NewRetriever(ai port.AIProvider, index port.VectorIndex, topK, dimension int) *Retriever {
	return &Retriever{ai: ai, index: index, topK: topK, dimension: dimension}
}

// Query embeds the text and returns the topK nearest entities in the
// index's descending-similarity order.
//
// Embedding failure degrades to an all-zeros vector so retrieval still
// runs (and may legitimately return nothing useful); index failure
// propagates, because absent retrieval changes the shape of everything
// downstream.
func (r *Retriever) Query(ctx context.Context, text string) ([]domain.VectorMatch, error) {
	vector, err := r.ai.Embed(ctx, text)
	if err != nil {
		slog.Error("embedding failed, falling back to zero vector", "error", err)
		vector = make([]float32, r.dimension)
	}

	matches, err := r.index.Query(ctx, vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	slog.Debug("vector results fetched", "count", len(matches))
	return matches, nil
}
