package port

import (
	"context"

	"github.com/blue-enigma/triply/internal/domain"
)

// VectorRecord is one entity vector plus its stored metadata, written
// during ingestion.
type VectorRecord struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// VectorIndex abstracts the similarity-search backend (Pinecone or
// pgvector). Query results are returned in the provider's descending
// similarity order; the caller never re-sorts.
type VectorIndex interface {
	// EnsureIndex creates the index if it does not exist. Idempotent.
	EnsureIndex(ctx context.Context) error

	// Query returns the topK nearest neighbors of vector, with metadata.
	Query(ctx context.Context, vector []float32, topK int) ([]domain.VectorMatch, error)

	// Upsert writes entity vectors, replacing existing ids.
	Upsert(ctx context.Context, records []VectorRecord) error
}
