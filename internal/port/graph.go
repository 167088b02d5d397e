package port

import (
	"context"

	"github.com/blue-enigma/triply/internal/domain"
)

// Neighbor is one adjacent entity reached by a one-hop traversal,
// before any truncation policy is applied.
type Neighbor struct {
	Relation    string
	ID          string
	Name        string
	Description string
}

// GraphStore abstracts the property-graph backend. Read sessions are
// acquired per logical operation and released on every exit path.
type GraphStore interface {
	// Neighbors returns up to limit entities adjacent to the seed id,
	// any relation type, either direction, in store order. A seed with
	// no edges yields an empty slice, not an error.
	Neighbors(ctx context.Context, seedID string, limit int) ([]Neighbor, error)

	// Subgraph returns up to limit directed edges for visualization.
	Subgraph(ctx context.Context, limit int) ([]domain.GraphEdge, error)

	// EnsureConstraints creates the unique-id constraint. Idempotent.
	EnsureConstraints(ctx context.Context) error

	// UpsertNode merges an entity node with its properties.
	UpsertNode(ctx context.Context, node domain.TravelNode) error

	// UpsertRelation merges a typed relationship between two entities.
	UpsertRelation(ctx context.Context, sourceID, relation, targetID string) error

	// Close releases the underlying driver.
	Close(ctx context.Context) error
}
