package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blue-enigma/triply/internal/domain"
	"github.com/blue-enigma/triply/internal/port"
)

// maxDescriptionLen caps target descriptions carried into the prompt.
const maxDescriptionLen = 300

// Expander turns seed entity ids into one-hop relationship facts from
// the graph store.
type Expander struct {
	graph     port.GraphStore
	factLimit int
}

// NewExpander creates a new graph expander. factLimit bounds the edges
// fetched per seed node.
func NewExpander(graph port.GraphStore, factLimit int) *Expander {
	return &Expander{graph: graph, factLimit: factLimit}
}

// Expand fetches up to factLimit adjacent relationships for every seed
// id and emits one fact per edge. Facts keep input-id order first, then
// the store's per-node return order. Seeds with no edges emit nothing;
// the caller is responsible for deduplicating ids.
func (e *Expander) Expand(ctx context.Context, seedIDs []string) ([]domain.GraphFact, error) {
	var facts []domain.GraphFact
	for _, seedID := range seedIDs {
		neighbors, err := e.graph.Neighbors(ctx, seedID, e.factLimit)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", seedID, err)
		}
		for _, n := range neighbors {
			facts = append(facts, domain.GraphFact{
				Source:            seedID,
				Relation:          n.Relation,
				TargetID:          n.ID,
				TargetName:        n.Name,
				TargetDescription: truncate(n.Description, maxDescriptionLen),
			})
		}
	}

	slog.Debug("graph facts fetched", "count", len(facts))
	return facts, nil
}

// truncate cuts s to at most max characters, never splitting a rune.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
