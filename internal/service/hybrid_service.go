package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/blue-enigma/triply/internal/domain"
	"github.com/blue-enigma/triply/internal/port"
)

// degradedAnswer is returned when retrieval or expansion fails outright;
// the blocking path never surfaces a hard failure past this service.
const degradedAnswer = "An unexpected error occurred while generating the answer."

// HybridService sequences the hybrid pipeline for a single query:
// vector retrieval, graph expansion, prompt composition, and answer
// generation. All state is request-scoped; the injected collaborators
// are long-lived and shared across requests.
type HybridService struct {
	retriever *Retriever
	expander  *Expander
	generator *Generator
}

// NewHybridService creates a new hybrid orchestrator.
func NewHybridService(retriever *Retriever, expander *Expander, generator *Generator) *HybridService {
	return &HybridService{retriever: retriever, expander: expander, generator: generator}
}

// Answer runs the blocking pipeline and returns the response envelope.
// The only error returned is port.ErrEmptyQuery, raised before any
// external call; upstream outages degrade to an envelope with a generic
// answer and empty context lists instead of failing the request.
func (s *HybridService) Answer(ctx context.Context, query string) (domain.AnswerEnvelope, error) {
	if strings.TrimSpace(query) == "" {
		return domain.AnswerEnvelope{}, port.ErrEmptyQuery
	}

	matches, err := s.retriever.Query(ctx, query)
	if err != nil {
		slog.Error("hybrid answer degraded: retrieval failed", "error", err)
		return degradedEnvelope(query), nil
	}

	facts, err := s.expander.Expand(ctx, seedIDs(matches))
	if err != nil {
		slog.Error("hybrid answer degraded: graph expansion failed", "error", err)
		return degradedEnvelope(query), nil
	}

	prompt := ComposePrompt(query, matches, facts)
	answer := s.generator.Generate(ctx, prompt)

	return domain.AnswerEnvelope{
		Query:      query,
		Answer:     answer,
		Matches:    safeMatches(matches),
		GraphFacts: safeFacts(facts),
	}, nil
}

// AnswerStream runs retrieval, expansion, and composition blocking, then
// switches to streaming generation. The only error returned is
// port.ErrEmptyQuery; pipeline failures after that point are delivered
// on the channel as a terminal error sentinel, since the caller has
// already committed to event delivery.
func (s *HybridService) AnswerStream(ctx context.Context, query string) (<-chan domain.StreamEvent, error) {
	if strings.TrimSpace(query) == "" {
		return nil, port.ErrEmptyQuery
	}

	matches, err := s.retriever.Query(ctx, query)
	if err != nil {
		slog.Error("hybrid stream failed: retrieval", "error", err)
		return errorStream(err), nil
	}

	facts, err := s.expander.Expand(ctx, seedIDs(matches))
	if err != nil {
		slog.Error("hybrid stream failed: graph expansion", "error", err)
		return errorStream(err), nil
	}

	prompt := ComposePrompt(query, matches, facts)
	return s.generator.GenerateStream(ctx, prompt), nil
}

// seedIDs extracts non-empty entity ids from matches, preserving order.
// Some providers may omit ids; those matches are skipped, not rejected.
func seedIDs(matches []domain.VectorMatch) []string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// safeMatches re-projects matches to the public envelope shape with a
// non-nil metadata map.
func safeMatches(matches []domain.VectorMatch) []domain.VectorMatch {
	out := make([]domain.VectorMatch, len(matches))
	for i, m := range matches {
		md := m.Metadata
		if md == nil {
			md = map[string]any{}
		}
		out[i] = domain.VectorMatch{ID: m.ID, Score: m.Score, Metadata: md}
	}
	return out
}

// safeFacts guarantees a non-nil slice for serialization.
func safeFacts(facts []domain.GraphFact) []domain.GraphFact {
	if facts == nil {
		return []domain.GraphFact{}
	}
	return facts
}

func degradedEnvelope(query string) domain.AnswerEnvelope {
	return domain.AnswerEnvelope{
		Query:      query,
		Answer:     degradedAnswer,
		Matches:    []domain.VectorMatch{},
		GraphFacts: []domain.GraphFact{},
	}
}

// errorStream returns a closed channel carrying a single terminal error
// sentinel.
func errorStream(err error) <-chan domain.StreamEvent {
	events := make(chan domain.StreamEvent, 1)
	events <- domain.StreamEvent{Err: err.Error()}
	close(events)
	return events
}
