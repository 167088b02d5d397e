package service

import (
	"context"
	"errors"

	"github.com/blue-enigma/triply/internal/domain"
	"github.com/blue-enigma/triply/internal/port"
)

// fakeAI implements port.AIProvider with canned responses.
type fakeAI struct {
	embedVec   []float32
	embedErr   error
	embedCalls int

	chatResp     string
	chatErr      error
	chatCalls    int
	lastMessages []domain.ChatMessage
	lastMaxTok   int

	deltas    []port.ChatDelta
	streamErr error
}

func (f *fakeAI) ModelName() string { return "fake-model" }

func (f *fakeAI) Embed(ctx context.Context, text string) ([]float32, error) {
	f.embedCalls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.embedVec, nil
}

func (f *fakeAI) Chat(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (string, error) {
	f.chatCalls++
	f.lastMessages = messages
	f.lastMaxTok = maxTokens
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatResp, nil
}

func (f *fakeAI) ChatStream(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (<-chan port.ChatDelta, error) {
	f.lastMessages = messages
	f.lastMaxTok = maxTokens
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	ch := make(chan port.ChatDelta, len(f.deltas))
	for _, d := range f.deltas {
		ch <- d
	}
	close(ch)
	return ch, nil
}

// fakeIndex implements port.VectorIndex, recording the last query.
type fakeIndex struct {
	matches    []domain.VectorMatch
	queryErr   error
	queryCalls int
	lastVector []float32
	lastTopK   int
}

func (f *fakeIndex) EnsureIndex(ctx context.Context) error { return nil }

func (f *fakeIndex) Query(ctx context.Context, vector []float32, topK int) ([]domain.VectorMatch, error) {
	f.queryCalls++
	f.lastVector = vector
	f.lastTopK = topK
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *fakeIndex) Upsert(ctx context.Context, records []port.VectorRecord) error { return nil }

// fakeGraph implements port.GraphStore with per-seed canned neighbors.
type fakeGraph struct {
	neighbors     map[string][]port.Neighbor
	neighborsErr  error
	expandedSeeds []string
	subgraph      []domain.GraphEdge
	subgraphErr   error
}

func (f *fakeGraph) Neighbors(ctx context.Context, seedID string, limit int) ([]port.Neighbor, error) {
	f.expandedSeeds = append(f.expandedSeeds, seedID)
	if f.neighborsErr != nil {
		return nil, f.neighborsErr
	}
	ns := f.neighbors[seedID]
	if len(ns) > limit {
		ns = ns[:limit]
	}
	return ns, nil
}

func (f *fakeGraph) Subgraph(ctx context.Context, limit int) ([]domain.GraphEdge, error) {
	if f.subgraphErr != nil {
		return nil, f.subgraphErr
	}
	return f.subgraph, nil
}

func (f *fakeGraph) EnsureConstraints(ctx context.Context) error { return nil }

func (f *fakeGraph) UpsertNode(ctx context.Context, node domain.TravelNode) error { return nil }

func (f *fakeGraph) UpsertRelation(ctx context.Context, sourceID, relation, targetID string) error {
	return nil
}

func (f *fakeGraph) Close(ctx context.Context) error { return nil }

var errUpstream = errors.New("upstream unavailable")
