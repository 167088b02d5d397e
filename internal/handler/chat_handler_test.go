package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blue-enigma/triply/internal/domain"
	"github.com/blue-enigma/triply/internal/port"
	"github.com/blue-enigma/triply/internal/service"
)

// stubAI answers every chat with a fixed sentence and streams it as two
// tokens.
type stubAI struct{}

func (stubAI) ModelName() string { return "stub" }

func (stubAI) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (stubAI) Chat(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (string, error) {
	return "Spend a morning at My Khe Beach.", nil
}

func (stubAI) ChatStream(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (<-chan port.ChatDelta, error) {
	ch := make(chan port.ChatDelta, 3)
	ch <- port.ChatDelta{Content: "My Khe "}
	ch <- port.ChatDelta{Content: "Beach"}
	ch <- port.ChatDelta{Done: true}
	close(ch)
	return ch, nil
}

type stubIndex struct{}

func (stubIndex) EnsureIndex(ctx context.Context) error { return nil }

func (stubIndex) Query(ctx context.Context, vector []float32, topK int) ([]domain.VectorMatch, error) {
	return []domain.VectorMatch{
		{ID: "danang_beach_1", Score: 0.91, Metadata: map[string]any{"name": "My Khe Beach", "type": "beach", "city": "Da Nang"}},
	}, nil
}

func (stubIndex) Upsert(ctx context.Context, records []port.VectorRecord) error { return nil }

type stubGraph struct{}

func (stubGraph) Neighbors(ctx context.Context, seedID string, limit int) ([]port.Neighbor, error) {
	return []port.Neighbor{{Relation: "NEAR", ID: "danang_hotel_3", Name: "Hotel X", Description: "Beachfront hotel..."}}, nil
}

func (stubGraph) Subgraph(ctx context.Context, limit int) ([]domain.GraphEdge, error) {
	return []domain.GraphEdge{{SourceID: "a", SourceName: "A", TargetID: "b", TargetName: "B", Relation: "NEAR"}}, nil
}

func (stubGraph) EnsureConstraints(ctx context.Context) error                  { return nil }
func (stubGraph) UpsertNode(ctx context.Context, node domain.TravelNode) error { return nil }
func (stubGraph) UpsertRelation(ctx context.Context, sourceID, relation, targetID string) error {
	return nil
}
func (stubGraph) Close(ctx context.Context) error { return nil }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	retriever := service.NewRetriever(stubAI{}, stubIndex{}, 5, 1536)
	expander := service.NewExpander(stubGraph{}, 10)
	generator := service.NewGenerator(stubAI{}, 600, 700)
	hybrid := service.NewHybridService(retriever, expander, generator)
	graphs := service.NewGraphService(stubGraph{}, 500, t.TempDir())

	app := fiber.New()
	NewChatHandler(hybrid, graphs).Register(app)
	return app
}

func TestChatReturnsEnvelope(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/chat", strings.NewReader(`{"query":"best beaches in Da Nang"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope domain.AnswerEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	assert.Equal(t, "best beaches in Da Nang", envelope.Query)
	assert.Equal(t, "Spend a morning at My Khe Beach.", envelope.Answer)
	require.Len(t, envelope.Matches, 1)
	assert.Equal(t, "danang_beach_1", envelope.Matches[0].ID)
	require.Len(t, envelope.GraphFacts, 1)
	assert.Equal(t, "danang_hotel_3", envelope.GraphFacts[0].TargetID)
}

func TestChatRejectsEmptyQuery(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/chat", strings.NewReader(`{"query":"   "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestChatStreamRejectsEmptyQuery(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/chat/stream", strings.NewReader(`{"query":""}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestChatStreamEmitsSSEEvents(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/chat/stream", strings.NewReader(`{"query":"beaches"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	stream := string(body)
	assert.Contains(t, stream, `data: {"token":"My Khe "}`)
	assert.Contains(t, stream, `data: {"token":"Beach"}`)
	assert.Equal(t, 1, strings.Count(stream, "data: [DONE]"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(stream), "data: [DONE]"))
}

func TestGraphReturnsVisualizationURL(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/graph", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		GraphURL string `json:"graph_url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "/static/graph.html", payload.GraphURL)
}
