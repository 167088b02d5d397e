package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blue-enigma/triply/internal/domain"
)

func TestGenerateHTMLWritesVisualization(t *testing.T) {
	graph := &fakeGraph{
		subgraph: []domain.GraphEdge{
			{SourceID: "hanoi", SourceName: "Hanoi", TargetID: "halong_bay", TargetName: "Ha Long Bay", Relation: "NEAR"},
			{SourceID: "hanoi", SourceName: "Hanoi", TargetID: "old_quarter", TargetName: "", Relation: "CONTAINS"},
		},
	}
	dir := t.TempDir()
	svc := NewGraphService(graph, 500, dir)

	path, err := svc.GenerateHTML(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "graph.html"), path)

	html, err := os.ReadFile(path)
	require.NoError(t, err)

	page := string(html)
	assert.Contains(t, page, "vis.Network")
	assert.Contains(t, page, `"hanoi"`)
	assert.Contains(t, page, "Ha Long Bay")
	// Nameless nodes fall back to their id as label.
	assert.Contains(t, page, `"label":"old_quarter"`)
	assert.Contains(t, page, "NEAR")
}

func TestGenerateHTMLPropagatesStoreFailure(t *testing.T) {
	graph := &fakeGraph{subgraphErr: errUpstream}
	svc := NewGraphService(graph, 500, t.TempDir())

	_, err := svc.GenerateHTML(context.Background())
	require.ErrorIs(t, err, errUpstream)
}
