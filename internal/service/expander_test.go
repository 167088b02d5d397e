package service

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blue-enigma/triply/internal/port"
)

func TestExpandEmitsOneFactPerEdgeInSeedOrder(t *testing.T) {
	graph := &fakeGraph{
		neighbors: map[string][]port.Neighbor{
			"b": {{Relation: "NEAR", ID: "x", Name: "X"}},
			"a": {
				{Relation: "IN", ID: "y", Name: "Y"},
				{Relation: "NEAR", ID: "z", Name: "Z"},
			},
		},
	}
	expander := NewExpander(graph, 10)

	facts, err := expander.Expand(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	require.Len(t, facts, 3)
	assert.Equal(t, "a", facts[0].Source)
	assert.Equal(t, "y", facts[0].TargetID)
	assert.Equal(t, "a", facts[1].Source)
	assert.Equal(t, "z", facts[1].TargetID)
	assert.Equal(t, "b", facts[2].Source)
	assert.Equal(t, "x", facts[2].TargetID)
}

func TestExpandSkipsSeedsWithNoEdges(t *testing.T) {
	graph := &fakeGraph{
		neighbors: map[string][]port.Neighbor{
			"a": {{Relation: "NEAR", ID: "x"}},
		},
	}
	expander := NewExpander(graph, 10)

	facts, err := expander.Expand(context.Background(), []string{"lonely", "a"})
	require.NoError(t, err)

	require.Len(t, facts, 1)
	assert.Equal(t, "a", facts[0].Source)
	assert.Equal(t, []string{"lonely", "a"}, graph.expandedSeeds)
}

func TestExpandTruncatesDescriptions(t *testing.T) {
	exactly300 := strings.Repeat("d", 300)
	over := strings.Repeat("e", 301)

	graph := &fakeGraph{
		neighbors: map[string][]port.Neighbor{
			"a": {
				{Relation: "NEAR", ID: "x", Description: exactly300},
				{Relation: "NEAR", ID: "y", Description: over},
				{Relation: "NEAR", ID: "z"},
			},
		},
	}
	expander := NewExpander(graph, 10)

	facts, err := expander.Expand(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Len(t, facts, 3)

	assert.Equal(t, exactly300, facts[0].TargetDescription)
	assert.Len(t, facts[1].TargetDescription, 300)
	assert.Equal(t, strings.Repeat("e", 300), facts[1].TargetDescription)
	assert.Equal(t, "", facts[2].TargetDescription)
}

func TestExpandTruncatesByCharactersNotBytes(t *testing.T) {
	// Vietnamese descriptions are multibyte; the cap counts characters.
	viet300 := strings.Repeat("ệ", 300)
	viet301 := strings.Repeat("ệ", 301)

	graph := &fakeGraph{
		neighbors: map[string][]port.Neighbor{
			"a": {
				{Relation: "NEAR", ID: "x", Description: viet300},
				{Relation: "NEAR", ID: "y", Description: viet301},
			},
		},
	}
	expander := NewExpander(graph, 10)

	facts, err := expander.Expand(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Len(t, facts, 2)

	assert.Equal(t, viet300, facts[0].TargetDescription)
	assert.Equal(t, viet300, facts[1].TargetDescription)
	assert.Equal(t, 300, utf8.RuneCountInString(facts[1].TargetDescription))
	assert.True(t, utf8.ValidString(facts[1].TargetDescription))
}

func TestExpandRespectsPerSeedLimit(t *testing.T) {
	var many []port.Neighbor
	for i := 0; i < 25; i++ {
		many = append(many, port.Neighbor{Relation: "NEAR", ID: "n"})
	}
	graph := &fakeGraph{neighbors: map[string][]port.Neighbor{"a": many}}
	expander := NewExpander(graph, 10)

	facts, err := expander.Expand(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Len(t, facts, 10)
}

func TestExpandPropagatesStoreFailure(t *testing.T) {
	graph := &fakeGraph{neighborsErr: errUpstream}
	expander := NewExpander(graph, 10)

	_, err := expander.Expand(context.Background(), []string{"a"})
	require.ErrorIs(t, err, errUpstream)
}
