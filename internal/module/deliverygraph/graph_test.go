package deliverygraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeNodeGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := New([]Node{
		{ID: 1, Code: "new", Name: "New", Icon: "new", Position: 1},
		{ID: 2, Code: "courier_assigned", Name: "Courier assigned", Icon: "courier-assigned", Position: 2},
		{ID: 3, Code: "delivered", Name: "Delivered", Icon: "delivered", Position: 3},
	})
	require.NoError(t, err)
	return g
}

func TestParse(t *testing.T) {
	t.Run("parses a raw JSON definition", func(t *testing.T) {
		raw := []byte(`[
			{"id": 1, "code": "new", "name": "New", "icon": "new", "position": 1},
			{"id": 2, "code": "delivered", "name": "Delivered", "icon": "delivered", "position": 2,
			 "transitions": [{"trigger": "delivered", "source": "delivered", "dest": "new"}]}
		]`)

		g, err := Parse(raw)
		require.NoError(t, err)

		node, err := g.FindNode("delivered")
		require.NoError(t, err)
		assert.Len(t, node.Transitions, 1)
		assert.Equal(t, "new", node.Transitions[0].Dest)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := Parse([]byte(`{"not": "a list"}`))
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("rejects empty graph", func(t *testing.T) {
		_, err := New(nil)
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("rejects node without code", func(t *testing.T) {
		_, err := New([]Node{{ID: 1, Position: 1}})
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Contains(t, parseErr.Reason, "no code")
	})

	t.Run("rejects negative position", func(t *testing.T) {
		_, err := New([]Node{{ID: 1, Code: "new", Position: -1}})
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("rejects duplicate positions", func(t *testing.T) {
		_, err := New([]Node{
			{ID: 1, Code: "new", Position: 1},
			{ID: 2, Code: "delivered", Position: 1},
		})
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Contains(t, parseErr.Reason, "position 1")
	})

	t.Run("rejects duplicate codes", func(t *testing.T) {
		_, err := New([]Node{
			{ID: 1, Code: "new", Position: 1},
			{ID: 2, Code: "new", Position: 2},
		})
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
	})
}

func TestGraph_FindNode(t *testing.T) {
	g := threeNodeGraph(t)

	node, err := g.FindNode("courier_assigned")
	require.NoError(t, err)
	assert.Equal(t, int64(2), node.ID)

	_, err = g.FindNode("unknown")
	var notFound *NodeNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "unknown", notFound.Code)
}

func TestGraph_NextByPosition(t *testing.T) {
	g := threeNodeGraph(t)

	next := g.NextByPosition("new")
	require.NotNil(t, next)
	assert.Equal(t, "courier_assigned", next.Code)

	next = g.NextByPosition("courier_assigned")
	require.NotNil(t, next)
	assert.Equal(t, "delivered", next.Code)

	assert.Nil(t, g.NextByPosition("delivered"), "last node has no successor")
	assert.Nil(t, g.NextByPosition("unknown"))
}

func TestGraph_NextByPosition_WithGaps(t *testing.T) {
	// Positions need not be contiguous; next is the next-higher position.
	g, err := New([]Node{
		{ID: 1, Code: "new", Position: 10},
		{ID: 2, Code: "delivered", Position: 40},
	})
	require.NoError(t, err)

	next := g.NextByPosition("new")
	require.NotNil(t, next)
	assert.Equal(t, "delivered", next.Code)
}

func TestGraph_IsTerminal(t *testing.T) {
	g := threeNodeGraph(t)

	assert.False(t, g.IsTerminal("new"))
	assert.True(t, g.IsTerminal("delivered"))

	withEdge, err := New([]Node{
		{ID: 1, Code: "new", Position: 1},
		{ID: 2, Code: "delivered", Position: 2,
			Transitions: []Transition{{Trigger: "reopen", Source: "delivered", Dest: "new"}}},
	})
	require.NoError(t, err)
	assert.False(t, withEdge.IsTerminal("delivered"), "explicit edge keeps the node non-terminal")
}
