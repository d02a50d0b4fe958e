package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/astrograph/graph"
)

func TestAddNodeAssignsDenseIDsAndRoot(t *testing.T) {
	g := graph.New()
	root := g.AddNode("function_declaration")
	child := g.AddNode("identifier")
	g.AddChild(root, child)

	assert.Equal(t, 2, g.NodeCount())
	gotRoot, ok := g.Root()
	require.True(t, ok)
	assert.Equal(t, root, gotRoot)
	assert.Equal(t, "function_declaration", g.Label(root))
	assert.Equal(t, []graph.NodeID{child}, g.Children(root))
}

func TestEmptyGraphHasNoRoot(t *testing.T) {
	g := graph.New()
	_, ok := g.Root()
	assert.False(t, ok)
}

func TestAddChildPanicsOnUnknownID(t *testing.T) {
	g := graph.New()
	root := g.AddNode("root")
	assert.Panics(t, func() {
		g.AddChild(root, graph.NodeID(99))
	})
}

func TestWalkVisitsPreOrderInsertionOrder(t *testing.T) {
	g := graph.New()
	root := g.AddNode("block")
	a := g.AddNode("a")
	b := g.AddNode("b")
	g.AddChild(root, a)
	g.AddChild(root, b)
	grandchild := g.AddNode("c")
	g.AddChild(a, grandchild)

	var order []string
	g.Walk(func(id graph.NodeID) bool {
		order = append(order, g.Label(id))
		return true
	})

	assert.Equal(t, []string{"block", "a", "c", "b"}, order)
}

func TestWalkStopsEarly(t *testing.T) {
	g := graph.New()
	root := g.AddNode("root")
	a := g.AddNode("a")
	b := g.AddNode("b")
	g.AddChild(root, a)
	g.AddChild(root, b)

	var visited int
	g.Walk(func(id graph.NodeID) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}
