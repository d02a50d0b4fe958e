// Package graph implements the labeled directed graph used to represent a
// parsed code unit's structure. Graphs produced by a language plugin are
// trees: acyclic, single-rooted, with children kept in the insertion order
// the plugin walked the underlying CST in. That order is part of the
// structural identity the fingerprinter hashes over (see package
// fingerprint), so callers must never reorder children after construction.
package graph

import "fmt"

// NodeID addresses a node within a LabeledGraph. IDs are dense starting at
// zero in the order nodes were added.
type NodeID int

// LabeledGraph is a directed graph whose nodes carry a structural label and
// whose edges carry no payload. It is built incrementally via AddNode and
// AddChild and is read-only once construction is complete.
type LabeledGraph struct {
	labels   []string
	children [][]NodeID
	root     NodeID
	hasRoot  bool
}

// New returns an empty graph with no nodes.
func New() *LabeledGraph {
	return &LabeledGraph{}
}

// AddNode appends a node with the given structural label and returns its
// id. The first node added becomes the graph's root.
func (g *LabeledGraph) AddNode(label string) NodeID {
	id := NodeID(len(g.labels))
	g.labels = append(g.labels, label)
	g.children = append(g.children, nil)
	if !g.hasRoot {
		g.root = id
		g.hasRoot = true
	}
	return id
}

// AddChild records that child is a child of parent, in insertion order.
// Panics if either id is out of range, matching the invariant that every
// edge must reference existing node ids.
func (g *LabeledGraph) AddChild(parent, child NodeID) {
	if !g.valid(parent) {
		panic(fmt.Sprintf("graph: parent id %d out of range", parent))
	}
	if !g.valid(child) {
		panic(fmt.Sprintf("graph: child id %d out of range", child))
	}
	g.children[parent] = append(g.children[parent], child)
}

func (g *LabeledGraph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.labels)
}

// NodeCount returns the number of nodes in the graph.
func (g *LabeledGraph) NodeCount() int {
	return len(g.labels)
}

// Root returns the graph's designated root node id. Valid is false for an
// empty graph.
func (g *LabeledGraph) Root() (id NodeID, valid bool) {
	return g.root, g.hasRoot
}

// Label returns the structural label of a node.
func (g *LabeledGraph) Label(id NodeID) string {
	return g.labels[id]
}

// Children returns the ordered child ids of a node. The returned slice must
// not be mutated by callers.
func (g *LabeledGraph) Children(id NodeID) []NodeID {
	return g.children[id]
}

// Walk visits every node reachable from the root in pre-order (parent
// before children, children in insertion order), calling visit for each.
// Stops early if visit returns false.
func (g *LabeledGraph) Walk(visit func(id NodeID) bool) {
	root, ok := g.Root()
	if !ok {
		return
	}
	var walk func(NodeID) bool
	walk = func(id NodeID) bool {
		if !visit(id) {
			return false
		}
		for _, c := range g.Children(id) {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(root)
}
