package lazy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNodes(n int) []*Node {
	nodes := make([]*Node, n)
	for i := range nodes {
		nodes[i] = &Node{slot: string(rune('a' + i))}
	}
	return nodes
}

type edgeSnapshot map[*Node][2][]*Node

func snapshot(kind EdgeKind, nodes ...*Node) edgeSnapshot {
	out := edgeSnapshot{}
	for _, n := range nodes {
		out[n] = [2][]*Node{n.Children(kind), n.Parents(kind)}
	}
	return out
}

func TestNode_DescendantsDiamondVisitsOnce(t *testing.T) {
	nodes := newNodes(4)
	a, b, c, d := nodes[0], nodes[1], nodes[2], nodes[3]
	require.NoError(t, a.Bind(DependencyEdges, b, c))
	require.NoError(t, b.Bind(DependencyEdges, d))
	require.NoError(t, c.Bind(DependencyEdges, d))

	assert.Equal(t, []*Node{b, d, c}, a.Descendants(DependencyEdges))
	assert.Equal(t, []*Node{b, a, c}, d.Ancestors(DependencyEdges))
	assert.Empty(t, a.Descendants(ParameterEdges))
}

func TestNode_BindIsIdempotent(t *testing.T) {
	nodes := newNodes(2)
	a, b := nodes[0], nodes[1]
	require.NoError(t, a.Bind(DependencyEdges, b))
	require.NoError(t, a.Bind(DependencyEdges, b))

	assert.Len(t, a.Children(DependencyEdges), 1)
	assert.Len(t, b.Parents(DependencyEdges), 1)
}

func TestNode_CycleRejectionLeavesGraphUnchanged(t *testing.T) {
	nodes := newNodes(4)
	a, b, c, d := nodes[0], nodes[1], nodes[2], nodes[3]
	require.NoError(t, a.Bind(DependencyEdges, b))
	require.NoError(t, b.Bind(DependencyEdges, c))

	before := snapshot(DependencyEdges, nodes...)

	err := c.Bind(DependencyEdges, d, a)
	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Same(t, c, cycle.Parent)
	assert.Same(t, a, cycle.Child)
	assert.Equal(t, DependencyEdges, cycle.Kind)

	assert.Equal(t, before, snapshot(DependencyEdges, nodes...), "no edge may be added, not even to d")

	err = a.Bind(DependencyEdges, a)
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, before, snapshot(DependencyEdges, nodes...))
}

func TestNode_EdgeSetsAreIndependent(t *testing.T) {
	nodes := newNodes(2)
	a, b := nodes[0], nodes[1]
	require.NoError(t, a.Bind(DependencyEdges, b))
	require.NoError(t, b.Bind(ParameterEdges, a), "a parameter edge may point back along a dependency edge")

	assert.Equal(t, []*Node{a}, b.Children(ParameterEdges))
	assert.Equal(t, []*Node{b}, a.Children(DependencyEdges))
}

func TestNode_UnbindReturnsOrphans(t *testing.T) {
	nodes := newNodes(3)
	a, b, c := nodes[0], nodes[1], nodes[2]
	require.NoError(t, a.Bind(DependencyEdges, c))
	require.NoError(t, b.Bind(DependencyEdges, c))

	assert.Empty(t, a.Unbind(DependencyEdges, c), "c is still held by b")
	assert.Equal(t, []*Node{c}, b.Unbind(DependencyEdges, c))
	assert.Empty(t, b.Unbind(DependencyEdges, c), "unbinding a missing edge is a no-op")
}

func TestNode_Detach(t *testing.T) {
	nodes := newNodes(3)
	a, b, c := nodes[0], nodes[1], nodes[2]
	require.NoError(t, a.Bind(ParameterEdges, b))
	require.NoError(t, b.Bind(ParameterEdges, c))

	b.detachChildren(ParameterEdges)
	assert.Empty(t, c.Parents(ParameterEdges))
	assert.Equal(t, []*Node{b}, a.Children(ParameterEdges))

	b.detachParents(ParameterEdges)
	assert.Empty(t, a.Children(ParameterEdges))
	assert.Empty(t, b.Parents(ParameterEdges))
}

func TestNode_SnapshotsAreCopies(t *testing.T) {
	nodes := newNodes(3)
	a, b, c := nodes[0], nodes[1], nodes[2]
	require.NoError(t, a.Bind(DependencyEdges, b, c))

	children := a.Children(DependencyEdges)
	a.Unbind(DependencyEdges, b)
	assert.Equal(t, []*Node{b, c}, children)
}
