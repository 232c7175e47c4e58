package extensions

import (
	"github.com/m1gwings/treedrawer/tree"

	lazy "github.com/pumped-fn/lazy-go"
)

// RenderTree draws the dependency tree below an object: its variable
// cells and their children, its collections and members, its computed
// cells and their cached results. An entity reached twice is expanded
// once and marked shared afterwards.
func RenderTree(o *lazy.Object) string {
	root := tree.NewTree(tree.NodeString(nodeLabel(o.Node())))
	seen := map[*lazy.Node]bool{o.Node(): true}

	var grow func(t *tree.Tree, n *lazy.Node)
	grow = func(t *tree.Tree, n *lazy.Node) {
		for _, child := range n.Children(lazy.DependencyEdges) {
			if child.Kind() == lazy.EntityNode && seen[child] {
				t.AddChild(tree.NodeString(nodeLabel(child) + " (shared)"))
				continue
			}
			seen[child] = true
			grow(t.AddChild(tree.NodeString(nodeLabel(child))), child)
		}
	}
	grow(root, o.Node())
	return root.String()
}

func nodeLabel(n *lazy.Node) string {
	switch n.Kind() {
	case lazy.EntityNode:
		label := lazy.Describe(n.Entity())
		if n.Entity().Permanent() {
			label += " [default]"
		}
		return label
	case lazy.ComputedCellNode:
		if len(n.Children(lazy.DependencyEdges)) == 0 {
			return n.Slot() + " = ?"
		}
		return n.Slot() + " ="
	}
	return n.Slot()
}
