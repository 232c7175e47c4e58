package lazy

// EdgeKind selects one of the two independent edge sets carried by every Node.
type EdgeKind uint8

const (
	// DependencyEdges link an owner to what it keeps alive. An entity whose
	// dependency-parent count drops to zero is restocked.
	DependencyEdges EdgeKind = iota
	// ParameterEdges link a cached computation to the cells it was derived
	// from. Writing a cell expires every parameter-ancestor.
	ParameterEdges
)

func (k EdgeKind) String() string {
	switch k {
	case DependencyEdges:
		return "dependency"
	case ParameterEdges:
		return "parameter"
	}
	return "unknown"
}

// NodeKind tells what a Node stands for.
type NodeKind uint8

const (
	EntityNode NodeKind = iota
	VariableCellNode
	ParameterCellNode
	ComputedCellNode
)

func (k NodeKind) String() string {
	switch k {
	case EntityNode:
		return "entity"
	case VariableCellNode:
		return "variable"
	case ParameterCellNode:
		return "parameter"
	case ComputedCellNode:
		return "computed"
	}
	return "unknown"
}

type edgeSet struct {
	children []*Node
	parents  []*Node
}

// Node is a vertex of the dependency and parameter graphs.
type Node struct {
	kind   NodeKind
	entity Entity
	owner  *Object
	slot   string
	cell   expirer
	edges  [2]edgeSet
}

// expirer is implemented by cells that hold cached state.
type expirer interface {
	expire(r *Registry)
}

// Kind returns what the node stands for.
func (n *Node) Kind() NodeKind { return n.kind }

// Entity returns the entity for entity nodes, nil for cell nodes.
func (n *Node) Entity() Entity { return n.entity }

// Owner returns the object owning a cell node, nil for entity nodes.
func (n *Node) Owner() *Object { return n.owner }

// Slot returns the slot name of a cell node.
func (n *Node) Slot() string { return n.slot }

// Children returns a snapshot of the direct children in the given edge set.
func (n *Node) Children(kind EdgeKind) []*Node {
	return cloneNodes(n.edges[kind].children)
}

// Parents returns a snapshot of the direct parents in the given edge set.
func (n *Node) Parents(kind EdgeKind) []*Node {
	return cloneNodes(n.edges[kind].parents)
}

// Bind adds edges from n to every child. If any child is n itself or
// already an ancestor of n, a *CycleError is returned and no edge is added.
func (n *Node) Bind(kind EdgeKind, children ...*Node) error {
	for _, child := range children {
		if child == n || reaches(child, n, kind) {
			return &CycleError{Kind: kind, Parent: n, Child: child}
		}
	}
	for _, child := range children {
		n.edges[kind].children = appendUnique(n.edges[kind].children, child)
		child.edges[kind].parents = appendUnique(child.edges[kind].parents, n)
	}
	return nil
}

// Unbind removes the edges from n to the given children and returns those
// children left without any parent in that edge set.
func (n *Node) Unbind(kind EdgeKind, children ...*Node) []*Node {
	var orphans []*Node
	for _, child := range children {
		if !containsNode(n.edges[kind].children, child) {
			continue
		}
		n.edges[kind].children = removeElement(n.edges[kind].children, child)
		child.edges[kind].parents = removeElement(child.edges[kind].parents, n)
		if len(child.edges[kind].parents) == 0 {
			orphans = appendUnique(orphans, child)
		}
	}
	return orphans
}

// detach drops every edge of n in the given edge set, both directions.
func (n *Node) detach(kind EdgeKind) {
	for _, child := range n.edges[kind].children {
		child.edges[kind].parents = removeElement(child.edges[kind].parents, n)
	}
	for _, parent := range n.edges[kind].parents {
		parent.edges[kind].children = removeElement(parent.edges[kind].children, n)
	}
	n.edges[kind].children = nil
	n.edges[kind].parents = nil
}

// detachChildren drops the outgoing edges of n in the given edge set.
func (n *Node) detachChildren(kind EdgeKind) {
	for _, child := range n.edges[kind].children {
		child.edges[kind].parents = removeElement(child.edges[kind].parents, n)
	}
	n.edges[kind].children = nil
}

// detachParents drops the incoming edges of n in the given edge set.
func (n *Node) detachParents(kind EdgeKind) {
	for _, parent := range n.edges[kind].parents {
		parent.edges[kind].children = removeElement(parent.edges[kind].children, n)
	}
	n.edges[kind].parents = nil
}

// Descendants performs a deduplicated pre-order walk below n, n excluded.
func (n *Node) Descendants(kind EdgeKind) []*Node {
	return walk(n, func(x *Node) []*Node { return x.edges[kind].children })
}

// Ancestors performs a deduplicated pre-order walk above n, n excluded.
func (n *Node) Ancestors(kind EdgeKind) []*Node {
	return walk(n, func(x *Node) []*Node { return x.edges[kind].parents })
}

// walk uses an explicit stack instead of recursion. The returned slice is a
// snapshot, so callers may mutate the graph while iterating it.
func walk(start *Node, next func(*Node) []*Node) []*Node {
	stack := make([]*Node, 0, 32)
	out := make([]*Node, 0, 32)
	visited := make(map[*Node]bool, 32)
	visited[start] = true

	pushReversed := func(nodes []*Node) {
		for i := len(nodes) - 1; i >= 0; i-- {
			if !visited[nodes[i]] {
				stack = append(stack, nodes[i])
			}
		}
	}
	pushReversed(next(start))

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true
		out = append(out, current)
		pushReversed(next(current))
	}
	return out
}

// reaches reports whether to is a descendant of from.
func reaches(from, to *Node, kind EdgeKind) bool {
	stack := []*Node{from}
	visited := map[*Node]bool{}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, child := range current.edges[kind].children {
			if child == to {
				return true
			}
			stack = append(stack, child)
		}
	}
	return false
}

func cloneNodes(nodes []*Node) []*Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*Node, len(nodes))
	copy(out, nodes)
	return out
}

func containsNode(nodes []*Node, n *Node) bool {
	for _, x := range nodes {
		if x == n {
			return true
		}
	}
	return false
}

// Utility functions for working with slices efficiently

func appendUnique[T comparable](slice []T, item T) []T {
	for _, existing := range slice {
		if existing == item {
			return slice
		}
	}
	return append(slice, item)
}

func removeElement[T comparable](slice []T, item T) []T {
	for i, existing := range slice {
		if existing == item {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}
