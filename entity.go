package lazy

// Entity is anything that participates in the dependency graph: objects,
// collections and wrapped raw values.
type Entity interface {
	// Node returns the entity's graph vertex.
	Node() *Node
	// OnRestock registers a callback run when the entity goes back to its
	// pool. Callbacks run in reverse registration order. Permanent entities
	// never restock and ignore registrations.
	OnRestock(fn func() error)
	// Permanent reports whether the entity is a class-level default.
	Permanent() bool
	// ID is stable for the lifetime of the allocation, across pool reuse.
	ID() uint64

	base() *entityBase
}

type entityBase struct {
	node      Node
	reg       *Registry
	id        uint64
	callbacks []func() error
	permanent bool
	pooled    bool
}

func (b *entityBase) Node() *Node     { return &b.node }
func (b *entityBase) Permanent() bool { return b.permanent }
func (b *entityBase) ID() uint64      { return b.id }
func (b *entityBase) base() *entityBase {
	return b
}

func (b *entityBase) OnRestock(fn func() error) {
	if b.permanent {
		return
	}
	b.callbacks = append(b.callbacks, fn)
}

// Value wraps a raw (non-entity) value so it can live in the graph.
type Value struct {
	entityBase
	value any
}

// Get returns the wrapped raw value.
func (v *Value) Get() any { return v.value }

// Describe names an entity for logs and debug output.
func Describe(e Entity) string {
	if o, ok := e.(*Object); ok && o != nil {
		return o.String()
	}
	return describeEntity(e)
}

// ClassOf names the class of an entity: the class of an object, or
// "Collection" and "Value" for the built-in kinds.
func ClassOf(e Entity) string {
	switch x := e.(type) {
	case *Object:
		return x.class.name
	case *Collection:
		return "Collection"
	case *Value:
		return "Value"
	}
	return ""
}

// restock returns e and every entity it alone kept alive to their pools.
// It walks an explicit worklist so deep ownership chains do not recurse.
func (r *Registry) restock(e Entity) {
	work := []Entity{e}
	for len(work) > 0 {
		current := work[len(work)-1]
		work = work[:len(work)-1]

		b := current.base()
		if b.permanent || b.pooled {
			continue
		}
		if parents := len(b.node.edges[DependencyEdges].parents); parents > 0 {
			panic(&UnboundRestockError{
				Entity:    current,
				Parents:   parents,
				Permanent: reachableFromPermanent(current),
			})
		}

		callbacks := b.callbacks
		b.callbacks = nil
		for i := len(callbacks) - 1; i >= 0; i-- {
			if err := callbacks[i](); err != nil {
				r.reportRestockError(&RestockError{Entity: current, Err: err})
			}
		}
		r.observe(&Operation{Kind: OpRestock, Class: ClassOf(current), Entity: current, Registry: r})

		var orphans []*Node
		switch x := current.(type) {
		case *Object:
			orphans = x.clear()
		case *Collection:
			orphans = x.clear()
		case *Value:
			x.value = nil
		}
		b.node.detach(ParameterEdges)
		for _, n := range orphans {
			if n.entity != nil {
				work = append(work, n.entity)
			}
		}

		b.pooled = true
		r.pools.release(current)
	}
}

func reachableFromPermanent(e Entity) bool {
	for _, a := range e.Node().Ancestors(DependencyEdges) {
		if a.entity != nil && a.entity.Permanent() {
			return true
		}
	}
	return false
}

// checkWritable rejects writes to permanent defaults and to anything a
// computed result holds, since those are shared between owners.
func checkWritable(e Entity, class, slot string) error {
	if e.Permanent() {
		return &ReadonlyWriteError{Class: class, Slot: slot, Reason: "permanent default"}
	}
	for _, a := range e.Node().Ancestors(DependencyEdges) {
		if a.kind == ComputedCellNode {
			return &ReadonlyWriteError{Class: class, Slot: slot, Reason: "held by computed " + a.slot}
		}
		if a.entity != nil && a.entity.Permanent() {
			return &ReadonlyWriteError{Class: class, Slot: slot, Reason: "reachable from a permanent default"}
		}
	}
	return nil
}
