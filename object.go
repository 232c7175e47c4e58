package lazy

import (
	"errors"
	"fmt"
	"reflect"
)

// Object is an instance of a registered Class. Each slot of the object is
// its own cell node: variable cells hold a child entity, parameter cells
// hold a resolved input, computed cells hold a cached result.
type Object struct {
	entityBase
	class  *Class
	vars   []*variableCell
	colls  []*Collection
	params []*parameterCell
	comps  []*computedCell
	tags   map[any]any
}

type variableCell struct {
	node  Node
	value Entity
}

type parameterCell struct {
	node  Node
	value any
	key   any
	valid bool
}

// expire drops the resolved input and the edges recorded while resolving
// it.
func (pc *parameterCell) expire(r *Registry) {
	if !pc.valid {
		return
	}
	pc.valid = false
	pc.value = nil
	pc.key = nil
	pc.node.detachChildren(ParameterEdges)
}

type computedCell struct {
	node      Node
	slot      *slot
	result    Entity
	computing bool
}

// expire drops the cached result, restocking it if no other cell holds it.
func (cc *computedCell) expire(r *Registry) {
	if cc.result == nil {
		return
	}
	res := cc.result
	cc.result = nil
	r.observe(&Operation{Kind: OpExpire, Class: cc.node.owner.class.name, Slot: cc.slot.name, Object: cc.node.owner, Entity: res, Registry: r})
	r.release(cc.node.Unbind(DependencyEdges, res.Node()))
}

// newObject allocates an instance with the structural edges of its class:
// object to each cell, computed cell to each of its parameter cells. These
// edges survive pool reuse.
func newObject(c *Class) *Object {
	r := c.reg
	o := &Object{class: c}
	o.reg = r
	o.id = r.newID()
	o.node.kind = EntityNode
	o.node.entity = o

	o.vars = make([]*variableCell, len(c.vars))
	for i, s := range c.vars {
		vc := &variableCell{}
		vc.node = Node{kind: VariableCellNode, owner: o, slot: s.name}
		o.vars[i] = vc
		mustBind(&o.node, DependencyEdges, &vc.node)
	}
	o.colls = make([]*Collection, len(c.colls))
	o.params = make([]*parameterCell, len(c.params))
	for i, spec := range c.params {
		pc := &parameterCell{}
		pc.node = Node{kind: ParameterCellNode, owner: o, slot: spec.key(), cell: pc}
		o.params[i] = pc
	}
	o.comps = make([]*computedCell, len(c.comps))
	for i, entry := range c.comps {
		cc := &computedCell{slot: entry.slot}
		cc.node = Node{kind: ComputedCellNode, owner: o, slot: entry.slot.name, cell: cc}
		o.comps[i] = cc
		mustBind(&o.node, DependencyEdges, &cc.node)
		for _, idx := range entry.params {
			mustBind(&cc.node, ParameterEdges, &o.params[idx].node)
		}
	}
	return o
}

func mustBind(parent *Node, kind EdgeKind, child *Node) {
	if err := parent.Bind(kind, child); err != nil {
		panic(err)
	}
}

// Class returns the class of o.
func (o *Object) Class() *Class { return o.class }

// initialize fills a freshly acquired instance. With src nil the instance
// takes the class defaults; otherwise it becomes a shallow copy of src.
func (o *Object) initialize(src *Object) error {
	r := o.reg
	c := o.class

	for i, s := range c.vars {
		var e Entity
		if src != nil {
			e = src.vars[i].value
		} else {
			d, err := s.defaultEntity(r)
			if err != nil {
				return fmt.Errorf("default of %s: %w", s.qualified(), err)
			}
			e = d
		}
		if e == nil {
			continue
		}
		cell := o.vars[i]
		if err := cell.node.Bind(DependencyEdges, e.Node()); err != nil {
			return err
		}
		cell.value = e
	}

	for i, s := range c.colls {
		col := r.acquireCollection()
		col.owner = o
		col.slot = s.name
		col.elem = s.elem
		if err := o.node.Bind(DependencyEdges, &col.node); err != nil {
			r.restock(col)
			return err
		}
		o.colls[i] = col

		var (
			members []*Object
			built   bool
		)
		if src != nil {
			members = src.colls[i].members
		} else if s.newMembers != nil {
			m, err := s.newMembers()
			if err != nil {
				return fmt.Errorf("default of %s: %w", s.qualified(), err)
			}
			members, built = m, true
		}
		if err := col.fill(members); err != nil {
			if built {
				releaseLoose(r, members)
			}
			return err
		}
	}

	if src == nil {
		return nil
	}
	for i, cc := range src.comps {
		if cc.result == nil {
			continue
		}
		dst := o.comps[i]
		if err := dst.node.Bind(DependencyEdges, cc.result.Node()); err != nil {
			return err
		}
		dst.result = cc.result
	}
	// The copy holds the same inputs, so re-walking its parameters only
	// records the edges that let later writes expire the transplanted
	// results.
	for i, cc := range o.comps {
		if cc.result == nil {
			continue
		}
		for _, idx := range c.comps[i].params {
			if _, err := o.resolveParam(idx); err != nil {
				return err
			}
		}
	}
	return nil
}

func releaseLoose(r *Registry, objs []*Object) {
	for _, m := range objs {
		if m != nil && !m.pooled && len(m.node.edges[DependencyEdges].parents) == 0 {
			r.restock(m)
		}
	}
}

// clear drops everything an instance holds before it goes back to the free
// list and returns the entities left without owner.
func (o *Object) clear() []*Node {
	var orphans []*Node
	for _, vc := range o.vars {
		vc.node.detachParents(ParameterEdges)
		if vc.value != nil {
			orphans = append(orphans, vc.node.Unbind(DependencyEdges, vc.value.Node())...)
			vc.value = nil
		}
	}
	for i, col := range o.colls {
		if col != nil {
			orphans = append(orphans, o.node.Unbind(DependencyEdges, &col.node)...)
			o.colls[i] = nil
		}
	}
	for _, pc := range o.params {
		pc.node.detachChildren(ParameterEdges)
		pc.value = nil
		pc.key = nil
		pc.valid = false
	}
	for _, cc := range o.comps {
		cc.node.detachParents(ParameterEdges)
		cc.computing = false
		if cc.result != nil {
			orphans = append(orphans, cc.node.Unbind(DependencyEdges, cc.result.Node())...)
			cc.result = nil
		}
	}
	o.tags = nil
	return orphans
}

// Copy returns a shallow structural duplicate: the same children, new
// collections with the same members, and the cached computed results of o
// without recomputation.
func (o *Object) Copy() (*Object, error) {
	if o.pooled {
		return nil, ErrRestocked
	}
	dst := o.class.acquire()
	if err := dst.initialize(o); err != nil {
		o.reg.restock(dst)
		return nil, err
	}
	return dst, nil
}

// Release returns a root object, and everything only it kept alive, to
// the pools. It panics with *UnboundRestockError if o is still held or is
// a class default.
func (o *Object) Release() {
	if o.permanent {
		panic(&UnboundRestockError{
			Entity:    o,
			Parents:   len(o.node.edges[DependencyEdges].parents),
			Permanent: true,
		})
	}
	o.reg.restock(o)
}

// Released reports whether o went back to its pool.
func (o *Object) Released() bool { return o.pooled }

func (o *Object) slotNotFound(s *slot) error {
	name := "<nil>"
	if s != nil {
		name = s.qualified()
	}
	return fmt.Errorf("%w: %s has no slot %s", ErrSlotNotFound, o.class.name, name)
}

func (o *Object) cellOf(s *slot, kinds ...slotKind) (*slot, int, error) {
	if o.pooled {
		return nil, 0, ErrRestocked
	}
	actual, i, ok := o.class.lookup(s)
	if !ok {
		return nil, 0, o.slotNotFound(s)
	}
	for _, k := range kinds {
		if actual.kind == k {
			return actual, i, nil
		}
	}
	return nil, 0, o.slotNotFound(s)
}

func (o *Object) variableCell(s *slot) (*variableCell, error) {
	_, i, err := o.cellOf(s, kindVariable, kindRef)
	if err != nil {
		return nil, err
	}
	return o.vars[i], nil
}

func (o *Object) collection(s *slot) (*Collection, error) {
	_, i, err := o.cellOf(s, kindCollection)
	if err != nil {
		return nil, err
	}
	return o.colls[i], nil
}

// setRaw wraps v, coalescing it with an equal shared value when the slot
// is content-addressed, and writes it.
func (o *Object) setRaw(s *slot, v any) error {
	actual, i, err := o.cellOf(s, kindVariable)
	if err != nil {
		return err
	}
	return o.write(actual, i, func() Entity {
		r := o.reg
		if actual.shareKey == nil || r.config.DisableSharing {
			return r.acquireValue(v)
		}
		k := actual.shareKey(v)
		if shared, ok := actual.shared.lookup(k); ok {
			r.observe(&Operation{Kind: OpShare, Class: o.class.name, Slot: actual.name, Object: o, Entity: shared, Registry: r})
			return shared
		}
		val := r.acquireValue(v)
		if actual.shared.store(k, val) {
			table := actual.shared
			val.OnRestock(func() error {
				table.purge(val)
				return nil
			})
		}
		return val
	})
}

func (o *Object) setEntity(s *slot, e Entity) error {
	actual, i, err := o.cellOf(s, kindRef)
	if err != nil {
		return err
	}
	if e.base().pooled {
		return ErrRestocked
	}
	return o.write(actual, i, func() Entity { return e })
}

// write replaces the entity held by a variable cell. The new child is
// bound first, so a cycle leaves the graph and every cache unchanged; the
// cell is then expired and the old child released.
func (o *Object) write(s *slot, i int, produce func() Entity) error {
	r := o.reg
	op := &Operation{Kind: OpWrite, Class: o.class.name, Slot: s.name, Object: o, Registry: r}
	_, err := r.run(op, func() (any, error) {
		if err := checkWritable(o, o.class.name, s.name); err != nil {
			return nil, err
		}
		cell := o.vars[i]
		e := produce()
		op.Entity = e
		old := cell.value
		if old == e {
			r.expire(&cell.node)
			return nil, nil
		}
		if err := cell.node.Bind(DependencyEdges, e.Node()); err != nil {
			return nil, err
		}
		r.expire(&cell.node)
		cell.value = e
		if old != nil {
			r.release(cell.node.Unbind(DependencyEdges, old.Node()))
		}
		return nil, nil
	})
	return err
}

// readComputed returns the cached result of a computed cell, resolving
// its parameters and consulting the memo table on a miss.
func (o *Object) readComputed(s *slot, i int) (Entity, error) {
	cc := o.comps[i]
	if cc.result != nil {
		return cc.result, nil
	}
	if cc.computing {
		return nil, fmt.Errorf("%w: %s.%s", ErrReentrantCompute, o.class.name, s.name)
	}
	cc.computing = true
	defer func() { cc.computing = false }()

	r := o.reg
	entry := o.class.comps[i]
	args := make([]any, len(entry.params))
	keys := make(tuple, len(entry.params))
	for j, idx := range entry.params {
		pc, err := o.resolveParam(idx)
		if err != nil {
			return nil, err
		}
		args[j] = pc.value
		keys[j] = pc.key
	}
	key, err := tupleKey(keys)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", o.class.name, s.name, err)
	}

	if hit, ok := s.memo.lookup(key); ok {
		if err := cc.node.Bind(DependencyEdges, hit.Node()); err != nil {
			return nil, err
		}
		cc.result = hit
		r.observe(&Operation{Kind: OpHit, Class: o.class.name, Slot: s.name, Object: o, Entity: hit, Registry: r})
		return hit, nil
	}

	ctx := &ComputeCtx{reg: r, object: o, slot: s.name}
	op := &Operation{Kind: OpCompute, Class: o.class.name, Slot: s.name, Object: o, Registry: r}
	raw, err := r.run(op, func() (any, error) {
		return s.compute(ctx, args)
	})
	if err != nil {
		ctx.discard()
		var ce *ComputeError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, newComputeError(o.class.name, s.name, err)
	}

	e, wrapped, err := r.wrapResult(raw)
	if err != nil {
		ctx.discard()
		return nil, newComputeError(o.class.name, s.name, err)
	}
	for _, fn := range ctx.cleanups {
		e.OnRestock(fn)
	}

	if s.shareKey != nil && !r.config.DisableSharing {
		sk := s.shareKey(rawOf(e))
		if shared, ok := s.shared.lookup(sk); ok && shared != e {
			if len(e.Node().edges[DependencyEdges].parents) == 0 {
				r.restock(e)
			}
			e, wrapped = shared, false
			r.observe(&Operation{Kind: OpShare, Class: o.class.name, Slot: s.name, Object: o, Entity: e, Registry: r})
		} else if !ok {
			if s.shared.store(sk, e) {
				table, shared := s.shared, e
				e.OnRestock(func() error {
					table.purge(shared)
					return nil
				})
			}
		}
	}

	if err := cc.node.Bind(DependencyEdges, e.Node()); err != nil {
		if wrapped {
			r.restock(e)
		}
		return nil, err
	}
	if s.memo.store(key, e) {
		table, result := s.memo, e
		e.OnRestock(func() error {
			table.purge(result)
			return nil
		})
	}
	// A key naming an entity by identity is stale once that entity is
	// restocked, since the pool may hand it out again with new content.
	for _, leaf := range identityLeaves(keys, nil) {
		if s.memo.watch(leaf, key) {
			table := s.memo
			leaf.OnRestock(func() error {
				table.unwatch(leaf)
				return nil
			})
		}
	}
	cc.result = e
	r.logger.Debug("computed", "class", o.class.name, "slot", s.name, "result", describeEntity(e))
	return e, nil
}

// wrapResult turns a compute result into an entity. Raw values are wrapped
// in a pooled *Value.
func (r *Registry) wrapResult(raw any) (Entity, bool, error) {
	if e, ok := raw.(Entity); ok {
		if rv := reflect.ValueOf(e); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, false, ErrNilEntity
		}
		if e.base().pooled {
			return nil, false, ErrRestocked
		}
		return e, false, nil
	}
	return r.acquireValue(raw), true, nil
}

// identityLeaves collects the non-permanent entities a memo key names.
func identityLeaves(t tuple, out []Entity) []Entity {
	for _, x := range t {
		switch x := x.(type) {
		case tuple:
			out = identityLeaves(x, out)
		case Entity:
			if !x.Permanent() {
				out = appendUnique(out, x)
			}
		}
	}
	return out
}

// rawOf unwraps *Value entities; other entities stand for themselves.
func rawOf(e Entity) any {
	if v, ok := e.(*Value); ok {
		return v.value
	}
	return e
}

// resolveParam walks the chain of the idx-th parameter from o and records
// parameter edges to every cell read on the way.
func (o *Object) resolveParam(idx int) (*parameterCell, error) {
	pc := o.params[idx]
	if pc.valid {
		return pc, nil
	}
	var touched []*Node
	value, key, err := o.walkChain(o.class.params[idx].steps, &touched)
	if err != nil {
		return nil, err
	}
	pc.node.detachChildren(ParameterEdges)
	if err := pc.node.Bind(ParameterEdges, touched...); err != nil {
		return nil, err
	}
	pc.value, pc.key, pc.valid = value, key, true
	return pc, nil
}

// walkChain resolves steps from o. It returns the value handed to the
// compute function and its memo-key form. Collections broadcast the rest
// of the chain over their members. Cells are recorded into touched until
// the first computed step; a computed result is readonly, so nothing below
// it can change while it stays cached.
func (o *Object) walkChain(steps []*slot, touched *[]*Node) (any, any, error) {
	actual, i, err := o.cellOf(steps[0], kindVariable, kindRef, kindCollection, kindComputed)
	if err != nil {
		return nil, nil, err
	}
	rest := steps[1:]
	record := func(n *Node) {
		if touched != nil {
			*touched = append(*touched, n)
		}
	}

	switch actual.kind {
	case kindVariable:
		cell := o.vars[i]
		record(&cell.node)
		val, _ := cell.value.(*Value)
		if val == nil {
			return nil, nil, nil
		}
		if actual.shareKey != nil {
			return val.value, val, nil
		}
		return val.value, val.value, nil

	case kindRef:
		cell := o.vars[i]
		record(&cell.node)
		child, _ := cell.value.(*Object)
		if len(rest) == 0 || child == nil {
			return child, child, nil
		}
		return child.walkChain(rest, touched)

	case kindCollection:
		col := o.colls[i]
		record(&col.node)
		values := make(tuple, len(col.members))
		keys := make(tuple, len(col.members))
		for j, m := range col.members {
			if len(rest) == 0 {
				values[j], keys[j] = m, m
				continue
			}
			v, k, err := m.walkChain(rest, touched)
			if err != nil {
				return nil, nil, err
			}
			values[j], keys[j] = v, k
		}
		return values, keys, nil

	case kindComputed:
		record(&o.comps[i].node)
		e, err := o.readComputed(actual, i)
		if err != nil {
			return nil, nil, err
		}
		if len(rest) > 0 {
			child, ok := e.(*Object)
			if !ok {
				return nil, nil, fmt.Errorf("%w: %s returned %s, not an object", ErrTypeMismatch, actual.qualified(), describeEntity(e))
			}
			return child.walkChain(rest, nil)
		}
		if v, ok := e.(*Value); ok && actual.shareKey == nil {
			return v.value, v.value, nil
		}
		return rawOf(e), e, nil
	}
	return nil, nil, o.slotNotFound(steps[0])
}

// GetSlot reads a slot by name: the raw value of a variable or computed
// slot, the child of a Ref, the *Collection of a collection slot.
func (o *Object) GetSlot(name string) (any, error) {
	s, ok := o.class.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrSlotNotFound, o.class.name, name)
	}
	_, i, err := o.cellOf(s, s.kind)
	if err != nil {
		return nil, err
	}
	switch s.kind {
	case kindVariable, kindRef:
		v := o.vars[i].value
		if v == nil {
			return nil, nil
		}
		return rawOf(v), nil
	case kindCollection:
		return o.colls[i], nil
	default:
		e, err := o.readComputed(s, i)
		if err != nil {
			return nil, err
		}
		return rawOf(e), nil
	}
}

// SetSlot writes a variable or Ref slot by name. Computed and collection
// slots are readonly through this API.
func (o *Object) SetSlot(name string, v any) error {
	s, ok := o.class.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrSlotNotFound, o.class.name, name)
	}
	switch s.kind {
	case kindComputed:
		return &ReadonlyWriteError{Class: o.class.name, Slot: name, Reason: "computed slot"}
	case kindCollection:
		return &ReadonlyWriteError{Class: o.class.name, Slot: name, Reason: "collection slot, use Add or Remove"}
	case kindRef:
		child, ok := v.(*Object)
		if !ok || child == nil {
			return &typeError{slot: s, got: fmt.Sprintf("%T", v)}
		}
		return Ref{s: s}.Set(o, child)
	}
	if !assignable(v, s.valueType) {
		return &typeError{slot: s, got: fmt.Sprintf("%T", v)}
	}
	return o.setRaw(s, v)
}

func assignable(v any, t reflect.Type) bool {
	if v == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		}
		return false
	}
	return reflect.TypeOf(v).AssignableTo(t)
}
