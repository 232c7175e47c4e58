package lazy

import "fmt"

// Collection is an ordered sequence of objects owned by one collection
// slot. Insertion order is significant. Adding or removing members expires
// every computation derived from the collection.
type Collection struct {
	entityBase
	owner   *Object
	slot    string
	elem    *Class
	members []*Object
}

// Len returns the number of members.
func (c *Collection) Len() int { return len(c.members) }

// At returns the i-th member.
func (c *Collection) At(i int) *Object { return c.members[i] }

// Members returns a snapshot of the members.
func (c *Collection) Members() []*Object {
	out := make([]*Object, len(c.members))
	copy(out, c.members)
	return out
}

// Contains reports whether o is a member.
func (c *Collection) Contains(o *Object) bool {
	for _, m := range c.members {
		if m == o {
			return true
		}
	}
	return false
}

func (c *Collection) className() string {
	if c.owner != nil {
		return c.owner.class.name
	}
	return "Collection"
}

// Add appends objects. Nothing changes if any of them is nil, already a
// member, or would create a cycle.
func (c *Collection) Add(objs ...*Object) error {
	if len(objs) == 0 {
		return nil
	}
	op := &Operation{Kind: OpWrite, Class: c.className(), Slot: c.slot, Object: c.owner, Entity: c, Registry: c.reg}
	_, err := c.reg.run(op, func() (any, error) {
		if err := checkWritable(c, c.className(), c.slot); err != nil {
			return nil, err
		}
		nodes := make([]*Node, 0, len(objs))
		seen := make(map[*Object]bool, len(objs))
		for _, o := range objs {
			if o == nil {
				return nil, ErrNilEntity
			}
			if err := c.accepts(o); err != nil {
				return nil, err
			}
			if seen[o] || c.Contains(o) {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateMember, describeEntity(o))
			}
			seen[o] = true
			nodes = append(nodes, o.Node())
		}
		if err := c.node.Bind(DependencyEdges, nodes...); err != nil {
			return nil, err
		}
		c.reg.expire(&c.node)
		c.members = append(c.members, objs...)
		return nil, nil
	})
	return err
}

// Remove drops objects. Members left without any other owner are
// restocked.
func (c *Collection) Remove(objs ...*Object) error {
	if len(objs) == 0 {
		return nil
	}
	op := &Operation{Kind: OpWrite, Class: c.className(), Slot: c.slot, Object: c.owner, Entity: c, Registry: c.reg}
	_, err := c.reg.run(op, func() (any, error) {
		if err := checkWritable(c, c.className(), c.slot); err != nil {
			return nil, err
		}
		for _, o := range objs {
			if !c.Contains(o) {
				return nil, fmt.Errorf("%w: %s", ErrNotMember, describeEntity(o))
			}
		}
		c.reg.expire(&c.node)
		nodes := make([]*Node, 0, len(objs))
		for _, o := range objs {
			c.members = removeElement(c.members, o)
			nodes = append(nodes, o.Node())
		}
		c.reg.release(c.node.Unbind(DependencyEdges, nodes...))
		return nil, nil
	})
	return err
}

// fill sets the initial members of a fresh collection. No computation can
// depend on it yet, so nothing is expired.
func (c *Collection) fill(objs []*Object) error {
	nodes := make([]*Node, 0, len(objs))
	seen := make(map[*Object]bool, len(objs))
	for _, o := range objs {
		if o == nil {
			return ErrNilEntity
		}
		if err := c.accepts(o); err != nil {
			return err
		}
		if seen[o] {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, describeEntity(o))
		}
		seen[o] = true
		nodes = append(nodes, o.Node())
	}
	if err := c.node.Bind(DependencyEdges, nodes...); err != nil {
		return err
	}
	c.members = append(c.members, objs...)
	return nil
}

func (c *Collection) accepts(o *Object) error {
	if o.pooled {
		return ErrRestocked
	}
	if c.elem != nil && !o.class.IsA(c.elem) {
		return fmt.Errorf("%w: %s is not a %s", ErrTypeMismatch, describeEntity(o), c.elem.name)
	}
	return nil
}

func (c *Collection) clear() []*Node {
	nodes := make([]*Node, 0, len(c.members))
	for _, m := range c.members {
		nodes = append(nodes, m.Node())
	}
	c.members = nil
	c.owner = nil
	c.slot = ""
	c.elem = nil
	return c.node.Unbind(DependencyEdges, nodes...)
}
