package lazy

import (
	"fmt"
	"reflect"
	"regexp"
)

var slotNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var entityType = reflect.TypeFor[Entity]()

// Class is a registered kind of Object. Slots are declared on a class with
// the Declare functions, then Register fixes the layout every instance
// replays.
type Class struct {
	name       string
	reg        *Registry
	parent     *Class
	declared   []*slot
	registered bool

	slots  []*slot
	byName map[string]*slot
	known  map[*slot]bool
	pos    map[*slot]int

	vars   []*slot
	colls  []*slot
	params []paramSpec
	comps  []compEntry
}

// compEntry is one computed slot of a registered class and the positions
// of its inputs among the class parameters.
type compEntry struct {
	slot   *slot
	params []int
}

// ClassOption is a modifier for classes
type ClassOption func(*Class)

// Extends makes the class inherit every slot of parent.
func Extends(parent *Class) ClassOption {
	return func(c *Class) {
		c.parent = parent
	}
}

// NewClass declares a class. Class names are unique per registry.
func (r *Registry) NewClass(name string, opts ...ClassOption) *Class {
	if _, exists := r.classes[name]; exists {
		panic(fmt.Sprintf("lazy: class %q declared twice", name))
	}
	c := &Class{name: name, reg: r}
	for _, opt := range opts {
		opt(c)
	}
	if c.parent != nil && c.parent.reg != r {
		panic(fmt.Sprintf("lazy: class %q extends %q of another registry", name, c.parent.name))
	}
	r.classes[name] = c
	r.order = append(r.order, c)
	return c
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// Parent returns the class c extends, or nil.
func (c *Class) Parent() *Class { return c.parent }

// Registered reports whether Register succeeded.
func (c *Class) Registered() bool { return c.registered }

// IsA reports whether c is other or extends it.
func (c *Class) IsA(other *Class) bool {
	for x := c; x != nil; x = x.parent {
		if x == other {
			return true
		}
	}
	return false
}

// SlotNames returns the slot names of a registered class in layout order.
func (c *Class) SlotNames() []string {
	names := make([]string, len(c.slots))
	for i, s := range c.slots {
		names[i] = s.name
	}
	return names
}

func (c *Class) declare(s *slot) {
	if c.registered {
		panic(fmt.Sprintf("lazy: slot %q declared on registered class %q", s.name, c.name))
	}
	c.declared = append(c.declared, s)
}

type classLayout struct {
	slots  []*slot
	byName map[string]*slot
	known  map[*slot]bool
}

// layout gathers inherited and own slots. An own slot named like an
// inherited one replaces it in place.
func (c *Class) layout() (*classLayout, error) {
	if c.registered {
		return &classLayout{slots: c.slots, byName: c.byName, known: c.known}, nil
	}
	l := &classLayout{
		byName: make(map[string]*slot),
		known:  make(map[*slot]bool),
	}
	if c.parent != nil {
		pl, err := c.parent.layout()
		if err != nil {
			return nil, err
		}
		l.slots = append(l.slots, pl.slots...)
		for k, v := range pl.byName {
			l.byName[k] = v
		}
		for k := range pl.known {
			l.known[k] = true
		}
	}

	own := make(map[string]bool, len(c.declared))
	for _, s := range c.declared {
		if !slotNamePattern.MatchString(s.name) {
			return nil, fmt.Errorf("%w: %s.%q", ErrInvalidName, c.name, s.name)
		}
		if own[s.name] {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateSlot, c.name, s.name)
		}
		own[s.name] = true

		if prev, ok := l.byName[s.name]; ok {
			if prev.kind != s.kind || prev.valueType != s.valueType {
				return nil, fmt.Errorf("%w: %s.%s is a %s of %s, %s declares a %s of %s",
					ErrSlotOverride, prev.owner.name, s.name, prev.kind, prev.valueType, c.name, s.kind, s.valueType)
			}
			for i, x := range l.slots {
				if x == prev {
					l.slots[i] = s
				}
			}
		} else {
			l.slots = append(l.slots, s)
		}
		l.byName[s.name] = s
		l.known[s] = true
	}
	return l, nil
}

// Register fixes the slot layout of c, registering its parent first. It
// resolves every parameter chain and rejects computed slots that depend on
// each other. Register is idempotent.
func (c *Class) Register() error {
	if c.registered {
		return nil
	}
	if c.parent != nil {
		if err := c.parent.Register(); err != nil {
			return err
		}
	}
	l, err := c.layout()
	if err != nil {
		return err
	}

	var (
		vars, colls []*slot
		comps       []compEntry
		params      []paramSpec
		paramIndex  = make(map[string]int)
		pos         = make(map[*slot]int, len(l.slots))
	)
	for _, s := range l.slots {
		switch s.kind {
		case kindVariable, kindRef:
			pos[s] = len(vars)
			vars = append(vars, s)
		case kindCollection:
			pos[s] = len(colls)
			colls = append(colls, s)
		case kindComputed:
			pos[s] = len(comps)
			comps = append(comps, compEntry{slot: s})
		}
	}

	for i := range comps {
		entry := &comps[i]
		for _, spec := range entry.slot.inputs {
			if err := c.checkChain(l, entry.slot, spec); err != nil {
				return err
			}
			key := spec.key()
			idx, ok := paramIndex[key]
			if !ok {
				idx = len(params)
				paramIndex[key] = idx
				params = append(params, spec)
			}
			entry.params = append(entry.params, idx)
		}
	}
	if err := c.checkComputedCycles(l, comps); err != nil {
		return err
	}

	c.slots = l.slots
	c.byName = l.byName
	c.known = l.known
	c.pos = pos
	c.vars = vars
	c.colls = colls
	c.params = params
	c.comps = comps
	c.registered = true

	c.reg.logger.Debug("class registered",
		"class", c.name,
		"variables", len(vars),
		"collections", len(colls),
		"parameters", len(params),
		"computed", len(comps),
	)
	return nil
}

// checkChain walks spec by name from c, switching to the element class of
// every object-valued step.
func (c *Class) checkChain(l *classLayout, owner *slot, spec paramSpec) error {
	fail := func(format string, args ...any) error {
		return &UnresolvedChainError{
			Class:  c.name,
			Slot:   owner.name,
			Chain:  spec.names(),
			Reason: fmt.Sprintf(format, args...),
		}
	}
	if len(spec.steps) == 0 {
		return fail("empty chain")
	}

	cur, class := l, c
	for i, step := range spec.steps {
		if step == nil {
			return fail("nil step")
		}
		if !cur.known[step] {
			return fail("%s has no slot %s", class.name, step.qualified())
		}
		found := cur.byName[step.name]
		if i == len(spec.steps)-1 {
			if !leafComparable(found) {
				return fail("%s values of type %s cannot key a memo table", found.qualified(), found.valueType)
			}
			break
		}
		if !found.links() || found.elem == nil {
			return fail("%s does not lead to objects of a known class", found.qualified())
		}
		class = found.elem
		next, err := class.layout()
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

func leafComparable(s *slot) bool {
	switch s.kind {
	case kindRef, kindCollection:
		return true
	case kindVariable:
		return s.shareKey != nil || s.valueType.Comparable()
	case kindComputed:
		return s.shareKey != nil || s.valueType.Implements(entityType) || s.valueType.Comparable()
	}
	return false
}

// checkComputedCycles rejects computed slots of one class that read each
// other directly.
func (c *Class) checkComputedCycles(l *classLayout, comps []compEntry) error {
	deps := make(map[*slot][]*slot, len(comps))
	for _, entry := range comps {
		for _, spec := range entry.slot.inputs {
			first := l.byName[spec.steps[0].name]
			if first.kind == kindComputed {
				deps[entry.slot] = append(deps[entry.slot], first)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*slot]int, len(comps))
	var visit func(s *slot) *slot
	visit = func(s *slot) *slot {
		switch state[s] {
		case visiting:
			return s
		case done:
			return nil
		}
		state[s] = visiting
		for _, d := range deps[s] {
			if culprit := visit(d); culprit != nil {
				return culprit
			}
		}
		state[s] = done
		return nil
	}
	for _, entry := range comps {
		if culprit := visit(entry.slot); culprit != nil {
			return &UnresolvedChainError{
				Class:  c.name,
				Slot:   culprit.name,
				Chain:  []string{culprit.name},
				Reason: "computed slots read each other",
			}
		}
	}
	return nil
}

// lookup maps a descriptor to the slot c actually carries under its name,
// and that slot's position among the cells of its kind.
func (c *Class) lookup(s *slot) (*slot, int, bool) {
	if s == nil || !c.known[s] {
		return nil, 0, false
	}
	actual := c.byName[s.name]
	return actual, c.pos[actual], true
}

// New returns a fresh instance holding the class defaults, taken from the
// class free list when possible.
func (c *Class) New() (*Object, error) {
	if !c.registered {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, c.name)
	}
	o := c.acquire()
	if err := o.initialize(nil); err != nil {
		c.reg.restock(o)
		return nil, err
	}
	return o, nil
}

// MustNew is New that panics on error.
func (c *Class) MustNew() *Object {
	o, err := c.New()
	if err != nil {
		panic(err)
	}
	return o
}

func (c *Class) acquire() *Object {
	o, ok := c.reg.pools.classList(c).acquire()
	if !ok {
		o = newObject(c)
	}
	o.pooled = false
	return o
}
