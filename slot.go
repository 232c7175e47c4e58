package lazy

import (
	"fmt"
	"reflect"
)

type slotKind uint8

const (
	kindVariable slotKind = iota
	kindRef
	kindCollection
	kindComputed
)

func (k slotKind) String() string {
	switch k {
	case kindVariable:
		return "variable"
	case kindRef:
		return "ref"
	case kindCollection:
		return "collection"
	case kindComputed:
		return "computed"
	}
	return "unknown"
}

// slot is the untyped descriptor behind Variable, Ref, CollectionSlot and
// Computed. It is shared by every class inheriting it, so its tables are
// class-level state.
type slot struct {
	name      string
	kind      slotKind
	owner     *Class
	valueType reflect.Type
	elem      *Class

	newValue   func() any
	newRef     func() (*Object, error)
	newMembers func() ([]*Object, error)
	fallback   Entity
	building   bool

	shareKey func(any) any
	shared   *twoWayTable[any, Entity]

	inputs  []paramSpec
	compute func(ctx *ComputeCtx, args []any) (any, error)
	memo    *twoWayTable[any, Entity]
}

func (s *slot) qualified() string {
	return s.owner.name + "." + s.name
}

// links reports whether a chain may continue past this slot.
func (s *slot) links() bool {
	return s.kind == kindRef || s.kind == kindCollection || (s.kind == kindComputed && s.elem != nil)
}

// defaultEntity returns the class-level default held by fresh instances,
// creating it on first use. Defaults are permanent.
func (s *slot) defaultEntity(r *Registry) (Entity, error) {
	if s.fallback != nil {
		return s.fallback, nil
	}
	if s.building {
		return nil, fmt.Errorf("%w: %s", ErrRecursiveDefault, s.qualified())
	}
	s.building = true
	defer func() { s.building = false }()

	switch s.kind {
	case kindVariable:
		var v any
		if s.newValue != nil {
			v = s.newValue()
		}
		val := r.acquireValue(v)
		val.permanent = true
		s.fallback = val
	case kindRef:
		if s.newRef == nil {
			return nil, ErrNilEntity
		}
		o, err := s.newRef()
		if err != nil {
			return nil, err
		}
		if o == nil {
			return nil, ErrNilEntity
		}
		o.permanent = true
		o.callbacks = nil
		s.fallback = o
	}
	return s.fallback, nil
}

// SlotOption customizes a slot at declaration.
type SlotOption func(*slot)

// ShareBy coalesces computed results (or variable values) whose keys are
// equal onto one shared entity, even when their inputs differ.
func ShareBy[T any, K comparable](key func(T) K) SlotOption {
	return func(s *slot) {
		s.shareKey = func(v any) any {
			t, _ := v.(T)
			return key(t)
		}
		if s.shared == nil {
			s.shared = newTwoWayTable[any, Entity]()
		}
	}
}

// ResultClass declares the class of objects a computed slot returns, which
// lets parameter chains continue through it.
func ResultClass(c *Class) SlotOption {
	return func(s *slot) {
		s.elem = c
	}
}
