package lazy

import (
	"reflect"
)

// Variable is a mutable slot holding a raw value of type T. The value is
// stored wrapped in a *Value entity; fresh instances share one permanent
// default built once per class.
type Variable[T any] struct {
	s *slot
}

// DeclareVariable declares a raw-valued variable slot on c.
func DeclareVariable[T any](c *Class, name string, def func() T, opts ...SlotOption) Variable[T] {
	s := &slot{
		name:      name,
		kind:      kindVariable,
		owner:     c,
		valueType: reflect.TypeFor[T](),
	}
	if def != nil {
		s.newValue = func() any { return def() }
	}
	for _, opt := range opts {
		opt(s)
	}
	c.declare(s)
	return Variable[T]{s: s}
}

// DeclareSharedVariable declares a content-addressed variable: values
// written with equal keys are stored in one shared *Value, restocked only
// when its last owner lets go.
func DeclareSharedVariable[T any, K comparable](c *Class, name string, def func() T, key func(T) K, opts ...SlotOption) Variable[T] {
	return DeclareVariable(c, name, def, append([]SlotOption{ShareBy(key)}, opts...)...)
}

// Name returns the slot name.
func (v Variable[T]) Name() string { return v.s.name }

// Param reads the variable as a computed-slot input.
func (v Variable[T]) Param() Param[T] {
	return Param[T]{spec: paramSpec{steps: []*slot{v.s}}, decode: decodeAs[T]}
}

// Get returns the current value held by o.
func (v Variable[T]) Get(o *Object) (T, error) {
	cell, err := o.variableCell(v.s)
	if err != nil {
		var zero T
		return zero, err
	}
	val, _ := cell.value.(*Value)
	if val == nil {
		var zero T
		return zero, nil
	}
	return decodeAs[T](val.value), nil
}

// MustGet is Get that panics on error.
func (v Variable[T]) MustGet(o *Object) T {
	val, err := v.Get(o)
	if err != nil {
		panic(err)
	}
	return val
}

// Set writes a new value. Every computation derived from the slot is
// expired, even when value equals the current one.
func (v Variable[T]) Set(o *Object, value T) error {
	return o.setRaw(v.s, value)
}

// Ref is a mutable slot holding one child object.
type Ref struct {
	s *slot
}

// DeclareRef declares an object-valued variable slot. def builds the
// class-level default, which is created once and shared by fresh
// instances.
func DeclareRef(c *Class, name string, elem *Class, def func() (*Object, error), opts ...SlotOption) Ref {
	s := &slot{
		name:      name,
		kind:      kindRef,
		owner:     c,
		valueType: reflect.TypeFor[*Object](),
		elem:      elem,
		newRef:    def,
	}
	for _, opt := range opts {
		opt(s)
	}
	c.declare(s)
	return Ref{s: s}
}

// Name returns the slot name.
func (r Ref) Name() string { return r.s.name }

// Param reads the child object as a computed-slot input.
func (r Ref) Param() Param[*Object] {
	return Param[*Object]{spec: paramSpec{steps: []*slot{r.s}}, decode: decodeAs[*Object]}
}

func (r Ref) linkSlot() *slot { return r.s }

// Get returns the child held by o.
func (r Ref) Get(o *Object) (*Object, error) {
	cell, err := o.variableCell(r.s)
	if err != nil {
		return nil, err
	}
	child, _ := cell.value.(*Object)
	return child, nil
}

// Set replaces the child held by o. The previous child is restocked if
// nothing else holds it.
func (r Ref) Set(o *Object, child *Object) error {
	if child == nil {
		return ErrNilEntity
	}
	if r.s.elem != nil && !child.class.IsA(r.s.elem) {
		return &typeError{slot: r.s, got: child.class.name}
	}
	return o.setEntity(r.s, child)
}

// CollectionSlot is a slot holding an ordered collection of objects.
type CollectionSlot struct {
	s *slot
}

// DeclareCollection declares a collection slot. def, if not nil, gives the
// initial members of every fresh instance.
func DeclareCollection(c *Class, name string, elem *Class, def func() ([]*Object, error), opts ...SlotOption) CollectionSlot {
	s := &slot{
		name:       name,
		kind:       kindCollection,
		owner:      c,
		valueType:  reflect.TypeFor[*Collection](),
		elem:       elem,
		newMembers: def,
	}
	for _, opt := range opts {
		opt(s)
	}
	c.declare(s)
	return CollectionSlot{s: s}
}

// Name returns the slot name.
func (cs CollectionSlot) Name() string { return cs.s.name }

// Get returns the collection owned by o.
func (cs CollectionSlot) Get(o *Object) (*Collection, error) {
	return o.collection(cs.s)
}

// Add appends objects to the collection owned by o.
func (cs CollectionSlot) Add(o *Object, objs ...*Object) error {
	col, err := o.collection(cs.s)
	if err != nil {
		return err
	}
	return col.Add(objs...)
}

// Remove drops objects from the collection owned by o.
func (cs CollectionSlot) Remove(o *Object, objs ...*Object) error {
	col, err := o.collection(cs.s)
	if err != nil {
		return err
	}
	return col.Remove(objs...)
}
