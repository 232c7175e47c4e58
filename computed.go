package lazy

import "reflect"

// Computed is a readonly slot whose value is derived from its inputs by a
// pure function. Results are memoized per class on the resolved inputs, so
// objects with equal inputs share one result entity.
type Computed[T any] struct {
	s *slot
}

func declareComputed[T any](c *Class, name string, inputs []paramSpec, call func(*ComputeCtx, []any) (T, error), opts []SlotOption) Computed[T] {
	s := &slot{
		name:      name,
		kind:      kindComputed,
		owner:     c,
		valueType: reflect.TypeFor[T](),
		inputs:    inputs,
		memo:      newTwoWayTable[any, Entity](),
		compute: func(ctx *ComputeCtx, args []any) (any, error) {
			return call(ctx, args)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	c.declare(s)
	return Computed[T]{s: s}
}

// DeclareComputedN declares a computed slot over any number of inputs of
// one type.
func DeclareComputedN[T any, A any](
	c *Class,
	name string,
	inputs []Param[A],
	fn func(*ComputeCtx, []A) (T, error),
	opts ...SlotOption,
) Computed[T] {
	specs := make([]paramSpec, len(inputs))
	for i, p := range inputs {
		specs[i] = p.spec
	}
	return declareComputed(c, name, specs, func(ctx *ComputeCtx, args []any) (T, error) {
		vals := make([]A, len(args))
		for i, a := range args {
			vals[i] = inputs[i].decode(a)
		}
		return fn(ctx, vals)
	}, opts)
}

// Name returns the slot name.
func (cp Computed[T]) Name() string { return cp.s.name }

// Param reads the computed value as an input of another computed slot.
func (cp Computed[T]) Param() Param[T] {
	return Param[T]{spec: paramSpec{steps: []*slot{cp.s}}, decode: decodeAs[T]}
}

func (cp Computed[T]) linkSlot() *slot { return cp.s }

// Get returns the value of o, computing it on a cache miss.
func (cp Computed[T]) Get(o *Object) (T, error) {
	e, err := cp.Entity(o)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeAs[T](rawOf(e)), nil
}

// MustGet is Get that panics on error.
func (cp Computed[T]) MustGet(o *Object) T {
	val, err := cp.Get(o)
	if err != nil {
		panic(err)
	}
	return val
}

// Entity returns the result entity of o, computing it on a cache miss.
func (cp Computed[T]) Entity(o *Object) (Entity, error) {
	actual, i, err := o.cellOf(cp.s, kindComputed)
	if err != nil {
		return nil, err
	}
	return o.readComputed(actual, i)
}

// Peek returns the cached value of o without computing.
func (cp Computed[T]) Peek(o *Object) (T, bool) {
	var zero T
	_, i, err := o.cellOf(cp.s, kindComputed)
	if err != nil {
		return zero, false
	}
	res := o.comps[i].result
	if res == nil {
		return zero, false
	}
	return decodeAs[T](rawOf(res)), true
}

// MemoSize returns the number of input tuples currently memoized for the
// slot across every object of the class.
func (cp Computed[T]) MemoSize() int {
	return cp.s.memo.Len()
}
