package lazy

import "strings"

// paramSpec is the untyped chain of slot descriptors behind a Param.
type paramSpec struct {
	steps []*slot
}

func (p paramSpec) key() string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.name
	}
	return strings.Join(names, ".")
}

func (p paramSpec) names() []string {
	return strings.Split(p.key(), ".")
}

// Param is a typed input of a computed slot: a chain of slot descriptors
// walked from the owning object, decoded to T.
type Param[T any] struct {
	spec   paramSpec
	decode func(any) T
}

func decodeAs[T any](v any) T {
	t, _ := v.(T)
	return t
}

// Via prefixes p with an object-valued step: a Ref, or a computed slot
// declared with ResultClass.
func Via[T any](link Link, p Param[T]) Param[T] {
	steps := make([]*slot, 0, len(p.spec.steps)+1)
	steps = append(steps, link.linkSlot())
	steps = append(steps, p.spec.steps...)
	return Param[T]{spec: paramSpec{steps: steps}, decode: p.decode}
}

// Each broadcasts p over every member of a collection. The resolved value
// mirrors the collection's order.
func Each[T any](cs CollectionSlot, p Param[T]) Param[[]T] {
	steps := make([]*slot, 0, len(p.spec.steps)+1)
	steps = append(steps, cs.s)
	steps = append(steps, p.spec.steps...)
	inner := p.decode
	return Param[[]T]{
		spec: paramSpec{steps: steps},
		decode: func(v any) []T {
			t, _ := v.(tuple)
			out := make([]T, len(t))
			for i, x := range t {
				out[i] = inner(x)
			}
			return out
		},
	}
}

// Members reads the members of a collection as a parameter.
func Members(cs CollectionSlot) Param[[]*Object] {
	return Param[[]*Object]{
		spec: paramSpec{steps: []*slot{cs.s}},
		decode: func(v any) []*Object {
			t, _ := v.(tuple)
			out := make([]*Object, len(t))
			for i, x := range t {
				out[i], _ = x.(*Object)
			}
			return out
		},
	}
}

// Link is a slot a parameter chain can pass through.
type Link interface {
	linkSlot() *slot
}
