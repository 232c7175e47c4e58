package lazy

import (
	"fmt"
	"math"
	"reflect"
)

// tuple is the resolved form of a parameter list. Broadcast parameters
// resolve to nested tuples, one element per collection member.
type tuple []any

// nestedKey marks a nested tuple inside a memo key, so that a nested tuple
// never equals a flat value by accident.
type nestedKey struct {
	v any
}

// nanKey stands for a NaN leaf, which would otherwise never equal itself
// as a map key.
type nanKey struct {
	t reflect.Type
}

var anyType = reflect.TypeFor[any]()

func isNaN(x any) bool {
	switch f := x.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	return false
}

// tupleKey converts t into a comparable value. NaN leaves all map to one
// key per float type. Two tuples yield equal keys
// exactly when they have the same length and pairwise equal elements.
func tupleKey(t tuple) (any, error) {
	arr := reflect.New(reflect.ArrayOf(len(t), anyType)).Elem()
	for i, x := range t {
		switch x := x.(type) {
		case nil:
			continue
		case tuple:
			k, err := tupleKey(x)
			if err != nil {
				return nil, err
			}
			arr.Index(i).Set(reflect.ValueOf(nestedKey{v: k}))
		default:
			rv := reflect.ValueOf(x)
			if isNaN(x) {
				arr.Index(i).Set(reflect.ValueOf(nanKey{t: rv.Type()}))
				continue
			}
			if !rv.Type().Comparable() {
				return nil, fmt.Errorf("%w: %s", ErrUncomparable, rv.Type())
			}
			arr.Index(i).Set(rv)
		}
	}
	return arr.Interface(), nil
}

// twoWayTable maps keys to values and remembers, per value, every key that
// maps to it. Purging a value forgets all of its keys at once.
//
// A table can also watch entities named inside its keys: unwatch drops
// every key recorded for one of them.
type twoWayTable[K comparable, V comparable] struct {
	byKey   map[K]V
	byValue map[V][]K
	leaves  map[V]map[K]struct{}
}

func newTwoWayTable[K comparable, V comparable]() *twoWayTable[K, V] {
	return &twoWayTable[K, V]{
		byKey:   make(map[K]V),
		byValue: make(map[V][]K),
	}
}

func (t *twoWayTable[K, V]) lookup(k K) (V, bool) {
	v, ok := t.byKey[k]
	return v, ok
}

// store maps k to v and reports whether v was not present before.
func (t *twoWayTable[K, V]) store(k K, v V) bool {
	if old, ok := t.byKey[k]; ok {
		if old == v {
			return false
		}
		t.forget(old, k)
	}
	_, present := t.byValue[v]
	t.byKey[k] = v
	t.byValue[v] = append(t.byValue[v], k)
	return !present
}

func (t *twoWayTable[K, V]) forget(v V, k K) {
	keys := removeElement(t.byValue[v], k)
	if len(keys) == 0 {
		delete(t.byValue, v)
		return
	}
	t.byValue[v] = keys
}

// purge removes v and every key mapping to it.
func (t *twoWayTable[K, V]) purge(v V) {
	for _, k := range t.byValue[v] {
		delete(t.byKey, k)
	}
	delete(t.byValue, v)
}

// watch records that k names leaf and reports whether leaf was not watched
// before.
func (t *twoWayTable[K, V]) watch(leaf V, k K) bool {
	if t.leaves == nil {
		t.leaves = make(map[V]map[K]struct{})
	}
	keys, ok := t.leaves[leaf]
	if !ok {
		keys = make(map[K]struct{})
		t.leaves[leaf] = keys
	}
	keys[k] = struct{}{}
	return !ok
}

// unwatch drops every key recorded for leaf.
func (t *twoWayTable[K, V]) unwatch(leaf V) {
	for k := range t.leaves[leaf] {
		t.drop(k)
	}
	delete(t.leaves, leaf)
}

// drop removes the single key k.
func (t *twoWayTable[K, V]) drop(k K) {
	v, ok := t.byKey[k]
	if !ok {
		return
	}
	delete(t.byKey, k)
	t.forget(v, k)
}

// Len returns the number of keys.
func (t *twoWayTable[K, V]) Len() int {
	return len(t.byKey)
}
