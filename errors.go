package lazy

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// ErrNotRegistered is returned when instantiating a class before Register.
	ErrNotRegistered = errors.New("class not registered")
	// ErrSlotNotFound is returned when an object does not carry a slot.
	ErrSlotNotFound = errors.New("slot not found")
	// ErrNilEntity is returned when nil is written where an entity is required.
	ErrNilEntity = errors.New("nil entity")
	// ErrInvalidName is returned by Register for malformed slot names.
	ErrInvalidName = errors.New("invalid slot name")
	// ErrDuplicateSlot is returned by Register when a class declares a name twice.
	ErrDuplicateSlot = errors.New("slot declared twice")
	// ErrSlotOverride is returned by Register when an override changes kind or type.
	ErrSlotOverride = errors.New("incompatible slot override")
	// ErrUncomparable is returned when a parameter value cannot be used as a memo key.
	ErrUncomparable = errors.New("parameter value is not comparable")
	// ErrDuplicateMember is returned when adding an object already in a collection.
	ErrDuplicateMember = errors.New("object already in collection")
	// ErrNotMember is returned when removing an object missing from a collection.
	ErrNotMember = errors.New("object not in collection")
	// ErrTypeMismatch is returned by the dynamic slot API for values of the wrong type.
	ErrTypeMismatch = errors.New("value type mismatch")
	// ErrRestocked is returned when using an object after it went back to its pool.
	ErrRestocked = errors.New("object has been restocked")
	// ErrReentrantCompute is returned when a computed slot reads itself while computing.
	ErrReentrantCompute = errors.New("computed slot read while computing")
	// ErrRecursiveDefault is returned when building a default requires that same default.
	ErrRecursiveDefault = errors.New("default depends on itself")
)

// CycleError reports a bind that would make a graph cyclic. The graph is
// left unchanged.
type CycleError struct {
	Kind   EdgeKind
	Parent *Node
	Child  *Node
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("binding %s as %s child of %s would create a cycle",
		describeNode(e.Child), e.Kind, describeNode(e.Parent))
}

// ReadonlyWriteError reports a write to a computed slot, to an object held
// by a computed result, or to a permanent default.
type ReadonlyWriteError struct {
	Class  string
	Slot   string
	Reason string
}

func (e *ReadonlyWriteError) Error() string {
	return fmt.Sprintf("cannot write %s.%s: %s", e.Class, e.Slot, e.Reason)
}

// UnresolvedChainError reports a parameter chain that cannot be matched to
// slots at class registration.
type UnresolvedChainError struct {
	Class  string
	Slot   string
	Chain  []string
	Reason string
}

func (e *UnresolvedChainError) Error() string {
	return fmt.Sprintf("computed %s.%s: cannot resolve input %q: %s",
		e.Class, e.Slot, strings.Join(e.Chain, "."), e.Reason)
}

// UnboundRestockError is raised (as a panic) when an entity is restocked
// while something still references it, or when a permanent default is
// released.
type UnboundRestockError struct {
	Entity    Entity
	Parents   int
	Permanent bool
}

func (e *UnboundRestockError) Error() string {
	if e.Permanent && e.Entity != nil && e.Entity.Permanent() {
		return fmt.Sprintf("restocking %s, a permanent default", describeEntity(e.Entity))
	}
	if e.Permanent {
		return fmt.Sprintf("restocking %s still reachable from a permanent default", describeEntity(e.Entity))
	}
	return fmt.Sprintf("restocking %s still referenced by %d parent(s)", describeEntity(e.Entity), e.Parents)
}

// ComputeError wraps an error returned by a computed slot function.
type ComputeError struct {
	Class      string
	Slot       string
	Cause      error
	StackTrace []byte
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("compute error in %s.%s: %v", e.Class, e.Slot, e.Cause)
}

func (e *ComputeError) Unwrap() error {
	return e.Cause
}

func newComputeError(class, slot string, cause error) *ComputeError {
	return &ComputeError{
		Class:      class,
		Slot:       slot,
		Cause:      cause,
		StackTrace: debug.Stack(),
	}
}

// RestockError contains information about a failing restock callback.
type RestockError struct {
	Entity Entity
	Err    error
}

func (e *RestockError) Error() string {
	return fmt.Sprintf("restock callback of %s: %v", describeEntity(e.Entity), e.Err)
}

func (e *RestockError) Unwrap() error {
	return e.Err
}

func describeNode(n *Node) string {
	if n == nil {
		return "<nil>"
	}
	if n.kind == EntityNode {
		return describeEntity(n.entity)
	}
	if n.owner != nil {
		return fmt.Sprintf("%s.%s(%s)", describeEntity(n.owner), n.slot, n.kind)
	}
	return fmt.Sprintf("%s node %p", n.kind, n)
}

func describeEntity(e Entity) string {
	switch e := e.(type) {
	case nil:
		return "<nil>"
	case *Object:
		return fmt.Sprintf("%s#%d", e.class.name, e.id)
	case *Collection:
		return fmt.Sprintf("Collection#%d", e.id)
	case *Value:
		return fmt.Sprintf("Value#%d(%v)", e.id, e.value)
	}
	return fmt.Sprintf("%T", e)
}

type typeError struct {
	slot *slot
	got  string
}

func (e *typeError) Error() string {
	return "slot " + e.slot.qualified() + ": unexpected " + e.got
}

func (e *typeError) Unwrap() error {
	return ErrTypeMismatch
}
