package lazy

// Extension provides hooks into the slot lifecycle
type Extension interface {
	// Name returns the extension's name
	Name() string

	// Order determines extension execution order (lower = earlier)
	Order() int

	// Init is called when the extension is registered to a registry
	Init(r *Registry) error

	// Wrap intercepts operations (compute, write)
	Wrap(next func() (any, error), op *Operation) (any, error)

	// Observe is notified of events that are not wrapped (hit, expire, restock)
	Observe(op *Operation)

	// OnError handles errors during computation or writes
	OnError(err error, op *Operation, r *Registry)

	// OnRestockError handles failing restock callbacks
	// Returns true if the error was handled, false to use default behavior
	OnRestockError(err *RestockError) bool

	// Dispose is called when the registry is disposed
	Dispose(r *Registry) error
}

// BaseExtension provides default implementations for Extension methods
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) Init(r *Registry) error {
	return nil
}

func (e *BaseExtension) Wrap(next func() (any, error), op *Operation) (any, error) {
	return next()
}

func (e *BaseExtension) Observe(op *Operation) {
}

func (e *BaseExtension) OnError(err error, op *Operation, r *Registry) {
}

func (e *BaseExtension) OnRestockError(err *RestockError) bool {
	return false
}

func (e *BaseExtension) Dispose(r *Registry) error {
	return nil
}

// Operation describes what operation is happening
type Operation struct {
	Kind     OperationKind
	Class    string
	Slot     string
	Object   *Object
	Entity   Entity
	Registry *Registry
}

// OperationKind represents the type of operation
type OperationKind string

const (
	// OpCompute indicates a computed slot function call (memo miss)
	OpCompute OperationKind = "compute"
	// OpHit indicates a computed slot served from the memo table
	OpHit OperationKind = "hit"
	// OpShare indicates a fresh result coalesced onto a shared one
	OpShare OperationKind = "share"
	// OpWrite indicates a variable or collection write
	OpWrite OperationKind = "write"
	// OpExpire indicates a cached value dropped after a write
	OpExpire OperationKind = "expire"
	// OpRestock indicates an entity returned to its pool
	OpRestock OperationKind = "restock"
)
