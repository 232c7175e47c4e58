package lazy

import (
	"fmt"
	"log/slog"
	"sort"
)

// Registry owns every piece of class-level state: classes, free lists,
// extensions, logger and configuration. Objects of different registries
// never share caches or pools.
//
// A Registry is not safe for concurrent use. All reads and writes happen on
// one logical thread.
type Registry struct {
	logger     *slog.Logger
	config     Config
	extensions []Extension
	pools      *PoolManager
	classes    map[string]*Class
	order      []*Class
	nextID     uint64
	pending    []Extension
}

// RegistryOption is a modifier for registries
type RegistryOption func(*Registry)

// WithLogger returns an option that sets the registry logger
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithConfig returns an option that applies a configuration
func WithConfig(cfg Config) RegistryOption {
	return func(r *Registry) {
		r.config = cfg
	}
}

// WithExtension returns an option that registers an extension to a registry
func WithExtension(ext Extension) RegistryOption {
	return func(r *Registry) {
		r.pending = append(r.pending, ext)
	}
}

// NewRegistry creates a new registry with optional configuration
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:  slog.New(slog.DiscardHandler),
		config:  DefaultConfig(),
		classes: make(map[string]*Class),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.pools = NewPoolManager(r.config.MaxFreeList)

	pending := r.pending
	r.pending = nil
	for _, ext := range pending {
		if err := r.UseExtension(ext); err != nil {
			panic(err)
		}
	}
	return r
}

// Logger returns the registry logger.
func (r *Registry) Logger() *slog.Logger { return r.logger }

// Config returns the active configuration.
func (r *Registry) Config() Config { return r.config }

// Pools returns the registry's pool manager.
func (r *Registry) Pools() *PoolManager { return r.pools }

// Class looks up a class by name.
func (r *Registry) Class(name string) (*Class, bool) {
	c, ok := r.classes[name]
	return c, ok
}

// Classes returns every class in declaration order.
func (r *Registry) Classes() []*Class {
	out := make([]*Class, len(r.order))
	copy(out, r.order)
	return out
}

// UseExtension registers an extension to the registry
func (r *Registry) UseExtension(ext Extension) error {
	r.extensions = append(r.extensions, ext)
	sort.SliceStable(r.extensions, func(i, j int) bool {
		return r.extensions[i].Order() < r.extensions[j].Order()
	})
	return ext.Init(r)
}

// Dispose disposes every extension.
func (r *Registry) Dispose() error {
	for _, ext := range r.extensions {
		if err := ext.Dispose(r); err != nil {
			return fmt.Errorf("disposing extension %s: %w", ext.Name(), err)
		}
	}
	return nil
}

// run chains extensions around next (middleware pattern); the last
// registered wraps first.
func (r *Registry) run(op *Operation, next func() (any, error)) (any, error) {
	for i := len(r.extensions) - 1; i >= 0; i-- {
		ext := r.extensions[i]
		currentNext := next
		next = func() (any, error) {
			return ext.Wrap(currentNext, op)
		}
	}

	result, err := next()
	if err != nil {
		for _, ext := range r.extensions {
			ext.OnError(err, op, r)
		}
	}
	return result, err
}

func (r *Registry) observe(op *Operation) {
	for _, ext := range r.extensions {
		ext.Observe(op)
	}
}

func (r *Registry) reportRestockError(err *RestockError) {
	for _, ext := range r.extensions {
		if ext.OnRestockError(err) {
			return
		}
	}
	r.logger.Error("restock callback failed", "entity", describeEntity(err.Entity), "error", err.Err)
}

func (r *Registry) newID() uint64 {
	r.nextID++
	return r.nextID
}

func (r *Registry) acquireValue(v any) *Value {
	val, ok := r.pools.values.acquire()
	if !ok {
		val = &Value{}
		val.reg = r
		val.id = r.newID()
		val.node.kind = EntityNode
		val.node.entity = val
	}
	val.pooled = false
	val.value = v
	return val
}

func (r *Registry) acquireCollection() *Collection {
	col, ok := r.pools.collections.acquire()
	if !ok {
		col = &Collection{}
		col.reg = r
		col.id = r.newID()
		col.node.kind = EntityNode
		col.node.entity = col
	}
	col.pooled = false
	return col
}

// release restocks every entity among orphans.
func (r *Registry) release(orphans []*Node) {
	for _, n := range orphans {
		if n.entity != nil {
			r.restock(n.entity)
		}
	}
}

// expire marks every computed and parameter cell above n as unset.
// Marking is idempotent, and the ancestor list is a snapshot, so cells
// restocked while the walk runs are harmless.
func (r *Registry) expire(n *Node) {
	for _, a := range n.Ancestors(ParameterEdges) {
		if a.cell != nil {
			a.cell.expire(r)
		}
	}
}
