package lazy

import "log/slog"

// ComputeCtx provides context for compute functions
type ComputeCtx struct {
	reg      *Registry
	object   *Object
	slot     string
	cleanups []func() error
}

// OnRestock registers a cleanup function to be called when the computed
// result goes back to its pool. A result shared by several owners restocks
// once, after the last of them lets go.
func (ctx *ComputeCtx) OnRestock(fn func() error) {
	ctx.cleanups = append(ctx.cleanups, fn)
}

// Registry returns the registry the computation runs in.
func (ctx *ComputeCtx) Registry() *Registry { return ctx.reg }

// Object returns the object whose slot is being computed. Memoized results
// are shared with other objects, so the result must not depend on it
// beyond the declared inputs.
func (ctx *ComputeCtx) Object() *Object { return ctx.object }

// Slot returns the name of the slot being computed.
func (ctx *ComputeCtx) Slot() string { return ctx.slot }

// Logger returns the registry logger scoped to the slot.
func (ctx *ComputeCtx) Logger() *slog.Logger {
	return ctx.reg.logger.With("class", ctx.object.class.name, "slot", ctx.slot)
}

// discard runs the cleanups of a computation whose result was dropped.
func (ctx *ComputeCtx) discard() {
	cleanups := ctx.cleanups
	ctx.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i](); err != nil {
			ctx.reg.logger.Error("cleanup of failed computation", "slot", ctx.slot, "error", err)
		}
	}
}

// GetTag retrieves a typed tag of the object being computed
func GetTag[T any](ctx *ComputeCtx, tag Tag[T]) (T, bool) {
	return tag.Get(ctx.object)
}

// GetTagOrDefault retrieves a typed tag or returns a default value
func GetTagOrDefault[T any](ctx *ComputeCtx, tag Tag[T], defaultVal T) T {
	return tag.GetOrDefault(ctx.object, defaultVal)
}
