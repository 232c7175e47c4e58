package lazy

// Controller provides lifecycle control for one computed slot of one object
type Controller[T any] struct {
	computed Computed[T]
	object   *Object
}

// Control binds a computed slot to an object.
func Control[T any](o *Object, c Computed[T]) *Controller[T] {
	return &Controller[T]{computed: c, object: o}
}

// Get retrieves the latest value (computes if not cached)
func (c *Controller[T]) Get() (T, error) {
	return c.computed.Get(c.object)
}

// Peek retrieves the cached value without computing
func (c *Controller[T]) Peek() (T, bool) {
	return c.computed.Peek(c.object)
}

// Release drops the cached value of this object, and everything of this
// object derived from it. Other objects keep a shared result.
func (c *Controller[T]) Release() error {
	_, i, err := c.object.cellOf(c.computed.s, kindComputed)
	if err != nil {
		return err
	}
	cell := c.object.comps[i]
	c.object.reg.expire(&cell.node)
	cell.expire(c.object.reg)
	return nil
}

// Reload drops the cached value and immediately reads it again. The memo
// table still answers if another object holds the same result.
func (c *Controller[T]) Reload() (T, error) {
	if err := c.Release(); err != nil {
		var zero T
		return zero, err
	}
	return c.Get()
}

// IsCached checks if the value is currently cached
func (c *Controller[T]) IsCached() bool {
	_, ok := c.Peek()
	return ok
}
