package lazy

// Tag is a type-safe key for metadata attached to objects. Tags are not
// slots: writing one expires nothing, and they are dropped when the object
// is restocked.
type Tag[T any] struct {
	key string
}

// NewTag creates a new tag with the given key
func NewTag[T any](key string) Tag[T] {
	return Tag[T]{key: key}
}

// Key returns the tag's key (for debugging)
func (t Tag[T]) Key() string {
	return t.key
}

// Get retrieves the tag value from an object
func (t Tag[T]) Get(o *Object) (T, bool) {
	val, ok := o.tags[t]
	if !ok {
		var zero T
		return zero, false
	}
	return val.(T), true
}

// MustGet retrieves the tag value or panics if not found
func (t Tag[T]) MustGet(o *Object) T {
	val, ok := t.Get(o)
	if !ok {
		panic("tag " + t.key + " not found")
	}
	return val
}

// GetOrDefault retrieves the tag value or returns a default
func (t Tag[T]) GetOrDefault(o *Object, defaultVal T) T {
	if val, ok := t.Get(o); ok {
		return val
	}
	return defaultVal
}

// Set stores the tag value on an object
func (t Tag[T]) Set(o *Object, val T) {
	if o.tags == nil {
		o.tags = make(map[any]any)
	}
	o.tags[t] = val
}

// Label names an object in logs and tree drawings.
var Label = NewTag[string]("lazy.label")

// String describes the object by class, id and label.
func (o *Object) String() string {
	if label, ok := Label.Get(o); ok {
		return describeEntity(o) + " " + label
	}
	return describeEntity(o)
}
