package lazy

import "sort"

// freeList is a LIFO list of restocked entities of one concrete kind.
type freeList[T Entity] struct {
	name  string
	items []T
	limit int

	hits     uint64
	misses   uint64
	restocks uint64
	dropped  uint64
}

func (f *freeList[T]) acquire() (T, bool) {
	if n := len(f.items); n > 0 {
		item := f.items[n-1]
		f.items = f.items[:n-1]
		f.hits++
		return item, true
	}
	f.misses++
	var zero T
	return zero, false
}

func (f *freeList[T]) release(item T) {
	f.restocks++
	if f.limit > 0 && len(f.items) >= f.limit {
		f.dropped++
		return
	}
	f.items = append(f.items, item)
}

func (f *freeList[T]) stats() PoolStats {
	return PoolStats{
		Name:     f.name,
		Free:     len(f.items),
		Hits:     f.hits,
		Misses:   f.misses,
		Restocks: f.restocks,
		Dropped:  f.dropped,
	}
}

func (f *freeList[T]) reset() {
	f.hits, f.misses, f.restocks, f.dropped = 0, 0, 0, 0
}

// PoolStats is a snapshot of one free list.
type PoolStats struct {
	Name     string
	Free     int
	Hits     uint64
	Misses   uint64
	Restocks uint64
	Dropped  uint64
}

// PoolManager owns every free list of a Registry: one per class, plus one
// for wrapped values and one for collections.
type PoolManager struct {
	limit       int
	values      *freeList[*Value]
	collections *freeList[*Collection]
	classes     map[*Class]*freeList[*Object]
}

// NewPoolManager creates a pool manager whose free lists hold at most limit
// entities each; zero means unbounded.
func NewPoolManager(limit int) *PoolManager {
	return &PoolManager{
		limit:       limit,
		values:      &freeList[*Value]{name: "value", limit: limit},
		collections: &freeList[*Collection]{name: "collection", limit: limit},
		classes:     make(map[*Class]*freeList[*Object]),
	}
}

func (pm *PoolManager) classList(c *Class) *freeList[*Object] {
	fl, ok := pm.classes[c]
	if !ok {
		fl = &freeList[*Object]{name: c.name, limit: pm.limit}
		pm.classes[c] = fl
	}
	return fl
}

func (pm *PoolManager) release(e Entity) {
	switch x := e.(type) {
	case *Object:
		pm.classList(x.class).release(x)
	case *Collection:
		pm.collections.release(x)
	case *Value:
		pm.values.release(x)
	}
}

// Stats returns a snapshot of every free list, sorted by name.
func (pm *PoolManager) Stats() []PoolStats {
	out := []PoolStats{pm.values.stats(), pm.collections.stats()}
	for _, fl := range pm.classes {
		out = append(out, fl.stats())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ClassStats returns the free-list snapshot of one class.
func (pm *PoolManager) ClassStats(c *Class) PoolStats {
	return pm.classList(c).stats()
}

// ResetMetrics zeroes the counters of every free list.
func (pm *PoolManager) ResetMetrics() {
	pm.values.reset()
	pm.collections.reset()
	for _, fl := range pm.classes {
		fl.reset()
	}
}
