package lazy

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_PoolReuse(t *testing.T) {
	s := newScene(t)

	c := s.circle.MustNew()
	id := c.ID()
	c.Release()
	assert.True(t, c.Released())

	again := s.circle.MustNew()
	assert.Same(t, c, again)
	assert.Equal(t, id, again.ID())
	assert.False(t, again.Released())
	assert.InDelta(t, 1.0, s.radius.MustGet(again), 0, "a recycled instance starts from the defaults")

	stats := s.reg.Pools().ClassStats(s.circle)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Restocks)
}

func TestObject_UnbindingLastParentRestocks(t *testing.T) {
	s := newScene(t)
	g := s.group.MustNew()
	c := s.newCircle(t, 2)
	require.NoError(t, s.shapes.Add(g, c))

	require.NoError(t, s.shapes.Remove(g, c))
	assert.True(t, c.Released())
	assert.Same(t, c, s.circle.MustNew(), "the next acquisition recycles the instance")
}

func TestObject_ReleaseStillReferencedPanics(t *testing.T) {
	s := newScene(t)
	g := s.group.MustNew()
	c := s.circle.MustNew()
	require.NoError(t, s.shapes.Add(g, c))

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(*UnboundRestockError)
		require.True(t, ok, "panic value is %T", r)
		assert.Equal(t, 1, err.Parents)
		assert.False(t, c.Released())
	}()
	c.Release()
}

func TestObject_ReleasePermanentDefaultPanics(t *testing.T) {
	s := newScene(t)
	holder := s.reg.NewClass("Holder")
	shape := DeclareRef(holder, "shape", s.circle, s.circle.New)
	require.NoError(t, holder.Register())

	def, err := shape.Get(holder.MustNew())
	require.NoError(t, err)
	require.True(t, def.Permanent())

	defer func() {
		r := recover()
		require.NotNil(t, r, "releasing a class default must not be a no-op")
		err, ok := r.(*UnboundRestockError)
		require.True(t, ok, "panic value is %T", r)
		assert.True(t, err.Permanent)
		assert.Contains(t, err.Error(), "permanent default")
		assert.False(t, def.Released())
	}()
	def.Release()
}

func TestObject_UseAfterRelease(t *testing.T) {
	s := newScene(t)
	c := s.circle.MustNew()
	c.Release()

	_, err := s.radius.Get(c)
	assert.ErrorIs(t, err, ErrRestocked)
	_, err = s.area.Get(c)
	assert.ErrorIs(t, err, ErrRestocked)
	_, err = c.Copy()
	assert.ErrorIs(t, err, ErrRestocked)
}

func TestObject_RestockCallbacksRunInReverse(t *testing.T) {
	s := newScene(t)
	c := s.circle.MustNew()

	var order []int
	for i := 1; i <= 3; i++ {
		c.OnRestock(func() error {
			order = append(order, i)
			return nil
		})
	}
	c.Release()
	assert.Equal(t, []int{3, 2, 1}, order)

	order = nil
	again := s.circle.MustNew()
	again.Release()
	assert.Empty(t, order, "callbacks are cleared on restock")
}

func TestObject_RestockCallbackErrorsReachExtensions(t *testing.T) {
	rec := &recordingExtension{BaseExtension: NewBaseExtension("rec"), handle: true}
	s := newScene(t, WithExtension(rec))
	c := s.circle.MustNew()
	boom := errors.New("gpu buffer busy")
	ran := false
	c.OnRestock(func() error { return boom })
	c.OnRestock(func() error {
		ran = true
		return nil
	})

	c.Release()
	assert.True(t, ran, "a failing callback does not stop the others")
	require.Len(t, rec.restockErrors, 1)
	assert.ErrorIs(t, rec.restockErrors[0], boom)
	assert.Same(t, c, rec.restockErrors[0].Entity)
}

func TestObject_Copy(t *testing.T) {
	s := newScene(t)

	t.Run("shares children and transplants results", func(t *testing.T) {
		c := s.newCircle(t, 3)
		area := s.area.MustGet(c)
		calls := s.calls["area"]

		dup, err := c.Copy()
		require.NoError(t, err)
		assert.NotSame(t, c, dup)
		assert.Same(t, c.vars[0].value, dup.vars[0].value)

		got, ok := s.area.Peek(dup)
		assert.True(t, ok)
		assert.Equal(t, area, got)
		assert.Equal(t, calls, s.calls["area"], "copying never computes")

		require.NoError(t, s.radius.Set(dup, 4))
		_, ok = s.area.Peek(dup)
		assert.False(t, ok, "the copy's parameter edges were rebuilt")
		_, ok = s.area.Peek(c)
		assert.True(t, ok)
		assert.InDelta(t, 16*math.Pi, s.area.MustGet(dup), 1e-12)
	})

	t.Run("collections are new with the same members", func(t *testing.T) {
		g := s.group.MustNew()
		c1, c2 := s.newCircle(t, 1), s.newCircle(t, 2)
		require.NoError(t, s.shapes.Add(g, c1, c2))
		assert.Equal(t, 2, s.count.MustGet(g))

		dup, err := g.Copy()
		require.NoError(t, err)
		orig, err := s.shapes.Get(g)
		require.NoError(t, err)
		copied, err := s.shapes.Get(dup)
		require.NoError(t, err)
		assert.NotSame(t, orig, copied)
		assert.Equal(t, orig.Members(), copied.Members())

		require.NoError(t, s.shapes.Remove(dup, c1))
		assert.False(t, c1.Released(), "g still holds c1")
		assert.Equal(t, 1, s.count.MustGet(dup))
		assert.Equal(t, 2, s.count.MustGet(g))
	})
}

func TestObject_ReadonlyWrites(t *testing.T) {
	reg := NewRegistry()
	point := reg.NewClass("Point")
	x := DeclareVariable(point, "x", func() float64 { return 0 })
	require.NoError(t, point.Register())

	segment := reg.NewClass("Segment")
	start := DeclareRef(segment, "start", point, point.New)
	length := DeclareVariable(segment, "length", func() float64 { return 1 })
	end := DeclareComputed2(segment, "end", Via(start, x.Param()), length.Param(),
		func(ctx *ComputeCtx, x0, l float64) (*Object, error) {
			p, err := point.New()
			if err != nil {
				return nil, err
			}
			return p, x.Set(p, x0+l)
		}, ResultClass(point))
	require.NoError(t, segment.Register())

	seg := segment.MustNew()
	e, err := end.Get(seg)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, x.MustGet(e), 0)

	var ro *ReadonlyWriteError

	err = x.Set(e, 10)
	require.ErrorAs(t, err, &ro)
	assert.Contains(t, ro.Reason, "computed")

	def, err := start.Get(seg)
	require.NoError(t, err)
	assert.True(t, def.Permanent())
	err = x.Set(def, 10)
	require.ErrorAs(t, err, &ro)
	assert.Equal(t, "permanent default", ro.Reason)

	err = seg.SetSlot("end", e)
	require.ErrorAs(t, err, &ro)
	assert.Equal(t, "computed slot", ro.Reason)

	p := point.MustNew()
	require.NoError(t, x.Set(p, 5))
	require.NoError(t, start.Set(seg, p))
	e2, err := end.Get(seg)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, x.MustGet(e2), 0)
	assert.True(t, e.Released(), "the previous end point had no other owner")
}

func TestObject_ChainsThroughRefsAndComputedResults(t *testing.T) {
	s := newScene(t)
	holder := s.reg.NewClass("Holder")
	shape := DeclareRef(holder, "shape", s.circle, s.circle.New)
	doubled := DeclareComputed1(holder, "doubled", Via(shape, s.area.Param()),
		func(ctx *ComputeCtx, a float64) (float64, error) { return 2 * a, nil })
	require.NoError(t, holder.Register())

	h := holder.MustNew()
	assert.InDelta(t, 2*math.Pi, doubled.MustGet(h), 1e-12)

	c := s.newCircle(t, 2)
	require.NoError(t, shape.Set(h, c))
	assert.InDelta(t, 8*math.Pi, doubled.MustGet(h), 1e-12)

	require.NoError(t, s.radius.Set(c, 3))
	_, ok := doubled.Peek(h)
	assert.False(t, ok, "writes below a Ref expire the holder")
	assert.InDelta(t, 18*math.Pi, doubled.MustGet(h), 1e-12)

	require.ErrorIs(t, shape.Set(h, nil), ErrNilEntity)
	other := s.group.MustNew()
	require.ErrorIs(t, shape.Set(h, other), ErrTypeMismatch)
}

func TestObject_RefCycleIsRejected(t *testing.T) {
	reg := NewRegistry()
	leaf := reg.NewClass("Leaf")
	require.NoError(t, leaf.Register())
	link := reg.NewClass("Link")
	next := DeclareRef(link, "next", nil, leaf.New)
	require.NoError(t, link.Register())

	a, b := link.MustNew(), link.MustNew()
	require.NoError(t, next.Set(a, b))
	before := snapshot(DependencyEdges, append(a.Node().Descendants(DependencyEdges), a.Node())...)

	var cycle *CycleError
	require.ErrorAs(t, next.Set(b, a), &cycle)
	require.ErrorAs(t, next.Set(a, a), &cycle)

	after := snapshot(DependencyEdges, append(a.Node().Descendants(DependencyEdges), a.Node())...)
	assert.Equal(t, before, after)
	got, err := next.Get(b)
	require.NoError(t, err)
	assert.True(t, got.Permanent(), "b keeps its default")
}

func TestObject_SharedVariable(t *testing.T) {
	reg := NewRegistry()
	mesh := reg.NewClass("Mesh")
	verts := DeclareSharedVariable(mesh, "vertices", func() []float64 { return nil },
		func(v []float64) string { return fmt.Sprint(v) })
	calls := 0
	size := DeclareComputed1(mesh, "size", verts.Param(), func(ctx *ComputeCtx, v []float64) (int, error) {
		calls++
		return len(v), nil
	})
	require.NoError(t, mesh.Register())

	a, b := mesh.MustNew(), mesh.MustNew()
	require.NoError(t, verts.Set(a, []float64{1, 2, 3}))
	require.NoError(t, verts.Set(b, []float64{1, 2, 3}))
	assert.Same(t, a.vars[0].value, b.vars[0].value)
	assert.Equal(t, 1, verts.s.shared.Len())

	assert.Equal(t, 3, size.MustGet(a))
	assert.Equal(t, 3, size.MustGet(b))
	assert.Equal(t, 1, calls)

	shared := a.vars[0].value
	a.Release()
	assert.False(t, shared.base().pooled, "b still holds the shared value")
	b.Release()
	assert.True(t, shared.base().pooled)
	assert.Equal(t, 0, verts.s.shared.Len())
}

func TestObject_DynamicSlotAccess(t *testing.T) {
	s := newScene(t)
	c := s.circle.MustNew()

	require.NoError(t, c.SetSlot("radius", 2.0))
	v, err := c.GetSlot("radius")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	v, err = c.GetSlot("area")
	require.NoError(t, err)
	assert.InDelta(t, 4*math.Pi, v, 1e-12)

	assert.ErrorIs(t, c.SetSlot("radius", "big"), ErrTypeMismatch)
	assert.ErrorIs(t, c.SetSlot("diameter", 1.0), ErrSlotNotFound)
	_, err = c.GetSlot("diameter")
	assert.ErrorIs(t, err, ErrSlotNotFound)

	g := s.group.MustNew()
	var ro *ReadonlyWriteError
	assert.ErrorAs(t, g.SetSlot("shapes", nil), &ro)
	col, err := g.GetSlot("shapes")
	require.NoError(t, err)
	assert.IsType(t, &Collection{}, col)
}

func TestObject_SlotOfAnotherClass(t *testing.T) {
	s := newScene(t)
	g := s.group.MustNew()

	_, err := s.radius.Get(g)
	assert.ErrorIs(t, err, ErrSlotNotFound)
	_, err = s.area.Get(g)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestCollection_AddRejectsBadMembers(t *testing.T) {
	s := newScene(t)
	g := s.group.MustNew()
	c := s.circle.MustNew()
	require.NoError(t, s.shapes.Add(g, c))

	assert.ErrorIs(t, s.shapes.Add(g, c), ErrDuplicateMember)
	assert.ErrorIs(t, s.shapes.Add(g, nil), ErrNilEntity)
	assert.ErrorIs(t, s.shapes.Add(g, s.group.MustNew()), ErrTypeMismatch)
	assert.ErrorIs(t, s.shapes.Remove(g, s.circle.MustNew()), ErrNotMember)

	col, err := s.shapes.Get(g)
	require.NoError(t, err)
	assert.Equal(t, 1, col.Len())
	assert.Same(t, c, col.At(0))
}

func TestTag_ClearedOnRestock(t *testing.T) {
	s := newScene(t)
	c := s.circle.MustNew()
	Label.Set(c, "unit")
	assert.Equal(t, "unit", Label.MustGet(c))
	assert.Contains(t, c.String(), "Circle#")

	c.Release()
	again := s.circle.MustNew()
	_, ok := Label.Get(again)
	assert.False(t, ok)
	assert.Equal(t, "none", Label.GetOrDefault(again, "none"))
}
