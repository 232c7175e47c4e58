package extensions

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lazy "github.com/pumped-fn/lazy-go"
)

// scene registers circles with an area and groups with a total area.
type scene struct {
	reg    *lazy.Registry
	circle *lazy.Class
	radius lazy.Variable[float64]
	area   lazy.Computed[float64]
	group  *lazy.Class
	shapes lazy.CollectionSlot
	total  lazy.Computed[float64]
}

var errNegative = errors.New("negative radius")

func newScene(t *testing.T, exts ...lazy.Extension) *scene {
	t.Helper()
	opts := []lazy.RegistryOption{}
	for _, ext := range exts {
		opts = append(opts, lazy.WithExtension(ext))
	}
	s := &scene{reg: lazy.NewRegistry(opts...)}

	s.circle = s.reg.NewClass("Circle")
	s.radius = lazy.DeclareVariable(s.circle, "radius", func() float64 { return 1 })
	s.area = lazy.DeclareComputed1(s.circle, "area", s.radius.Param(),
		func(ctx *lazy.ComputeCtx, r float64) (float64, error) {
			if r < 0 {
				return 0, errNegative
			}
			return math.Pi * r * r, nil
		})

	s.group = s.reg.NewClass("Group")
	s.shapes = lazy.DeclareCollection(s.group, "shapes", s.circle, nil)
	s.total = lazy.DeclareComputed1(s.group, "total", lazy.Each(s.shapes, s.area.Param()),
		func(ctx *lazy.ComputeCtx, areas []float64) (float64, error) {
			sum := 0.0
			for _, a := range areas {
				sum += a
			}
			return sum, nil
		})

	require.NoError(t, s.circle.Register())
	require.NoError(t, s.group.Register())
	return s
}

func TestRenderTree(t *testing.T) {
	s := newScene(t)
	g := s.group.MustNew()
	lazy.Label.Set(g, "root")
	c := s.circle.MustNew()
	lazy.Label.Set(c, "first")
	require.NoError(t, s.shapes.Add(g, c))

	before := RenderTree(g)
	assert.Contains(t, before, "root")
	assert.Contains(t, before, "first")
	assert.Contains(t, before, "total = ?")
	assert.Contains(t, before, "[default]", "the radius is the class default")

	s.total.MustGet(g)
	after := RenderTree(g)
	assert.Contains(t, after, "total =")
	assert.NotContains(t, after, "total = ?")
	assert.Contains(t, after, "area =", "reading the total computed the member area")
}

func TestRenderTree_SharedEntityExpandedOnce(t *testing.T) {
	s := newScene(t)
	g := s.group.MustNew()
	a, b := s.circle.MustNew(), s.circle.MustNew()
	require.NoError(t, s.shapes.Add(g, a, b))
	s.area.MustGet(a)
	s.area.MustGet(b)

	out := RenderTree(g)
	assert.Contains(t, out, "(shared)", "both circles hold the default radius and the same area")
}

func TestGraphDebugExtension_OnError(t *testing.T) {
	var buf bytes.Buffer
	ext := NewGraphDebugExtension(NewHumanHandler(&buf, slog.LevelError))
	s := newScene(t, ext)

	c := s.circle.MustNew()
	lazy.Label.Set(c, "broken")
	require.NoError(t, s.radius.Set(c, -1))

	_, err := s.area.Get(c)
	require.ErrorIs(t, err, errNegative)

	output := buf.String()
	assert.Contains(t, output, "======================================================================")
	assert.Contains(t, output, "[GraphDebug] Slot Operation Error")
	assert.Contains(t, output, "Failed Slot: Circle.area")
	assert.Contains(t, output, "Error: negative radius")
	assert.Contains(t, output, "Operation: compute")
	assert.Contains(t, output, "Object: Circle#")
	assert.Contains(t, output, "broken")
	assert.Contains(t, output, "Dependency Tree:")
	assert.Contains(t, output, "Failed Slots:")

	assert.ErrorIs(t, ext.Failure("Circle.area"), errNegative)
	assert.Equal(t, 0, ext.Computed("Circle.area"))

	require.NoError(t, s.radius.Set(c, 2))
	s.area.MustGet(c)
	assert.NoError(t, ext.Failure("Circle.area"))
	assert.Equal(t, 1, ext.Computed("Circle.area"))
}

func TestGraphDebugExtension_Silent(t *testing.T) {
	ext := NewGraphDebugExtension(NewSilentHandler())
	s := newScene(t, ext)
	c := s.circle.MustNew()
	require.NoError(t, s.radius.Set(c, -1))
	_, err := s.area.Get(c)
	assert.Error(t, err)
	assert.Error(t, ext.Failure("Circle.area"))
}

func TestHumanHandler_DefaultFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHumanHandler(&buf, slog.LevelInfo))
	logger.Info("hello", "key", "value")
	logger.Debug("hidden")

	assert.Equal(t, "[INFO] hello\n  key: value\n", buf.String())
}

func TestLoggingExtension(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := newScene(t, NewLoggingExtension(logger))

	c := s.circle.MustNew()
	s.area.MustGet(c)
	require.NoError(t, s.radius.Set(c, -2))
	_, err := s.area.Get(c)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "operation completed")
	assert.Contains(t, out, "op=compute")
	assert.Contains(t, out, "op=expire")
	assert.Contains(t, out, "operation failed")
	assert.Contains(t, out, "negative radius")
}

func TestLoggingExtension_HandlesRestockErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := newScene(t, NewLoggingExtension(logger))

	c := s.circle.MustNew()
	c.OnRestock(func() error { return errors.New("device lost") })
	c.Release()

	assert.Contains(t, buf.String(), "restock callback failed")
	assert.Contains(t, buf.String(), "device lost")
}

func TestLoggingExtension_DefaultsToRegistryLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg := lazy.NewRegistry(lazy.WithLogger(logger), lazy.WithExtension(NewLoggingExtension(nil)))
	c := reg.NewClass("Thing")
	n := lazy.DeclareVariable(c, "n", func() int { return 0 })
	require.NoError(t, c.Register())

	require.NoError(t, n.Set(c.MustNew(), 1))
	assert.Contains(t, buf.String(), "op=write")
}
