package main

import (
	"math"

	lazy "github.com/pumped-fn/lazy-go"
)

// model is a small scene: circles with a radius and an area, grouped in a
// collection with a member count and a total area.
type model struct {
	reg *lazy.Registry

	circle *lazy.Class
	radius lazy.Variable[float64]
	area   lazy.Computed[float64]

	group  *lazy.Class
	shapes lazy.CollectionSlot
	count  lazy.Computed[int]
	total  lazy.Computed[float64]

	computes map[string]int
}

func newModel(reg *lazy.Registry) (*model, error) {
	m := &model{reg: reg, computes: make(map[string]int)}

	m.circle = reg.NewClass("Circle")
	m.radius = lazy.DeclareVariable(m.circle, "radius", func() float64 { return 1.0 })
	m.area = lazy.DeclareComputed1(m.circle, "area", m.radius.Param(),
		func(ctx *lazy.ComputeCtx, r float64) (float64, error) {
			m.computes["area"]++
			return math.Pi * r * r, nil
		})

	m.group = reg.NewClass("Group")
	m.shapes = lazy.DeclareCollection(m.group, "shapes", m.circle, nil)
	m.count = lazy.DeclareComputed1(m.group, "count", lazy.Members(m.shapes),
		func(ctx *lazy.ComputeCtx, shapes []*lazy.Object) (int, error) {
			m.computes["count"]++
			return len(shapes), nil
		})
	m.total = lazy.DeclareComputed1(m.group, "total_area", lazy.Each(m.shapes, m.area.Param()),
		func(ctx *lazy.ComputeCtx, areas []float64) (float64, error) {
			m.computes["total_area"]++
			sum := 0.0
			for _, a := range areas {
				sum += a
			}
			return sum, nil
		})

	if err := m.circle.Register(); err != nil {
		return nil, err
	}
	if err := m.group.Register(); err != nil {
		return nil, err
	}
	return m, nil
}
