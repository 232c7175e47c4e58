package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	lazy "github.com/pumped-fn/lazy-go"
)

type writer = io.Writer

func buildGroup(m *model, circles int) (*lazy.Object, error) {
	g, err := m.group.New()
	if err != nil {
		return nil, err
	}
	lazy.Label.Set(g, "group")
	for i := 0; i < circles; i++ {
		c, err := m.circle.New()
		if err != nil {
			return nil, err
		}
		lazy.Label.Set(c, fmt.Sprintf("circle-%d", i))
		if err := m.radius.Set(c, float64(i+1)); err != nil {
			return nil, err
		}
		if err := m.shapes.Add(g, c); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// runRadius sets a radius twice to the same value; each write costs one
// recompute.
func runRadius(w writer, m *model) error {
	c, err := m.circle.New()
	if err != nil {
		return err
	}
	defer c.Release()

	for _, r := range []float64{2.0, 2.0} {
		before := m.computes["area"]
		if err := m.radius.Set(c, r); err != nil {
			return err
		}
		area, err := m.area.Get(c)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "radius=%.1f area=%.4f recomputes=%d\n", r, area, m.computes["area"]-before)
	}
	return nil
}

// runChildren adds circles to a group one at a time and reads the count.
func runChildren(w writer, m *model) error {
	g, err := m.group.New()
	if err != nil {
		return err
	}
	defer g.Release()

	for i := 0; i < 3; i++ {
		c, err := m.circle.New()
		if err != nil {
			return err
		}
		if err := m.shapes.Add(g, c); err != nil {
			return err
		}
		n, err := m.count.Get(g)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "added circle, count=%d\n", n)
	}
	return nil
}

// runSharing reads the area of two circles with equal radii; the second
// read is a memo hit.
func runSharing(w writer, m *model) error {
	a, err := m.circle.New()
	if err != nil {
		return err
	}
	defer a.Release()
	b, err := m.circle.New()
	if err != nil {
		return err
	}
	defer b.Release()

	before := m.computes["area"]
	ea, err := m.area.Entity(a)
	if err != nil {
		return err
	}
	eb, err := m.area.Entity(b)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "same result entity: %t, computes: %d\n", ea == eb, m.computes["area"]-before)
	return nil
}

func printStats(w writer, m *model, promReg *prometheus.Registry) error {
	fmt.Fprintln(w, "pools:")
	for _, s := range m.reg.Pools().Stats() {
		fmt.Fprintf(w, "  %-12s free=%d hits=%d misses=%d restocks=%d dropped=%d\n",
			s.Name, s.Free, s.Hits, s.Misses, s.Restocks, s.Dropped)
	}

	families, err := promReg.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "metrics:")
	lines := []string{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := []string{}
			for _, lp := range metric.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			var value float64
			switch {
			case metric.GetCounter() != nil:
				value = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				value = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				value = float64(metric.GetHistogram().GetSampleCount())
			}
			lines = append(lines, fmt.Sprintf("  %s{%s} %g", mf.GetName(), strings.Join(labels, ","), value))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}
