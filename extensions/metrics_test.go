package extensions

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExtension(t *testing.T) {
	promReg := prometheus.NewRegistry()
	ext := NewMetricsExtension(promReg, "test")
	s := newScene(t, ext)

	a, b := s.circle.MustNew(), s.circle.MustNew()
	s.area.MustGet(a)
	s.area.MustGet(b)

	assert.Equal(t, 1.0, testutil.ToFloat64(ext.operations.WithLabelValues("compute", "Circle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ext.operations.WithLabelValues("hit", "Circle")))
	assert.Equal(t, 1, testutil.CollectAndCount(ext.computeSeconds))

	require.NoError(t, s.radius.Set(a, -1))
	_, err := s.area.Get(a)
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(ext.failures.WithLabelValues("compute", "Circle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ext.operations.WithLabelValues("write", "Circle")))

	b.Release()
	ext.UpdatePoolGauges()
	assert.Equal(t, 1.0, testutil.ToFloat64(ext.freeList.WithLabelValues("Circle")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(ext.operations.WithLabelValues("restock", "Circle")), 1.0)

	c := s.circle.MustNew()
	c.OnRestock(func() error { return assert.AnError })
	c.Release()
	assert.Equal(t, 1.0, testutil.ToFloat64(ext.restockErrors))

	families, err := promReg.Gather()
	require.NoError(t, err)
	names := []string{}
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "test_operations_total")
	assert.Contains(t, names, "test_free_list_size")
}
