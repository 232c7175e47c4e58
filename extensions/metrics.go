package extensions

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	lazy "github.com/pumped-fn/lazy-go"
)

// MetricsExtension exports operation counters, compute latency and free
// list sizes to Prometheus.
//
// Usage:
//
//	ext := extensions.NewMetricsExtension(prometheus.DefaultRegisterer, "lazy")
//	reg := lazy.NewRegistry(lazy.WithExtension(ext))
type MetricsExtension struct {
	lazy.BaseExtension
	reg *lazy.Registry

	operations     *prometheus.CounterVec
	failures       *prometheus.CounterVec
	computeSeconds *prometheus.HistogramVec
	freeList       *prometheus.GaugeVec
	restockErrors  prometheus.Counter
}

// NewMetricsExtension registers the collectors on registerer.
func NewMetricsExtension(registerer prometheus.Registerer, namespace string) *MetricsExtension {
	factory := promauto.With(registerer)
	return &MetricsExtension{
		BaseExtension: lazy.NewBaseExtension("metrics"),

		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operations by kind and class",
		}, []string{"op", "class"}),

		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Failed computes and writes by kind and class",
		}, []string{"op", "class"}),

		computeSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Compute function duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
		}, []string{"class", "slot"}),

		freeList: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "free_list_size",
			Help:      "Entities waiting in each free list",
		}, []string{"pool"}),

		restockErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restock_errors_total",
			Help:      "Restock callbacks that returned an error",
		}),
	}
}

func (e *MetricsExtension) Init(r *lazy.Registry) error {
	e.reg = r
	e.UpdatePoolGauges()
	return nil
}

func (e *MetricsExtension) Wrap(next func() (any, error), op *lazy.Operation) (any, error) {
	start := time.Now()
	result, err := next()
	if op.Kind == lazy.OpCompute {
		e.computeSeconds.WithLabelValues(op.Class, op.Slot).Observe(time.Since(start).Seconds())
	}

	e.operations.WithLabelValues(string(op.Kind), op.Class).Inc()
	if err != nil {
		e.failures.WithLabelValues(string(op.Kind), op.Class).Inc()
	}
	return result, err
}

func (e *MetricsExtension) Observe(op *lazy.Operation) {
	e.operations.WithLabelValues(string(op.Kind), op.Class).Inc()
	if op.Kind == lazy.OpRestock {
		e.UpdatePoolGauges()
	}
}

func (e *MetricsExtension) OnRestockError(err *lazy.RestockError) bool {
	e.restockErrors.Inc()
	return false
}

// UpdatePoolGauges refreshes the free list gauges from the registry pools.
func (e *MetricsExtension) UpdatePoolGauges() {
	if e.reg == nil {
		return
	}
	for _, s := range e.reg.Pools().Stats() {
		e.freeList.WithLabelValues(s.Name).Set(float64(s.Free))
	}
}
