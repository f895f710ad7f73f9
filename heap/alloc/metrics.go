package alloc

import "github.com/prometheus/client_golang/prometheus"

// Metrics exports allocator activity to Prometheus.
type Metrics struct {
	allocBytes   prometheus.Counter
	allocObjects prometheus.Counter
	freeObjects  prometheus.Counter
	inuseBytes   prometheus.Gauge
	inuseObjects prometheus.Gauge
	heapBytes    prometheus.Gauge
	noSpace      prometheus.Counter
}

// NewMetrics creates the allocator collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		allocBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kheap",
			Subsystem: "alloc",
			Name:      "allocate_bytes_total",
			Help:      "Usable bytes handed out by the allocator.",
		}),
		allocObjects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kheap",
			Subsystem: "alloc",
			Name:      "allocate_objects_total",
			Help:      "Blocks handed out by the allocator.",
		}),
		freeObjects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kheap",
			Subsystem: "alloc",
			Name:      "free_objects_total",
			Help:      "Blocks returned to the allocator.",
		}),
		inuseBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kheap",
			Subsystem: "alloc",
			Name:      "inuse_bytes",
			Help:      "Usable bytes currently allocated.",
		}),
		inuseObjects: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kheap",
			Subsystem: "alloc",
			Name:      "inuse_objects",
			Help:      "Blocks currently allocated.",
		}),
		heapBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kheap",
			Subsystem: "heap",
			Name:      "mapped_bytes",
			Help:      "Bytes between the heap base and the break.",
		}),
		noSpace: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kheap",
			Subsystem: "alloc",
			Name:      "no_space_total",
			Help:      "Requests refused because the reserved range was exhausted.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.allocBytes,
			m.allocObjects,
			m.freeObjects,
			m.inuseBytes,
			m.inuseObjects,
			m.heapBytes,
			m.noSpace,
		)
	}
	return m
}

func (m *Metrics) onAlloc(n uint32) {
	if m == nil {
		return
	}
	m.allocBytes.Add(float64(n))
	m.allocObjects.Inc()
	m.inuseBytes.Add(float64(n))
	m.inuseObjects.Inc()
}

func (m *Metrics) onFree(n uint32) {
	if m == nil {
		return
	}
	m.freeObjects.Inc()
	m.inuseBytes.Sub(float64(n))
	m.inuseObjects.Dec()
}

func (m *Metrics) onGrow(mapped uint32) {
	if m == nil {
		return
	}
	m.heapBytes.Set(float64(mapped))
}

func (m *Metrics) onNoSpace() {
	if m == nil {
		return
	}
	m.noSpace.Inc()
}
