package alloc

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var _ Allocator = &Metrics{}

// Metrics wraps an allocator and reports its activity to prometheus.
type Metrics struct {
	upstream Allocator

	allocatedBytes prometheus.Counter
	inUseBytes     prometheus.Gauge
	inUseObjects   prometheus.Gauge
	failures       *prometheus.CounterVec
}

// NewMetrics returns new metrics allocator registering its collectors in reg.
func NewMetrics(upstream Allocator, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		upstream: upstream,
		allocatedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blocklist",
			Subsystem: "alloc",
			Name:      "allocated_bytes_total",
			Help:      "Total number of bytes allocated.",
		}),
		inUseBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blocklist",
			Subsystem: "alloc",
			Name:      "inuse_bytes",
			Help:      "Number of bytes currently allocated.",
		}),
		inUseObjects: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blocklist",
			Subsystem: "alloc",
			Name:      "inuse_objects",
			Help:      "Number of buffers and slot arrays currently allocated.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blocklist",
			Subsystem: "alloc",
			Name:      "failures_total",
			Help:      "Number of allocation requests which could not be satisfied.",
		}, []string{"op"}),
	}

	for _, c := range []prometheus.Collector{m.allocatedBytes, m.inUseBytes, m.inUseObjects, m.failures} {
		if err := reg.Register(c); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return m, nil
}

// Allocate allocates buffer.
func (m *Metrics) Allocate(size int) ([]byte, error) {
	b, err := m.upstream.Allocate(size)
	if err != nil {
		m.failures.WithLabelValues(OpAllocate.String()).Inc()
		return nil, err
	}
	m.allocated(int64(size))
	return b, nil
}

// Free releases buffer.
func (m *Metrics) Free(b []byte) {
	if b == nil {
		return
	}
	m.upstream.Free(b)
	m.released(int64(len(b)))
}

// AllocateSlots allocates slot array.
func (m *Metrics) AllocateSlots(n int) ([][]byte, error) {
	slots, err := m.upstream.AllocateSlots(n)
	if err != nil {
		m.failures.WithLabelValues(OpAllocateSlots.String()).Inc()
		return nil, err
	}
	m.allocated(int64(n) * SlotSize)
	return slots, nil
}

// ResizeSlots resizes slot array.
func (m *Metrics) ResizeSlots(slots [][]byte, n int) ([][]byte, error) {
	oldSize := int64(len(slots)) * SlotSize
	resized, err := m.upstream.ResizeSlots(slots, n)
	if err != nil {
		m.failures.WithLabelValues(OpResizeSlots.String()).Inc()
		return nil, err
	}
	newSize := int64(n) * SlotSize
	if newSize > oldSize {
		m.allocatedBytes.Add(float64(newSize - oldSize))
	}
	m.inUseBytes.Add(float64(newSize - oldSize))
	return resized, nil
}

// FreeSlots releases slot array.
func (m *Metrics) FreeSlots(slots [][]byte) {
	if slots == nil {
		return
	}
	m.upstream.FreeSlots(slots)
	m.released(int64(len(slots)) * SlotSize)
}

func (m *Metrics) allocated(size int64) {
	m.allocatedBytes.Add(float64(size))
	m.inUseBytes.Add(float64(size))
	m.inUseObjects.Inc()
}

func (m *Metrics) released(size int64) {
	m.inUseBytes.Sub(float64(size))
	m.inUseObjects.Dec()
}
