package status

import (
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports a Registry to Prometheus
// Metric names are the registry keys with dots replaced by underscores,
// prefixed by the namespace. Keys are discovered at scrape time, so the
// collector is unchecked (Describe sends nothing)
type Collector struct {
	reg       *Registry
	namespace string
}

// NewCollector wraps reg for registration with a prometheus.Registerer
func NewCollector(reg *Registry, namespace string) *Collector {
	return &Collector{reg: reg, namespace: namespace}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.reg.Ints.Range(func(k string, v *atomic.Int64) {
		ch <- prometheus.MustNewConstMetric(c.desc(k, nil), prometheus.UntypedValue, float64(v.Load()))
	})
	c.reg.Floats.Range(func(k string, v *AtomicFloat) {
		ch <- prometheus.MustNewConstMetric(c.desc(k, nil), prometheus.GaugeValue, v.Get())
	})
	c.reg.Bools.Range(func(k string, v *atomic.Bool) {
		val := 0.0
		if v.Load() {
			val = 1
		}
		ch <- prometheus.MustNewConstMetric(c.desc(k, nil), prometheus.GaugeValue, val)
	})
	c.reg.Strings.Range(func(k string, v *AtomicString) {
		ch <- prometheus.MustNewConstMetric(c.desc(k+"_info", []string{"value"}), prometheus.GaugeValue, 1, v.Load())
	})
}

func (c *Collector) desc(key string, labels []string) *prometheus.Desc {
	name := prometheus.BuildFQName(c.namespace, "", MetricName(key))
	return prometheus.NewDesc(name, "critter status metric "+key, labels, nil)
}

// MetricName converts a registry key to a valid Prometheus metric name
func MetricName(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
