package main

import (
	"time"

	"github.com/hupe1980/mmapio"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements mmapio.MetricsCollector.
type PrometheusCollector struct {
	maps        *prometheus.CounterVec
	unmaps      *prometheus.CounterVec
	remaps      prometheus.Counter
	mappedBytes prometheus.Gauge
	ioLatency   *prometheus.HistogramVec
	ioBytes     *prometheus.CounterVec
}

// NewPrometheusCollector creates a collector registered with reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		maps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mmapio_maps_total",
			Help: "Mapping attempts by result",
		}, []string{"result"}),
		unmaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mmapio_unmaps_total",
			Help: "Unmaps by status",
		}, []string{"status"}),
		remaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mmapio_remaps_total",
			Help: "Window moves",
		}),
		mappedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mmapio_mapped_bytes",
			Help: "Bytes currently mapped by windows",
		}),
		ioLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mmapio_request_latency_seconds",
			Help:    "Latency of executed requests",
			Buckets: prometheus.ExponentialBuckets(1e-7, 4, 12),
		}, []string{"op", "status"}),
		ioBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mmapio_request_bytes_total",
			Help: "Bytes transferred by executed requests",
		}, []string{"op"}),
	}

	reg.MustRegister(c.maps, c.unmaps, c.remaps, c.mappedBytes, c.ioLatency, c.ioBytes)
	return c
}

func (c *PrometheusCollector) RecordMap(bytes int64, reused bool, err error) {
	switch {
	case err != nil:
		c.maps.WithLabelValues("error").Inc()
	case reused:
		c.maps.WithLabelValues("reused").Inc()
	default:
		c.maps.WithLabelValues("mapped").Inc()
		c.mappedBytes.Add(float64(bytes))
	}
}

func (c *PrometheusCollector) RecordUnmap(bytes int64, err error) {
	if err != nil {
		c.unmaps.WithLabelValues("error").Inc()
		return
	}
	c.unmaps.WithLabelValues("success").Inc()
	c.mappedBytes.Sub(float64(bytes))
}

func (c *PrometheusCollector) RecordRemap() {
	c.remaps.Inc()
}

func (c *PrometheusCollector) RecordIO(op mmapio.Op, bytes int, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.ioLatency.WithLabelValues(op.String(), status).Observe(d.Seconds())
	c.ioBytes.WithLabelValues(op.String()).Add(float64(bytes))
}

// multiCollector fans metrics out to several collectors.
type multiCollector []mmapio.MetricsCollector

func (m multiCollector) RecordMap(bytes int64, reused bool, err error) {
	for _, c := range m {
		c.RecordMap(bytes, reused, err)
	}
}

func (m multiCollector) RecordUnmap(bytes int64, err error) {
	for _, c := range m {
		c.RecordUnmap(bytes, err)
	}
}

func (m multiCollector) RecordRemap() {
	for _, c := range m {
		c.RecordRemap()
	}
}

func (m multiCollector) RecordIO(op mmapio.Op, bytes int, d time.Duration, err error) {
	for _, c := range m {
		c.RecordIO(op, bytes, d, err)
	}
}
