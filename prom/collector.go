// collector.go: Prometheus implementation of bader.MetricsCollector
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package prom integrates Bader with Prometheus.
//
// Collector records store operations as Prometheus metrics; the keyspace
// gauge exposes the live entry count so eviction behavior is observable
// end-to-end:
//
//	reg := prometheus.NewRegistry()
//	collector, err := prom.NewCollector(reg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := bader.NewStore(bader.Config{MetricsCollector: collector})
//	if err := prom.RegisterKeyspaceSize(reg, store); err != nil {
//	    log.Fatal(err)
//	}
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prom

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agilira/bader"
)

// Collector implements bader.MetricsCollector on Prometheus primitives.
//
// Thread-safety: safe for concurrent use; the underlying instruments are
// lock-free counters and histograms.
type Collector struct {
	getLatency    prometheus.Histogram
	setLatency    prometheus.Histogram
	deleteLatency prometheus.Histogram
	hits          prometheus.Counter
	misses        prometheus.Counter
	evictions     prometheus.Counter
	expirations   prometheus.Counter
}

// Options for configuring Collector.
type Options struct {
	// Namespace prefixes every metric name. Default: "bader".
	Namespace string
}

// Option is a functional option for configuring Collector.
type Option func(*Options)

// WithNamespace sets a custom metric namespace. Useful when one process
// hosts several store instances.
func WithNamespace(ns string) Option {
	return func(o *Options) {
		o.Namespace = ns
	}
}

// latencyBuckets spans 100ns to ~100ms in powers of ten; store operations
// are sub-microsecond in the common case.
var latencyBuckets = prometheus.ExponentialBuckets(100, 10, 7)

// NewCollector creates a Prometheus metrics collector and registers its
// instruments with reg.
//
// Instruments registered (namespace defaults to "bader"):
//   - <ns>_get_latency_ns, <ns>_set_latency_ns, <ns>_delete_latency_ns (histograms)
//   - <ns>_hits_total, <ns>_misses_total (counters)
//   - <ns>_evictions_total, <ns>_expirations_total (counters)
func NewCollector(reg prometheus.Registerer, opts ...Option) (*Collector, error) {
	if reg == nil {
		return nil, errors.New("registerer cannot be nil")
	}

	options := Options{Namespace: "bader"}
	for _, opt := range opts {
		opt(&options)
	}

	c := &Collector{
		getLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: options.Namespace,
			Name:      "get_latency_ns",
			Help:      "Latency of Get operations in nanoseconds",
			Buckets:   latencyBuckets,
		}),
		setLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: options.Namespace,
			Name:      "set_latency_ns",
			Help:      "Latency of Set operations in nanoseconds",
			Buckets:   latencyBuckets,
		}),
		deleteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: options.Namespace,
			Name:      "delete_latency_ns",
			Help:      "Latency of Delete operations in nanoseconds",
			Buckets:   latencyBuckets,
		}),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: options.Namespace,
			Name:      "hits_total",
			Help:      "Number of reads that found a live entry",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: options.Namespace,
			Name:      "misses_total",
			Help:      "Number of reads that found nothing or an expired entry",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: options.Namespace,
			Name:      "evictions_total",
			Help:      "Number of entries removed by the background evictor",
		}),
		expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: options.Namespace,
			Name:      "expirations_total",
			Help:      "Number of expired entries removed on the read path",
		}),
	}

	for _, collector := range []prometheus.Collector{
		c.getLatency, c.setLatency, c.deleteLatency,
		c.hits, c.misses, c.evictions, c.expirations,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordGet records a Get operation with its latency and outcome.
func (c *Collector) RecordGet(latencyNs int64, hit bool) {
	c.getLatency.Observe(float64(latencyNs))
	if hit {
		c.hits.Inc()
	} else {
		c.misses.Inc()
	}
}

// RecordSet records a Set operation with its latency.
func (c *Collector) RecordSet(latencyNs int64) {
	c.setLatency.Observe(float64(latencyNs))
}

// RecordDelete records a Delete operation with its latency.
func (c *Collector) RecordDelete(latencyNs int64) {
	c.deleteLatency.Observe(float64(latencyNs))
}

// RecordExpiration records an entry reaped on the read path.
func (c *Collector) RecordExpiration() {
	c.expirations.Inc()
}

// RecordEviction records an entry removed by the evictor.
func (c *Collector) RecordEviction() {
	c.evictions.Inc()
}

// RegisterKeyspaceSize registers a gauge tracking store.Len(). The gauge
// reads the store on every scrape, so it observes active eviction draining
// the keyspace without any command traffic.
func RegisterKeyspaceSize(reg prometheus.Registerer, store bader.Store, opts ...Option) error {
	if reg == nil {
		return errors.New("registerer cannot be nil")
	}

	options := Options{Namespace: "bader"}
	for _, opt := range opts {
		opt(&options)
	}

	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: options.Namespace,
		Name:      "keyspace_size",
		Help:      "Current number of entries, including logically expired entries not yet reaped",
	}, func() float64 {
		return float64(store.Len())
	}))
}
