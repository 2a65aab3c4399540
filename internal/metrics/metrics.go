// Package metrics collects Prometheus metrics for API calls and the
// recommendation cache.
package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records client-side metrics on a caller-supplied registry.
type Collector struct {
	requests          *prometheus.CounterVec
	latency           *prometheus.HistogramVec
	transportFailures *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_api_requests_total",
			Help: "API responses received, by method and status code.",
		}, []string{"method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "learnhub_api_request_duration_seconds",
			Help:    "API round-trip latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		transportFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_api_transport_failures_total",
			Help: "Calls that ended in a network failure, timeout or 5xx.",
		}, []string{"method"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learnhub_recommendation_cache_lookups_total",
			Help: "Recommendation cache lookups, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(c.requests, c.latency, c.transportFailures, c.cacheLookups)
	return c
}

// ObserveRequest records one completed HTTP exchange.
func (c *Collector) ObserveRequest(method string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method).Observe(d.Seconds())
}

// RecordTransportFailure records a call that produced no usable response.
func (c *Collector) RecordTransportFailure(method string) {
	c.transportFailures.WithLabelValues(method).Inc()
}

// RecordCacheHit records a lookup served from the cache slot.
func (c *Collector) RecordCacheHit() {
	c.cacheLookups.WithLabelValues("hit").Inc()
}

// RecordCacheMiss records a lookup that required a live fetch. reason is
// one of "empty", "expired", "changed", "refresh", "unreadable".
func (c *Collector) RecordCacheMiss(reason string) {
	c.cacheLookups.WithLabelValues("miss_" + reason).Inc()
}

// Summary renders all counters in gatherer as "name{labels} value" lines,
// sorted, for human inspection. Every line ends in a newline.
func Summary(gatherer prometheus.Gatherer) (string, error) {
	families, err := gatherer.Gather()
	if err != nil {
		return "", err
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}
