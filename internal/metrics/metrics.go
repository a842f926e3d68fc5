// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector gathers upstream and ranking telemetry. It satisfies the small
// recorder interfaces declared by the strava, auth and ranking packages.
type Collector struct {
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	refreshFailures  prometheus.Counter
	rankingsServed   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubrank_upstream_requests_total",
			Help: "Upstream API requests by endpoint and HTTP status (0 = transport failure).",
		}, []string{"endpoint", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clubrank_upstream_latency_seconds",
			Help:    "Upstream API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		refreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clubrank_token_refresh_failures_total",
			Help: "Token refresh attempts that failed and fell back to the stale token.",
		}),
		rankingsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubrank_rankings_served_total",
			Help: "Weekly rankings computed, by deployment mode.",
		}, []string{"mode"}),
	}

	reg.MustRegister(
		c.upstreamRequests,
		c.upstreamLatency,
		c.refreshFailures,
		c.rankingsServed,
	)

	return c
}

// RecordUpstreamRequest counts one upstream call.
func (c *Collector) RecordUpstreamRequest(endpoint string, status int) {
	c.upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// RecordUpstreamLatency records one upstream call's duration.
func (c *Collector) RecordUpstreamLatency(endpoint string, d time.Duration) {
	c.upstreamLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordRefreshFailure counts a failed token refresh.
func (c *Collector) RecordRefreshFailure() {
	c.refreshFailures.Inc()
}

// RecordRankingServed counts a computed ranking.
func (c *Collector) RecordRankingServed(mode string) {
	c.rankingsServed.WithLabelValues(mode).Inc()
}
