package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	TraversalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reggie_traversal_seconds",
		Help:    "Wall-clock time of a complete traversal.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"strategy"})

	TraversalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reggie_traversals_total",
		Help: "Total number of traversals by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	NodesDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reggie_nodes_discovered_total",
		Help: "Total number of node paths returned by traversals.",
	}, []string{"strategy"})

	Throughput = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reggie_throughput_nodes_per_second",
		Help: "Nodes per second of the most recent traversal with a measurable duration.",
	}, []string{"strategy"})

	ProviderCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reggie_provider_calls_total",
		Help: "Total number of node provider calls by operation.",
	}, []string{"operation"})

	ProviderFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reggie_provider_failures_total",
		Help: "Total number of failed provider calls or enumeration entries by operation.",
	}, []string{"operation"})

	ProviderThrottleSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reggie_provider_throttle_seconds",
		Help:    "Time provider calls spent waiting on the rate limiter.",
		Buckets: prometheus.DefBuckets,
	})

	WatchEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reggie_watch_events_total",
		Help: "Total number of file system events received in watch mode.",
	})
)

// Provider operation label values.
const (
	OpOpenRoot  = "open_root"
	OpChildren  = "enumerate_children"
	OpOpenChild = "open_child"
)

// WriteTextfile dumps every registered metric in the Prometheus text format,
// for pickup by a textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %q: %w", path, err)
	}
	return nil
}
