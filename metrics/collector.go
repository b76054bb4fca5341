// Package metrics exposes Prometheus instrumentation for runs, tools,
// streams and HTTP requests.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/smallnest/teamgraph/gateway"
	"github.com/smallnest/teamgraph/graph"
)

// Collector records metrics. It is a graph.CallbackHandler for tool calls
// and a graph.NodeListener for node transitions.
type Collector struct {
	graph.NoOpCallbackHandler

	nodeTransitions *prometheus.CounterVec
	toolCalls       *prometheus.CounterVec
	runs            *prometheus.CounterVec
	streams         *prometheus.CounterVec
	streamDuration  prometheus.Histogram

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var (
	_ graph.CallbackHandler = (*Collector)(nil)
	_ graph.NodeListener    = (*Collector)(nil)
)

// NewCollector registers the metrics with reg under namespace.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		nodeTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_transitions_total",
				Help:      "Node executions, nested graphs included",
			},
			[]string{"node", "status"},
		),
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Tool invocations by worker tools",
			},
			[]string{"tool", "status"},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Top level runs by result",
			},
			[]string{"status"},
		),
		streams: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "streams_total",
				Help:      "SSE streams by outcome",
			},
			[]string{"outcome"},
		),
		streamDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stream_duration_seconds",
				Help:      "SSE stream duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// OnNodeEvent counts finished node executions.
func (c *Collector) OnNodeEvent(_ context.Context, event graph.NodeEvent, nodeName string, _ any, _ error) {
	switch event {
	case graph.NodeEventComplete:
		c.nodeTransitions.WithLabelValues(nodeName, "ok").Inc()
	case graph.NodeEventError:
		c.nodeTransitions.WithLabelValues(nodeName, "error").Inc()
	}
}

func (c *Collector) OnToolEnd(_ context.Context, toolName, _ string, _ string) {
	c.toolCalls.WithLabelValues(toolName, "ok").Inc()
}

func (c *Collector) OnToolError(_ context.Context, toolName string, _ error, _ string) {
	c.toolCalls.WithLabelValues(toolName, "error").Inc()
}

// OnChainEnd counts top level runs only; nested graphs share the callback.
func (c *Collector) OnChainEnd(ctx context.Context, _ map[string]any, _ string) {
	if graph.Namespace(ctx) == "" {
		c.runs.WithLabelValues("ok").Inc()
	}
}

func (c *Collector) OnChainError(ctx context.Context, _ error, _ string) {
	if graph.Namespace(ctx) == "" {
		c.runs.WithLabelValues("error").Inc()
	}
}

// ObserveStream is a gateway.Observer.
func (c *Collector) ObserveStream(outcome gateway.Outcome, elapsed time.Duration) {
	c.streams.WithLabelValues(string(outcome)).Inc()
	c.streamDuration.Observe(elapsed.Seconds())
}

// ObserveHTTP records one HTTP request.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
