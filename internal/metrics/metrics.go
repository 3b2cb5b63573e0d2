// Package metrics exports agent activity as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voxelminer.ai/internal/protocol"
)

const namespace = "voxelminer"

// Collectors registers on a private registry, one per session.
type Collectors struct {
	registry *prometheus.Registry

	targets      prometheus.Counter
	noTargets    prometheus.Counter
	targetCost   prometheus.Histogram
	targetDist   prometheus.Histogram
	outcomes     *prometheus.CounterVec
	taskTicks    *prometheus.HistogramVec
	blocks       *prometheus.CounterVec
	queueDepth   prometheus.Gauge
	cacheResolve prometheus.Gauge
}

func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		targets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "targets_total",
			Help: "Destinations chosen by the target search.",
		}),
		noTargets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "no_target_total",
			Help: "Planning cycles that found no finite-cost destination.",
		}),
		targetCost: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "target_cost",
			Help:    "Rating of chosen destinations (lower is better).",
			Buckets: prometheus.LinearBuckets(-10, 10, 12),
		}),
		targetDist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "target_distance",
			Help:    "Path distance to chosen destinations.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "task_outcomes_total",
			Help: "Finished or failed tasks by kind, status and error code.",
		}, []string{"kind", "status", "code"}),
		taskTicks: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "task_ticks",
			Help:    "Ticks spent per task.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"kind"}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "block_changes_total",
			Help: "Blocks dug or placed, by resulting block.",
		}, []string{"to"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "task_queue_depth",
			Help: "Tasks waiting in the agent queue.",
		}),
		cacheResolve: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "block_cache_resolutions",
			Help: "Block property lookups that went to the settings.",
		}),
	}
	c.registry.MustRegister(
		c.targets, c.noTargets, c.targetCost, c.targetDist,
		c.outcomes, c.taskTicks, c.blocks, c.queueDepth, c.cacheResolve,
		collectors.NewGoCollector(),
	)
	return c
}

func (c *Collectors) Registry() *prometheus.Registry { return c.registry }

func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteEvent updates the collectors from one trace event.
func (c *Collectors) WriteEvent(ev protocol.TraceEvent) error {
	switch ev.Type {
	case protocol.EventTarget:
		c.targets.Inc()
		if ev.Cost != nil {
			c.targetCost.Observe(*ev.Cost)
		}
		c.targetDist.Observe(float64(ev.Distance))
	case protocol.EventNoTarget:
		c.noTargets.Inc()
	case protocol.EventTaskDone, protocol.EventTaskFail:
		c.outcomes.WithLabelValues(ev.Kind, ev.Status, ev.Code).Inc()
		c.taskTicks.WithLabelValues(ev.Kind).Observe(float64(ev.Ticks))
	case protocol.EventBlockChange:
		c.blocks.WithLabelValues(ev.To).Inc()
	}
	return nil
}

func (c *Collectors) SetQueueDepth(n int) { c.queueDepth.Set(float64(n)) }

func (c *Collectors) SetCacheResolutions(n int) { c.cacheResolve.Set(float64(n)) }
