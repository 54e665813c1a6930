// Package metrics exposes the scheduler's Prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Execution results reported by RecordExecution
const (
	ResultSuccess  = "success"
	ResultConflict = "conflict"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Collector holds the lifecycle metrics on its own registry
type Collector struct {
	registry *prometheus.Registry

	schedulesCreated   *prometheus.CounterVec
	schedulesCancelled prometheus.Counter
	executions         *prometheus.CounterVec
	executionLatency   prometheus.Histogram
	schedulesDue       prometheus.Gauge
	outboxRelayed      *prometheus.CounterVec
}

// NewCollector creates a collector and registers every instrument along with
// the Go runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		schedulesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_schedules_created_total",
			Help: "Total number of scheduled payments created",
		}, []string{"recurring"}),
		schedulesCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_schedules_cancelled_total",
			Help: "Total number of scheduled payments cancelled",
		}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_executions_total",
			Help: "Total number of execution attempts by result",
		}, []string{"result"}),
		executionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_execution_duration_seconds",
			Help:    "Time taken to execute a due occurrence",
			Buckets: prometheus.DefBuckets,
		}),
		schedulesDue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_schedules_due",
			Help: "Number of due schedules found by the last sweep",
		}),
		outboxRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_outbox_relayed_total",
			Help: "Total number of outbox messages relayed to the payment history by result",
		}, []string{"result"}),
	}

	c.registry.MustRegister(
		c.schedulesCreated,
		c.schedulesCancelled,
		c.executions,
		c.executionLatency,
		c.schedulesDue,
		c.outboxRelayed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// ScheduleCreated counts a newly created schedule
func (c *Collector) ScheduleCreated(recurring bool) {
	c.schedulesCreated.WithLabelValues(strconv.FormatBool(recurring)).Inc()
}

// ScheduleCancelled counts a cancellation
func (c *Collector) ScheduleCancelled() {
	c.schedulesCancelled.Inc()
}

// RecordExecution counts an execution attempt and observes its latency
func (c *Collector) RecordExecution(result string, elapsed time.Duration) {
	c.executions.WithLabelValues(result).Inc()
	c.executionLatency.Observe(elapsed.Seconds())
}

// SetDue records how many schedules the last sweep found due
func (c *Collector) SetDue(n int) {
	c.schedulesDue.Set(float64(n))
}

// RecordRelay counts an outbox relay outcome
func (c *Collector) RecordRelay(success bool) {
	result := ResultSuccess
	if !success {
		result = ResultError
	}
	c.outboxRelayed.WithLabelValues(result).Inc()
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the HTTP handler serving the collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
