package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests can build as many as they like.
type Collector struct {
	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	rateLimited     prometheus.Counter
	calcRuns        *prometheus.CounterVec
	calcDuration    prometheus.Histogram
	calcSkipped     prometheus.Counter
	jobRunsEnqueued *prometheus.CounterVec
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrm",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hrm",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hrm",
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		calcRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrm",
			Subsystem: "payroll",
			Name:      "calculations_total",
			Help:      "Payroll calculation attempts by outcome.",
		}, []string{"outcome"}),
		calcDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hrm",
			Subsystem: "payroll",
			Name:      "calculation_duration_seconds",
			Help:      "Wall time of payroll calculation transactions.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		calcSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hrm",
			Subsystem: "payroll",
			Name:      "skipped_employees_total",
			Help:      "Employees left out of a calculation for lack of a salary structure.",
		}),
		jobRunsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrm",
			Subsystem: "jobs",
			Name:      "enqueued_total",
			Help:      "Background job submissions by job type and result.",
		}, []string{"job_type", "result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequests, c.httpDuration, c.rateLimited,
		c.calcRuns, c.calcDuration, c.calcSkipped, c.jobRunsEnqueued,
	)
	return c
}

func (c *Collector) RecordHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	if status == http.StatusTooManyRequests {
		c.rateLimited.Inc()
	}
}

func (c *Collector) ObserveCalculation(outcome string, elapsed time.Duration, skipped int) {
	c.calcRuns.WithLabelValues(outcome).Inc()
	c.calcDuration.Observe(elapsed.Seconds())
	if skipped > 0 {
		c.calcSkipped.Add(float64(skipped))
	}
}

func (c *Collector) RecordEnqueue(jobType string, err error) {
	result := "accepted"
	if err != nil {
		result = "rejected"
	}
	c.jobRunsEnqueued.WithLabelValues(jobType, result).Inc()
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
