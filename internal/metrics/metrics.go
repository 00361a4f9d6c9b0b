package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	AdsCreated      prometheus.Counter
	BoostsActivated prometheus.Counter
	UploadFailures  *prometheus.CounterVec
	JobRuns         *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "market_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "market_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AdsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "market_ads_created_total",
			Help: "Listings created.",
		}),
		BoostsActivated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "market_boosts_activated_total",
			Help: "Listing boosts bought or extended.",
		}),
		UploadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "market_upload_failures_total",
			Help: "Failed object storage uploads by bucket.",
		}, []string{"bucket"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "market_job_runs_total",
			Help: "Scheduled job runs by job and outcome.",
		}, []string{"job", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.AdsCreated, m.BoostsActivated, m.UploadFailures, m.JobRuns,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) AdCreated() {
	if m != nil {
		m.AdsCreated.Inc()
	}
}

func (m *Metrics) BoostActivated() {
	if m != nil {
		m.BoostsActivated.Inc()
	}
}

func (m *Metrics) UploadFailed(bucket string) {
	if m != nil {
		m.UploadFailures.WithLabelValues(bucket).Inc()
	}
}

func (m *Metrics) JobRan(job string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.JobRuns.WithLabelValues(job, outcome).Inc()
}
