package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/carbocation/gelqc/batch"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registry *prometheus.Registry
	samples  *prometheus.CounterVec
	orders   *prometheus.CounterVec
	runs     *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gelqc",
			Name:      "samples_total",
			Help:      "Samples graded, by quality check result.",
		}, []string{"quality"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gelqc",
			Name:      "sample_orders_total",
			Help:      "Samples graded, by sequencing order.",
		}, []string{"order"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gelqc",
			Name:      "runs_total",
			Help:      "Tables processed, by endpoint.",
		}, []string{"kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gelqc",
			Name:      "http_request_duration_seconds",
			Help:      "Request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}

	m.registry.MustRegister(m.samples, m.orders, m.runs, m.latency)

	return m
}

func (m *metrics) observe(kind string, r *batch.Report) {
	m.runs.WithLabelValues(kind).Inc()
	for _, it := range r.Items {
		m.samples.WithLabelValues(it.Verdict.Quality.String()).Inc()
		m.orders.WithLabelValues(it.Order.String()).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		m.latency.WithLabelValues(route, r.Method, strconv.Itoa(rec.code)).Observe(time.Since(start).Seconds())
	})
}
