package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pos"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// CheckoutMetrics counts commit outcomes and how many transaction attempts
// each commit needed
type CheckoutMetrics struct {
	Commits  *prometheus.CounterVec
	Attempts prometheus.Histogram
	LowStock prometheus.Counter
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "commits_total",
		Help:      "Checkout commits by outcome.",
	}, []string{"outcome"})
	attempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "commit_attempts",
		Help:      "Transaction attempts per checkout commit.",
		Buckets:   []float64{1, 2, 3, 5, 8},
	})
	lowStock := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "low_stock_notices_total",
		Help:      "Products taken to or below their low stock threshold by a commit.",
	})

	reg.MustRegister(commits, attempts, lowStock)
	return &CheckoutMetrics{Commits: commits, Attempts: attempts, LowStock: lowStock}
}

// ObserveCommit records one finished commit
func (m *CheckoutMetrics) ObserveCommit(outcome string, attempts int) {
	if m == nil {
		return
	}
	m.Commits.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		m.Attempts.Observe(float64(attempts))
	}
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
