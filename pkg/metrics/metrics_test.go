package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func scrape(t *testing.T, g prometheus.Gatherer) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(g).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestObserveCommit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.ObserveCommit("committed", 1)
	m.ObserveCommit("committed", 3)
	m.ObserveCommit("insufficient_stock", 1)

	body := scrape(t, reg)
	if !strings.Contains(body, `pos_checkout_commits_total{outcome="committed"} 2`) {
		t.Errorf("expected 2 committed, got:\n%s", body)
	}
	if !strings.Contains(body, "pos_checkout_commit_attempts_count 3") {
		t.Errorf("expected 3 attempt observations, got:\n%s", body)
	}
}

func TestNilCheckoutMetricsIsNoop(t *testing.T) {
	var m *CheckoutMetrics
	m.ObserveCommit("committed", 1)
}

func TestHandlerExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServerMetrics(reg)
	s.Requests.WithLabelValues("/health", "200").Inc()

	if !strings.Contains(scrape(t, reg), "pos_http_requests_total") {
		t.Error("expected request counter in exposition")
	}
}
