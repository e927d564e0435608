package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetrics_ExposesTransitionsAndDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWith("aira", reg, reg)

	m.ObserveTransition("start", "ok")
	m.ObserveTransition("start", "ok")
	m.ObserveTransition("end", "not_found")
	m.ObserveCallDuration(90 * time.Second)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`aira_call_transitions_total{op="start",outcome="ok"} 2`,
		`aira_call_transitions_total{op="end",outcome="not_found"} 1`,
		`aira_call_duration_seconds_count 1`,
		`aira_call_duration_seconds_sum 90`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, body)
		}
	}
}

func TestMetrics_SeparateInstancesDoNotCollide(t *testing.T) {
	a := NewMetrics("aira")
	b := NewMetrics("aira")
	a.ObserveTransition("start", "ok")
	b.ObserveTransition("start", "ok")
}
