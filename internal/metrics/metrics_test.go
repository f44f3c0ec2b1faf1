package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewManager(t *testing.T) {
	m := NewManager()
	if !m.Enabled() {
		t.Fatal("expected metrics to be enabled")
	}
	if NoOpManager().Enabled() {
		t.Error("expected no-op manager to be disabled")
	}
	var nilManager *Manager
	if nilManager.Enabled() {
		t.Error("nil manager must report disabled")
	}
}

func TestRecordOperation(t *testing.T) {
	m := NewManager()
	m.RecordOperation("add", nil)
	m.RecordOperation("add", nil)
	m.RecordOperation("add", errors.New("boom"))

	if got := testutil.ToFloat64(m.operations.WithLabelValues("add", "ok")); got != 2 {
		t.Errorf("expected 2 ok, got %v", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("add", "error")); got != 1 {
		t.Errorf("expected 1 error, got %v", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewManager()
	m.RecordHTTPRequest("GET", "/api/v1/memories/{id}", "200", 3*time.Millisecond)
	m.RecordAssemble(4, time.Millisecond)
	m.SetMemories(12)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	for _, want := range []string{
		`recall_http_requests_total{method="GET",route="/api/v1/memories/{id}",status="200"} 1`,
		"recall_assemble_included_items_count 1",
		"recall_memories 12",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNoOpManager(t *testing.T) {
	m := NoOpManager()
	m.RecordHTTPRequest("GET", "/", "200", time.Millisecond)
	m.RecordOperation("add", nil)
	m.RecordAssemble(1, time.Millisecond)
	m.SetMemories(1)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 from disabled handler, got %d", w.Code)
	}
}
