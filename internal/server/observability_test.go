// Tests for the observability endpoints
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nainya/assetlib/internal/logger"
	"github.com/nainya/assetlib/internal/metrics"
	"github.com/nainya/assetlib/pkg/library"
)

func setupTestServer(t *testing.T) (*ObservabilityServer, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	return NewObservabilityServer(":0", reg, logger.Nop()), m
}

func get(t *testing.T, o *ObservabilityServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	o.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestMetricsEndpoint(t *testing.T) {
	o, m := setupTestServer(t)
	m.RecordSync("props", "ok", 3, 1, 10, 0)

	rec := get(t, o, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `assetlib_syncs_total{library="props",status="ok"} 1`) {
		t.Errorf("Sync counter missing from metrics output:\n%s", rec.Body.String())
	}
}

func TestReady(t *testing.T) {
	o, _ := setupTestServer(t)

	if rec := get(t, o, "/ready"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before the first sync, got %d", rec.Code)
	}

	o.SetReady(true)
	if rec := get(t, o, "/ready"); rec.Code != http.StatusOK {
		t.Errorf("Expected 200 once ready, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	o, _ := setupTestServer(t)

	o.RecordSync("props", library.SyncReport{RunID: "run-1", Total: 3}, nil)

	rec := get(t, o, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var body struct {
		Status    string                   `json:"status"`
		Service   string                   `json:"service"`
		Libraries map[string]LibraryStatus `json:"libraries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if body.Status != "healthy" || body.Service != "assetlib" {
		t.Errorf("Unexpected health response: %+v", body)
	}
	if got := body.Libraries["props"]; got.RunID != "run-1" || got.Total != 3 {
		t.Errorf("Unexpected library status: %+v", got)
	}

	o.RecordSync("chars", library.SyncReport{}, errors.New("locked"))

	rec = get(t, o, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 after a failed sync, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"degraded"`) {
		t.Errorf("Expected degraded status, got %s", rec.Body.String())
	}
}

func TestPprofIndex(t *testing.T) {
	o, _ := setupTestServer(t)

	if rec := get(t, o, "/debug/pprof/"); rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from pprof index, got %d", rec.Code)
	}
}
