// Package server exposes metrics, health and profiling endpoints over HTTP
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nainya/assetlib/internal/logger"
	"github.com/nainya/assetlib/pkg/library"
)

const serviceName = "assetlib"

// LibraryStatus is the outcome of the last sync of one library
type LibraryStatus struct {
	RunID    string    `json:"run_id,omitempty"`
	Total    int       `json:"total"`
	SyncedAt time.Time `json:"synced_at"`
	Error    string    `json:"error,omitempty"`
}

// ObservabilityServer provides HTTP endpoints for metrics and profiling
type ObservabilityServer struct {
	server *http.Server
	log    *logger.Logger
	ready  atomic.Bool

	mu        sync.RWMutex
	libraries map[string]LibraryStatus
}

// NewObservabilityServer creates a new HTTP server for observability.
// Metrics are gathered from g.
func NewObservabilityServer(addr string, g prometheus.Gatherer, log *logger.Logger) *ObservabilityServer {
	o := &ObservabilityServer{
		log:       log,
		libraries: make(map[string]LibraryStatus),
	}

	mux := http.NewServeMux()

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	mux.HandleFunc("/health", o.handleHealth)
	mux.HandleFunc("/ready", o.handleReady)

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	o.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return o
}

// Handler returns the endpoint mux
func (o *ObservabilityServer) Handler() http.Handler {
	return o.server.Handler
}

// SetReady flips the /ready endpoint, normally after the first sync pass
func (o *ObservabilityServer) SetReady(ready bool) {
	o.ready.Store(ready)
}

// RecordSync stores the outcome of a library sync for /health
func (o *ObservabilityServer) RecordSync(name string, report library.SyncReport, err error) {
	status := LibraryStatus{
		RunID:    report.RunID,
		Total:    report.Total,
		SyncedAt: time.Now().UTC(),
	}
	if err != nil {
		status.Error = err.Error()
	}

	o.mu.Lock()
	o.libraries[name] = status
	o.mu.Unlock()
}

func (o *ObservabilityServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	o.mu.RLock()
	libs := make(map[string]LibraryStatus, len(o.libraries))
	healthy := true
	for name, s := range o.libraries {
		libs[name] = s
		if s.Error != "" {
			healthy = false
		}
	}
	o.mu.RUnlock()

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"service":   serviceName,
		"libraries": libs,
	})
}

func (o *ObservabilityServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if !o.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// Start starts the observability HTTP server and blocks until it is shut down
func (o *ObservabilityServer) Start() error {
	o.log.Info("Starting observability server").
		Str("addr", o.server.Addr).
		Str("metrics", "/metrics").
		Str("health", "/health").
		Str("pprof", "/debug/pprof/").
		Send()

	if err := o.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("observability server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the observability server
func (o *ObservabilityServer) Shutdown(ctx context.Context) error {
	o.log.Info("Shutting down observability server").Send()
	return o.server.Shutdown(ctx)
}
