package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady pings the store and, when configured, the broker. Only the
// store decides readiness: records are saved even while events cannot be
// published.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		mu     sync.Mutex
		checks = make(map[string]string)
	)
	record := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			checks[name] = fmt.Sprintf("failed: %v", err)
			return
		}
		checks[name] = "ok"
	}

	var g errgroup.Group
	g.Go(func() error {
		if s.store == nil {
			record("store", errors.New("not configured"))
			return errNotReady
		}
		err := s.store.Ping(ctx)
		record("store", err)
		if err != nil {
			return errNotReady
		}
		return nil
	})
	g.Go(func() error {
		if s.broker == nil {
			mu.Lock()
			checks["broker"] = "disabled"
			mu.Unlock()
			return nil
		}
		record("broker", s.broker.Ping(ctx))
		return nil
	})

	status, code := "ready", http.StatusOK
	if err := g.Wait(); err != nil {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

var errNotReady = errors.New("not ready")

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()

	w.WriteHeader(http.StatusOK)

	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	fmt.Fprintf(w, "# HELP http_request_duration_avg_seconds Mean request duration\n")
	fmt.Fprintf(w, "# TYPE http_request_duration_avg_seconds gauge\n")
	fmt.Fprintf(w, "http_request_duration_avg_seconds %.6f\n\n", traceMetrics.AverageLatency().Seconds())

	writeMetric(w, "records_created_total", "counter", "Records added through the API", atomic.LoadInt64(&s.appMetrics.recordsCreated))
	writeMetric(w, "users_registered_total", "counter", "Users registered through the API", atomic.LoadInt64(&s.appMetrics.usersCreated))

	if s.dashboards != nil {
		stats := s.dashboards.Stats()
		writeMetric(w, "dashboard_cache_hits_total", "counter", "Dashboard cache hits", int64(stats.Hits))
		writeMetric(w, "dashboard_cache_misses_total", "counter", "Dashboard cache misses", int64(stats.Misses))
		writeMetric(w, "dashboard_cache_entries", "gauge", "Current dashboard cache entries", int64(stats.Size))
	}

	writeMetric(w, "rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", rateLimitMetrics.TotalHits)
	writeMetric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	writeMetric(w, "suspicious_requests_total", "counter", "Suspicious requests detected", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}

func writeMetric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}
