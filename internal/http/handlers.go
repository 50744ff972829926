package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"bilancio/internal/cache"
	applog "bilancio/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady reports whether templates are loaded and the record store
// answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.ledger.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Record store not reachable", applog.FieldError, err)
		checks["record_store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["record_store"] = "ok"
	}

	caches := map[string]any{}
	for name, st := range s.cacheManager.Stats() {
		caches[name+"_entries"] = st.Entries
	}
	checks["cache"] = caches
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.GetMetrics().ClientCount,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_avg_microseconds", "gauge", "Average response time", traceMetrics.AverageResponseTime)
	metric("ledger_mutations_total", "counter", "Successful add, delete, clear and import actions", atomic.LoadInt64(&s.appMetrics.mutations))
	metric("ledger_imports_total", "counter", "Successful imports", atomic.LoadInt64(&s.appMetrics.imports))
	metric("ledger_exports_total", "counter", "Successful exports", atomic.LoadInt64(&s.appMetrics.exports))

	stats := s.cacheManager.Stats()
	labeled := func(name, kind, help string, value func(cache.Stats) int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		for _, cname := range s.cacheManager.Names() {
			fmt.Fprintf(w, "%s{type=%q} %d\n", name, cname, value(stats[cname]))
		}
		fmt.Fprintln(w)
	}
	labeled("cache_hits_total", "counter", "Total cache hits", func(st cache.Stats) int64 { return st.Hits })
	labeled("cache_misses_total", "counter", "Total cache misses", func(st cache.Stats) int64 { return st.Misses })
	labeled("cache_evictions_total", "counter", "Entries evicted for size", func(st cache.Stats) int64 { return st.Evictions })
	labeled("cache_entries", "gauge", "Current cache entries", func(st cache.Stats) int64 { return int64(st.Entries) })

	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.appMetrics.uptime).Seconds()))
}
