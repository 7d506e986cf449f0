package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
)

// appMetrics counts domain level events for /metrics.
type appMetrics struct {
	recordsWritten int64
	invoices       int64
	exports        int64
	uptime         time.Time
}

// recordWrite counts and logs a successful write.
func (s *Server) recordWrite(r *http.Request, op, entity, id string) {
	atomic.AddInt64(&s.appMetrics.recordsWritten, 1)
	log.NewStructuredLogger(log.FromContext(r.Context())).LogRecordWritten(r.Context(), op, owner(r), entity, id)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().NoStore().Write(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady checks storage reachability and schema.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if err := s.svc.Ready(ctx); err != nil {
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
		var perr *core.PreconditionError
		if errors.As(err, &perr) {
			checks["storage"] = map[string]any{"status": "failed", "hint": perr.Hint}
		} else {
			checks["storage"] = map[string]any{"status": "failed"}
		}
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed",
			log.FieldComponent, log.ComponentStorage,
			log.FieldError, err.Error())
	} else {
		checks["storage"] = map[string]any{"status": "ok"}
	}

	cacheEntries := 0
	if s.dashboardCache != nil {
		cacheEntries = s.dashboardCache.Size()
	}
	checks["cache"] = map[string]any{"dashboard_entries": cacheEntries, "status": "ok"}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients(), "status": "ok"}

	NewJSONResponse().Status(httpStatus).NoStore().Write(w, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	cacheEntries := 0
	if s.dashboardCache != nil {
		cacheEntries = s.dashboardCache.Size()
	}

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_responses_errors_total HTTP error responses by class\n")
	fmt.Fprintf(w, "# TYPE http_responses_errors_total counter\n")
	fmt.Fprintf(w, "http_responses_errors_total{class=\"4xx\"} %d\n", traceMetrics.ClientErrors)
	fmt.Fprintf(w, "http_responses_errors_total{class=\"5xx\"} %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_avg_ms Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_ms gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_ms %.2f\n\n", float64(traceMetrics.AverageResponseTime.Microseconds())/1000)

	fmt.Fprintf(w, "# HELP records_written_total Records created, updated or deleted\n")
	fmt.Fprintf(w, "# TYPE records_written_total counter\n")
	fmt.Fprintf(w, "records_written_total %d\n\n", atomic.LoadInt64(&s.appMetrics.recordsWritten))

	fmt.Fprintf(w, "# HELP invoices_rendered_total Invoices rendered\n")
	fmt.Fprintf(w, "# TYPE invoices_rendered_total counter\n")
	fmt.Fprintf(w, "invoices_rendered_total %d\n\n", atomic.LoadInt64(&s.appMetrics.invoices))

	fmt.Fprintf(w, "# HELP exports_total CSV exports served\n")
	fmt.Fprintf(w, "# TYPE exports_total counter\n")
	fmt.Fprintf(w, "exports_total %d\n\n", atomic.LoadInt64(&s.appMetrics.exports))

	fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries{type=\"dashboard\"} %d\n\n", cacheEntries)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP rate_limit_rejected_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_rejected_total counter\n")
	fmt.Fprintf(w, "rate_limit_rejected_total %d\n\n", rateLimitMetrics.Rejected)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}
