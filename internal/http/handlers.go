package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lifetrack/internal/core"
	applog "lifetrack/internal/log"
	"lifetrack/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	checks["templates"] = map[string]interface{}{
		"pages":  len(s.templates),
		"status": "ok",
	}

	if s.storage == nil {
		checks["storage"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if err := s.storage.Ping(ctx); err != nil {
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	checks["sessions"] = map[string]interface{}{
		"entries": s.sessions.Cache().Size(),
		"status":  "ok",
	}
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	// Prometheus-like text format
	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_avg_microseconds Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP expenses_created_total Expenses created through the web UI\n")
	fmt.Fprintf(w, "# TYPE expenses_created_total counter\n")
	fmt.Fprintf(w, "expenses_created_total %d\n\n", s.appMetrics.expensesCreated.Load())

	fmt.Fprintf(w, "# HELP tasks_created_total Tasks created through the web UI\n")
	fmt.Fprintf(w, "# TYPE tasks_created_total counter\n")
	fmt.Fprintf(w, "tasks_created_total %d\n\n", s.appMetrics.tasksCreated.Load())

	fmt.Fprintf(w, "# HELP template_render_errors_total Failed page renders\n")
	fmt.Fprintf(w, "# TYPE template_render_errors_total counter\n")
	fmt.Fprintf(w, "template_render_errors_total %d\n\n", s.appMetrics.renderErrors.Load())

	fmt.Fprintf(w, "# HELP session_entries Current visitor sessions\n")
	fmt.Fprintf(w, "# TYPE session_entries gauge\n")
	fmt.Fprintf(w, "session_entries %d\n\n", s.sessions.Cache().Size())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP invalid_ip_attempts_total Requests with an unparseable client IP\n")
	fmt.Fprintf(w, "# TYPE invalid_ip_attempts_total counter\n")
	fmt.Fprintf(w, "invalid_ip_attempts_total %d\n\n", securityMetrics.InvalidIPAttempts)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}

type dashboardView struct {
	Today       string
	Tasks       []core.Task
	Affirmation string
	Hydration   core.HydrationSummary
}

// handleDashboard shows today's tasks, a random affirmation and hydration.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tasks, err := s.tasks.Today(ctx)
	if err != nil {
		s.serverError(w, r, "Failed to load today's tasks", err, applog.ComponentTasks, applog.OpList)
		return
	}
	affirmation, err := s.wellness.RandomAffirmation(ctx, services.DashboardAffirmation)
	if err != nil {
		s.serverError(w, r, "Failed to pick affirmation", err, applog.ComponentWellness, applog.OpRead)
		return
	}
	hydration, err := s.wellness.Hydration(ctx)
	if err != nil {
		s.serverError(w, r, "Failed to load hydration", err, applog.ComponentWellness, applog.OpRead)
		return
	}

	s.render(w, r, "dashboard", "Dashboard", dashboardView{
		Today:       core.DateOf(time.Now()).String(),
		Tasks:       tasks,
		Affirmation: affirmation,
		Hydration:   hydration,
	})
}
