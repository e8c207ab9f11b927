package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"lifetrack/internal/charts"
	"lifetrack/internal/core"
	applog "lifetrack/internal/log"
	"lifetrack/internal/middleware/ratelimit"
	"lifetrack/internal/middleware/security"
	"lifetrack/internal/middleware/trace"
	"lifetrack/internal/services"
	"lifetrack/internal/session"
	appweb "lifetrack/web"
)

// pages lists the templates rendered inside base.html.
var pages = []string{
	"dashboard", "tasks", "calendar", "productivity", "water",
	"expenses", "affirmations", "activities", "workouts", "nutrition",
}

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the server needs.
type Dependencies struct {
	Tasks    *services.TaskService
	Expenses *services.ExpenseService
	Wellness *services.WellnessService
	Sessions *session.Store
	Charts   *charts.Renderer
	Storage  Pinger
	Logger   *applog.Logger

	RateLimitPerMinute int
	NutritionGoals     core.NutritionGoals
}

type Server struct {
	http.Server
	templates map[string]*template.Template

	tasks    *services.TaskService
	expenses *services.ExpenseService
	wellness *services.WellnessService
	sessions *session.Store
	charts   *charts.Renderer
	storage  Pinger
	goals    core.NutritionGoals

	logger           *applog.Logger
	log              *applog.StructuredLogger
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime          time.Time
	expensesCreated atomic.Int64
	tasksCreated    atomic.Int64
	renderErrors    atomic.Int64
}

func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.ParseFS(appweb.TemplatesFS, "templates/base.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		out[page] = t
	}
	return out, nil
}

// NewServer configures routes, templates and middleware, returning a
// ready-to-run server.
func NewServer(addr string, deps Dependencies) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	logger := deps.Logger.WithComponent(applog.ComponentHTTP)
	goals := deps.NutritionGoals
	if goals.Calories <= 0 && goals.Protein <= 0 {
		goals = core.DefaultNutritionGoals()
	}
	renderer := deps.Charts
	if renderer == nil {
		renderer = charts.NewRenderer()
	}

	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		templates:        templates,
		tasks:            deps.Tasks,
		expenses:         deps.Expenses,
		wellness:         deps.Wellness,
		sessions:         deps.Sessions,
		charts:           renderer,
		storage:          deps.Storage,
		goals:            goals,
		logger:           logger,
		log:              applog.NewStructuredLogger(logger),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(deps.Logger, detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)(h)
	h = detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.traceMiddleware.Middleware(h)
	s.Handler = h

	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err.Error())
	}

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.Handle("GET /healthz", security.NoStore(http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /readyz", security.NoStore(http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", security.NoStore(http.HandlerFunc(s.handleMetrics)))

	mux.HandleFunc("GET /tasks", s.handleTasks)
	mux.HandleFunc("POST /tasks", s.handleCreateTask)
	mux.HandleFunc("POST /tasks/{id}/complete", s.handleCompleteTask)
	mux.HandleFunc("POST /tasks/{id}/delete", s.handleDeleteTask)
	mux.HandleFunc("GET /calendar", s.handleCalendar)
	mux.HandleFunc("GET /productivity", s.handleProductivity)
	mux.HandleFunc("GET /productivity/status.png", s.handleStatusChart)
	mux.HandleFunc("GET /productivity/completed.png", s.handleCompletedChart)

	mux.HandleFunc("GET /expenses", s.handleExpenses)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("POST /expenses/{id}/delete", s.handleDeleteExpense)
	mux.HandleFunc("POST /budgets", s.handleSetBudget)
	mux.HandleFunc("POST /categories/seed", s.handleSeedCategories)
	mux.Handle("GET /expenses/chart-data", security.NoStore(http.HandlerFunc(s.handleChartData)))
	mux.HandleFunc("GET /expenses/charts/categories.png", s.handleCategoryChart)
	mux.HandleFunc("GET /expenses/charts/months.png", s.handleMonthlyChart)

	mux.HandleFunc("GET /water", s.handleWater)
	mux.HandleFunc("POST /water", s.handleAddWater)
	mux.HandleFunc("POST /water/reset", s.handleResetWater)
	mux.HandleFunc("GET /affirmations", s.handleAffirmations)
	mux.HandleFunc("POST /affirmations", s.handleAddAffirmation)
	mux.HandleFunc("GET /affirmations/generate", s.handleGenerateAffirmation)
	mux.Handle("GET /affirmations/random", security.NoStore(http.HandlerFunc(s.handleRandomAffirmation)))
	mux.HandleFunc("GET /activities", s.handleActivities)
	mux.HandleFunc("POST /activities", s.handleAddActivity)
	mux.HandleFunc("POST /activities/{id}/delete", s.handleDeleteActivity)
	mux.HandleFunc("GET /workouts", s.handleWorkouts)
	mux.HandleFunc("POST /workouts", s.handleWorkouts)
	mux.HandleFunc("GET /nutrition", s.handleNutrition)
	mux.HandleFunc("POST /nutrition", s.handleAddMeal)
	mux.HandleFunc("POST /nutrition/reset", s.handleResetNutrition)
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	NewResponse().
		Status(http.StatusTooManyRequests).
		BodyString("Rate limit exceeded. Please try again later.").
		Write(w)
}

// pageData wraps every page's payload with the layout fields.
type pageData struct {
	Title   string
	Active  string
	Flashes []session.Flash
	Data    any
}

// render executes a page into a buffer so a template failure never leaves a
// half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page, title string, data any) {
	t, ok := s.templates[page]
	if !ok {
		s.serverError(w, r, "Unknown template", fmt.Errorf("template %q not loaded", page), applog.ComponentTemplate, applog.OpRender)
		return
	}

	sid := s.sessions.ID(w, r)
	var buf bytes.Buffer
	err := t.ExecuteTemplate(&buf, "base", pageData{
		Title:   title,
		Active:  page,
		Flashes: s.sessions.PopFlashes(sid),
		Data:    data,
	})
	if err != nil {
		s.appMetrics.renderErrors.Add(1)
		s.serverError(w, r, "Template execution failed", err, applog.ComponentTemplate, applog.OpRender)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// redirectWithFlash stores a flash for the visitor and redirects (303).
// An empty message only redirects.
func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, to, kind, message string) {
	if message != "" {
		s.sessions.AddFlash(s.sessions.ID(w, r), kind, message)
	}
	NewResponse().Redirect(to).Write(w)
}

// serverError logs err with the request id and answers 500.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, component, op string) {
	ctx := r.Context()
	fields := applog.NewFields().
		WithRequestID(trace.GetRequestID(ctx)).
		WithErrorType(applog.ErrorTypeInternal)
	s.log.LogError(ctx, msg, err, component, op, fields)
	InternalServerError("Internal server error").Write(w)
}

// validationError answers 422 when err is a validation failure and reports
// whether it did.
func validationError(w http.ResponseWriter, err error) bool {
	msg, ok := validationMessage(err)
	if !ok {
		return false
	}
	UnprocessableEntityError(msg).Write(w)
	return true
}

// writePNG serves a rendered chart. No data yields 204.
func (s *Server) writePNG(w http.ResponseWriter, r *http.Request, png []byte, err error) {
	if err != nil {
		if errors.Is(err, charts.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.serverError(w, r, "Chart rendering failed", err, applog.ComponentCharts, applog.OpRender)
		return
	}
	NewResponse().
		Header("Content-Type", "image/png").
		Header("Cache-Control", "no-store").
		Body(png).
		Write(w)
}
