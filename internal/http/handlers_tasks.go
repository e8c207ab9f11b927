package http

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"lifetrack/internal/charts"
	"lifetrack/internal/core"
	applog "lifetrack/internal/log"
	"lifetrack/internal/repo"
	"lifetrack/internal/session"
)

var windowKeywords = []string{
	string(core.WindowToday),
	string(core.WindowWeek),
	string(core.WindowMonth),
	string(core.WindowAll),
}

type tasksView struct {
	Today   string
	Filter  string
	Filters []string
	Tasks   []core.Task
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	filter := string(core.ParseWindow(r.URL.Query().Get("filter")))
	tasks, err := s.tasks.List(r.Context(), filter)
	if err != nil {
		s.serverError(w, r, "Failed to list tasks", err, applog.ComponentTasks, applog.OpList)
		return
	}
	s.render(w, r, "tasks", "Tasks", tasksView{
		Today:   core.DateOf(time.Now()).String(),
		Filter:  filter,
		Filters: windowKeywords,
		Tasks:   tasks,
	})
}

// handleCreateTask answers 400 with a plain message on bad input and
// redirects to the calendar on success.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	desc := sanitizeInput(r.Form.Get("description"))
	rawDate := sanitizeInput(r.Form.Get("date"))
	if desc == "" || rawDate == "" {
		NewResponse().Status(http.StatusBadRequest).BodyString("Missing data").Write(w)
		return
	}
	date, err := core.ParseDate(rawDate)
	if err != nil {
		NewResponse().Status(http.StatusBadRequest).BodyString("Invalid date format").Write(w)
		return
	}

	if _, err := s.tasks.Create(r.Context(), desc, date); err != nil {
		if msg, ok := validationMessage(err); ok {
			NewResponse().Status(http.StatusBadRequest).BodyString(msg).Write(w)
			return
		}
		s.serverError(w, r, "Failed to create task", err, applog.ComponentTasks, applog.OpCreate)
		return
	}
	s.appMetrics.tasksCreated.Add(1)
	s.redirectWithFlash(w, r, "/calendar", session.FlashSuccess, "Task added")
}

// taskAction runs op on the {id} task and redirects back. Unknown ids are a
// silent no-op.
func (s *Server) taskAction(w http.ResponseWriter, r *http.Request, op string, fn func(id int64) error) {
	back := redirectBack(r, "/tasks")
	id, err := ParseID(r)
	if err != nil {
		s.redirectWithFlash(w, r, back, session.FlashError, "Invalid task id")
		return
	}
	if err := fn(id); err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.serverError(w, r, "Task update failed", err, applog.ComponentTasks, op)
		return
	}
	s.redirectWithFlash(w, r, back, "", "")
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	s.taskAction(w, r, applog.OpComplete, func(id int64) error {
		return s.tasks.Complete(r.Context(), id)
	})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	s.taskAction(w, r, applog.OpDelete, func(id int64) error {
		return s.tasks.Delete(r.Context(), id)
	})
}

type calendarDay struct {
	Date  string
	Tasks []string
}

type calendarView struct {
	Days []calendarDay
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := s.tasks.Calendar(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to load calendar", err, applog.ComponentTasks, applog.OpList)
		return
	}

	view := calendarView{Days: make([]calendarDay, 0, len(cal.ByDate))}
	for date, titles := range cal.ByDate {
		view.Days = append(view.Days, calendarDay{Date: date, Tasks: titles})
	}
	sort.Slice(view.Days, func(i, j int) bool { return view.Days[i].Date < view.Days[j].Date })

	s.render(w, r, "calendar", "Calendar", view)
}

type productivityView struct {
	Stats core.ProductivityStats
}

func (s *Server) handleProductivity(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tasks.Productivity(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to compute productivity", err, applog.ComponentTasks, applog.OpRead)
		return
	}
	s.render(w, r, "productivity", "Productivity", productivityView{Stats: stats})
}

func (s *Server) productivityChart(w http.ResponseWriter, r *http.Request, draw func(*charts.Renderer, core.ProductivityStats) ([]byte, error)) {
	stats, err := s.tasks.Productivity(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to compute productivity", err, applog.ComponentTasks, applog.OpRead)
		return
	}
	png, err := draw(s.charts, stats)
	s.writePNG(w, r, png, err)
}

func (s *Server) handleStatusChart(w http.ResponseWriter, r *http.Request) {
	s.productivityChart(w, r, (*charts.Renderer).TaskStatusPie)
}

func (s *Server) handleCompletedChart(w http.ResponseWriter, r *http.Request) {
	s.productivityChart(w, r, (*charts.Renderer).CompletedBars)
}
