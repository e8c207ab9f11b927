package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lifetrack/internal/core"
	"lifetrack/internal/external"
	applog "lifetrack/internal/log"
	"lifetrack/internal/middleware/trace"
	"lifetrack/internal/repo"
	"lifetrack/internal/services"
	"lifetrack/internal/session"
)

type waterView struct {
	Summary core.HydrationSummary
}

func (s *Server) handleWater(w http.ResponseWriter, r *http.Request) {
	summary, err := s.wellness.Hydration(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to load hydration", err, applog.ComponentWellness, applog.OpRead)
		return
	}
	s.render(w, r, "water", "Water", waterView{Summary: summary})
}

func (s *Server) handleAddWater(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	amount, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil {
		s.redirectWithFlash(w, r, "/water", session.FlashError, "Please enter a valid amount")
		return
	}
	if _, err := s.wellness.AddWater(r.Context(), amount); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			s.redirectWithFlash(w, r, "/water", session.FlashError, "Please enter a valid amount")
			return
		}
		s.serverError(w, r, "Failed to add water", err, applog.ComponentWellness, applog.OpCreate)
		return
	}
	s.redirectWithFlash(w, r, "/water", session.FlashSuccess, "Water intake added!")
}

func (s *Server) handleResetWater(w http.ResponseWriter, r *http.Request) {
	if _, err := s.wellness.ResetWater(r.Context()); err != nil {
		s.serverError(w, r, "Failed to reset water log", err, applog.ComponentWellness, applog.OpReset)
		return
	}
	s.redirectWithFlash(w, r, "/water", session.FlashSuccess, "Water log reset successfully")
}

type affirmationsView struct {
	Affirmations []core.Affirmation
}

func (s *Server) handleAffirmations(w http.ResponseWriter, r *http.Request) {
	list, err := s.wellness.Affirmations(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to list affirmations", err, applog.ComponentWellness, applog.OpList)
		return
	}
	s.render(w, r, "affirmations", "Affirmations", affirmationsView{Affirmations: list})
}

func (s *Server) handleAddAffirmation(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	if _, err := s.wellness.AddAffirmation(r.Context(), sanitizeInput(r.Form.Get("message"))); err != nil {
		if validationError(w, err) {
			return
		}
		s.serverError(w, r, "Failed to add affirmation", err, applog.ComponentWellness, applog.OpCreate)
		return
	}
	s.redirectWithFlash(w, r, "/affirmations", session.FlashSuccess, "Affirmation added")
}

// handleGenerateAffirmation fetches an affirmation from the outside API and
// stores it. Upstream failures answer 502.
func (s *Server) handleGenerateAffirmation(w http.ResponseWriter, r *http.Request) {
	if _, err := s.wellness.GenerateAffirmation(r.Context()); err != nil {
		fields := applog.NewFields().
			WithRequestID(trace.GetRequestID(r.Context())).
			WithErrorType(applog.ErrorTypeNetwork)
		s.log.LogError(r.Context(), "Affirmation generation failed", err, applog.ComponentExternal, applog.OpFetch, fields)
		BadGatewayError("Failed to generate affirmation").Write(w)
		return
	}
	s.redirectWithFlash(w, r, "/affirmations", session.FlashSuccess, "New affirmation saved")
}

// handleRandomAffirmation serves {"affirmation": "..."}.
func (s *Server) handleRandomAffirmation(w http.ResponseWriter, r *http.Request) {
	msg, err := s.wellness.RandomAffirmation(r.Context(), services.FallbackAffirmation)
	if err != nil {
		s.serverError(w, r, "Failed to pick affirmation", err, applog.ComponentWellness, applog.OpRead)
		return
	}
	NewResponse().JSON(map[string]string{"affirmation": msg}).Write(w)
}

type activitiesView struct {
	Today        string
	Filter       string
	Filters      []string
	Activities   []core.Activity
	TotalMinutes string
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	filter := string(core.ParseWindow(r.URL.Query().Get("filter")))
	activities, err := s.wellness.Activities(r.Context(), filter)
	if err != nil {
		s.serverError(w, r, "Failed to list activities", err, applog.ComponentWellness, applog.OpList)
		return
	}
	s.render(w, r, "activities", "Activities", activitiesView{
		Today:        core.DateOf(time.Now()).String(),
		Filter:       filter,
		Filters:      windowKeywords,
		Activities:   activities.Activities,
		TotalMinutes: formatMinutes(activities.TotalMinutes),
	})
}

func parseActivity(form interface{ Get(string) string }) (core.Activity, error) {
	a := core.Activity{ActivityType: sanitizeInput(form.Get("activity_type"))}

	duration, err := strconv.ParseFloat(strings.TrimSpace(form.Get("duration")), 64)
	if err != nil {
		return core.Activity{}, core.ErrInvalidDuration
	}
	a.Duration = duration

	if raw := strings.TrimSpace(form.Get("date")); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			return core.Activity{}, err
		}
		a.Date = d
	}
	return a, nil
}

func (s *Server) handleAddActivity(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	a, err := parseActivity(r.Form)
	if err == nil {
		_, err = s.wellness.AddActivity(r.Context(), a)
	}
	if err != nil {
		if validationError(w, err) {
			return
		}
		s.serverError(w, r, "Failed to log activity", err, applog.ComponentWellness, applog.OpCreate)
		return
	}
	s.redirectWithFlash(w, r, "/activities", session.FlashSuccess, "Activity logged")
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	back := redirectBack(r, "/activities")
	id, err := ParseID(r)
	if err != nil {
		s.redirectWithFlash(w, r, back, session.FlashError, "Invalid activity id")
		return
	}
	if err := s.wellness.DeleteActivity(r.Context(), id); err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.serverError(w, r, "Failed to delete activity", err, applog.ComponentWellness, applog.OpDelete)
		return
	}
	s.redirectWithFlash(w, r, back, "", "")
}

type workoutsView struct {
	Workout *external.Exercise
	Error   string
}

// handleWorkouts shows the form on GET and a random exercise on POST.
// Lookup failures are rendered inline.
func (s *Server) handleWorkouts(w http.ResponseWriter, r *http.Request) {
	var view workoutsView
	if r.Method == http.MethodPost {
		ex, err := s.wellness.Workout(r.Context())
		switch {
		case errors.Is(err, services.ErrSourceUnavailable):
			view.Error = "Workout suggestions are not configured."
		case err != nil:
			view.Error = external.UserMessage(err)
		default:
			view.Workout = &ex
		}
	}
	s.render(w, r, "workouts", "Workouts", view)
}

type nutritionView struct {
	Meals  []core.Meal
	Totals core.NutritionGoals
	Goals  core.NutritionGoals
}

func (s *Server) handleNutrition(w http.ResponseWriter, r *http.Request) {
	meals := s.sessions.Meals(s.sessions.ID(w, r))
	s.render(w, r, "nutrition", "Nutrition", nutritionView{
		Meals:  meals,
		Totals: core.NutritionTotals(meals),
		Goals:  s.goals,
	})
}

func (s *Server) handleAddMeal(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	calories, errCal := parseNonNegativeInt(r.Form.Get("calories"))
	protein, errProt := parseNonNegativeInt(r.Form.Get("protein"))
	meal := core.Meal{
		Food:     sanitizeInput(r.Form.Get("food_name")),
		Calories: calories,
		Protein:  protein,
		MealType: sanitizeInput(r.Form.Get("meal_type")),
		Time:     time.Now().Format("15:04"),
	}
	err := errors.Join(errCal, errProt)
	if err == nil {
		err = meal.Validate()
	}
	if err != nil {
		msg, _ := validationMessage(err)
		s.redirectWithFlash(w, r, "/nutrition", session.FlashError, msg)
		return
	}

	s.sessions.AddMeal(s.sessions.ID(w, r), meal)
	s.redirectWithFlash(w, r, "/nutrition", session.FlashSuccess, "Food item added successfully!")
}

func (s *Server) handleResetNutrition(w http.ResponseWriter, r *http.Request) {
	s.sessions.ResetMeals(s.sessions.ID(w, r))
	s.redirectWithFlash(w, r, "/nutrition", session.FlashSuccess, "Nutrition log has been reset")
}
