package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifetrack/internal/core"
	"lifetrack/internal/external"
	applog "lifetrack/internal/log"
	"lifetrack/internal/repo/memory"
	"lifetrack/internal/services"
	"lifetrack/internal/session"
)

type fakeAffirmations struct {
	msg string
	err error
}

func (f fakeAffirmations) Fetch(context.Context) (string, error) { return f.msg, f.err }

type fakeExercises struct {
	ex  external.Exercise
	err error
}

func (f fakeExercises) Random(context.Context, string) (external.Exercise, error) { return f.ex, f.err }

type testOptions struct {
	affirmations services.AffirmationSource
	exercises    services.ExerciseSource
	rateLimit    int
}

func newTestServer(t *testing.T, opts testOptions) (*Server, *memory.Store) {
	t.Helper()
	logger := applog.NewText(io.Discard, slog.LevelError, "test")
	store := memory.New()

	srv, err := NewServer(":0", Dependencies{
		Tasks:              services.NewTaskService(store, logger),
		Expenses:           services.NewExpenseService(store, nil, logger),
		Wellness:           services.NewWellnessService(store, opts.affirmations, opts.exercises, services.WellnessConfig{WaterGoalML: 2000}, logger),
		Sessions:           session.NewStore(time.Hour, 100),
		Storage:            store,
		Logger:             logger,
		RateLimitPerMinute: opts.rateLimit,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

// client replays the session cookie between requests like a browser.
type client struct {
	t       *testing.T
	srv     *Server
	cookies []*http.Cookie
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rr := httptest.NewRecorder()
	c.srv.Handler.ServeHTTP(rr, req)
	if got := rr.Result().Cookies(); len(got) > 0 {
		c.cookies = got
	}
	return rr
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func TestHealthReadyAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})
	c := &client{t: t, srv: srv}

	rr := c.get("/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	rr = c.get("/readyz")
	require.Equal(t, http.StatusOK, rr.Code)
	var ready map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ready))
	assert.Equal(t, "ready", ready["status"])

	rr = c.get("/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
	assert.Contains(t, rr.Body.String(), "expenses_created_total 0")
}

func TestMiddlewareHeaders(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})
	c := &client{t: t, srv: srv}

	rr := c.get("/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "default-src 'self'")

	rr = c.get("/static/style.css")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Cache-Control"), "max-age=3600")

	rr = c.get("/does-not-exist")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDashboard(t *testing.T) {
	srv, store := newTestServer(t, testOptions{})
	c := &client{t: t, srv: srv}

	rr := c.get("/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), services.DashboardAffirmation)
	assert.Contains(t, rr.Body.String(), "Nothing scheduled for today.")

	ctx := context.Background()
	_, err := store.CreateTask(ctx, core.Task{Description: "Water plants", Date: core.DateOf(time.Now())})
	require.NoError(t, err)
	_, err = store.CreateTask(ctx, core.Task{Description: "Old chore", Date: core.DateOf(time.Now()).AddDays(-3)})
	require.NoError(t, err)
	_, err = store.CreateAffirmation(ctx, core.Affirmation{Message: "I can do hard things"})
	require.NoError(t, err)

	rr = c.get("/")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Water plants")
	assert.NotContains(t, body, "Old chore")
	assert.Contains(t, body, "I can do hard things")
}

func TestTaskFlow(t *testing.T) {
	srv, store := newTestServer(t, testOptions{})
	c := &client{t: t, srv: srv}
	today := core.DateOf(time.Now()).String()

	rr := c.postForm("/tasks", url.Values{"description": {"Buy milk"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Missing data", rr.Body.String())

	rr = c.postForm("/tasks", url.Values{"description": {"Buy milk"}, "date": {"06/03/2024"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid date format", rr.Body.String())

	rr = c.postForm("/tasks", url.Values{"description": {"Buy milk"}, "date": {today}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/calendar", rr.Header().Get("Location"))

	rr = c.get("/calendar")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Buy milk")
	assert.Contains(t, rr.Body.String(), "Task added")

	tasks, err := store.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	id := tasks[0].ID

	req := httptest.NewRequest(http.MethodPost, "/tasks/"+itoa(id)+"/complete", nil)
	req.Header.Set("Referer", "http://example.com/tasks?filter=week")
	rr = c.do(req)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/tasks?filter=week", rr.Header().Get("Location"))

	tasks, err = store.ListTasks(context.Background())
	require.NoError(t, err)
	assert.True(t, tasks[0].Completed)

	rr = c.get("/productivity")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<strong>1</strong> completed")

	rr = c.get("/productivity/status.png")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	// Unknown ids redirect without error.
	rr = c.postForm("/tasks/999/delete", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/tasks", rr.Header().Get("Location"))

	rr = c.postForm("/tasks/"+itoa(id)+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	tasks, err = store.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestProductivityChartsWithoutTasks(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})
	c := &client{t: t, srv: srv}

	rr := c.get("/productivity/status.png")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = c.get("/productivity/completed.png")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
}

func TestExpenseFlow(t *testing.T) {
	srv, store := newTestServer(t, testOptions{})
	c := &client{t: t, srv: srv}

	rr := c.get("/expenses/charts/categories.png")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = c.postForm("/categories/seed", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	categories, err := store.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, len(core.DefaultCategories()))
	food := categories[0]

	rr = c.postForm("/expenses", url.Values{"description": {"Lunch"}, "amount": {"abc"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid amount")

	rr = c.postForm("/expenses", url.Values{"description": {"Lunch"}, "amount": {"5"}, "category_id": {"999"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Unknown category")

	rr = c.postForm("/expenses", url.Values{"description": {"Lunch"}, "amount": {"12,50"}, "category_id": {itoa(food.ID)}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/expenses", rr.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(`{"description":"Book","amount":"7.5"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = c.do(req)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "7.50", created["amount"])
	assert.Nil(t, created["category_id"])

	rr = c.get("/expenses")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Expense added")
	assert.Contains(t, body, "Lunch")
	assert.Contains(t, body, "Book")
	assert.Contains(t, body, "Total: 20.00")

	rr = c.get("/expenses?category_filter=" + itoa(food.ID) + "&time_filter=month")
	require.Equal(t, http.StatusOK, rr.Code)
	body = rr.Body.String()
	assert.Contains(t, body, "Total: 12.50")
	assert.NotContains(t, body, "Book")

	rr = c.get("/expenses?category_filter=abc")
	require.Equal(t, http.StatusOK, rr.Code)
	body = rr.Body.String()
	assert.Contains(t, body, "Total: 0.00")
	assert.NotContains(t, body, "Lunch")

	rr = c.get("/expenses/chart-data")
	require.Equal(t, http.StatusOK, rr.Code)
	var chart core.ChartData
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &chart))
	require.NotEmpty(t, chart.Categories)
	assert.Equal(t, food.Name, chart.Categories[0].Name)
	assert.InDelta(t, 12.5, chart.Categories[0].Total, 0.001)
	assert.Len(t, chart.Months, core.DefaultMonthsBack)

	rr = c.get("/expenses/charts/categories.png")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	rr = c.get("/expenses/charts/months.png")
	require.Equal(t, http.StatusOK, rr.Code)

	expenses, err := store.ListExpenses(context.Background())
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	rr = c.postForm("/expenses/"+itoa(expenses[0].ID)+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	expenses, err = store.ListExpenses(context.Background())
	require.NoError(t, err)
	assert.Len(t, expenses, 1)

	assert.Contains(t, c.get("/metrics").Body.String(), "expenses_created_total 2")
}

func TestChartRoutesServePNG(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})
	c := &client{t: t, srv: srv}

	require.Equal(t, http.StatusSeeOther, c.postForm("/categories/seed", nil).Code)
	require.Equal(t, http.StatusSeeOther, c.postForm("/expenses", url.Values{"description": {"Rent"}, "amount": {"700"}, "category_id": {"1"}}).Code)
	require.Equal(t, http.StatusSeeOther, c.postForm("/tasks", url.Values{"description": {"Water plants"}, "date": {core.DateOf(time.Now()).String()}}).Code)

	pngSignature := "\x89PNG\r\n\x1a\n"
	for _, path := range []string{
		"/expenses/charts/categories.png",
		"/expenses/charts/months.png",
		"/productivity/status.png",
		"/productivity/completed.png",
	} {
		rr := c.get(path)
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"), path)
		assert.True(t, strings.HasPrefix(rr.Body.String(), pngSignature), path)
	}
}

func TestSetBudget(t *testing.T) {
	srv, store := newTestServer(t, testOptions{})
	c := &client{t: t, srv: srv}

	cat, err := store.CreateCategory(context.Background(), core.ExpenseCategory{Name: "Food", Color: "#FF6384"})
	require.NoError(t, err)

	rr := c.postForm("/budgets", url.Values{"category_id": {itoa(cat.ID)}, "amount": {"-1"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = c.postForm("/budgets", url.Values{"category_id": {itoa(cat.ID)}, "amount": {"100"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, c.get("/expenses").Body.String(), "Budget created")

	rr = c.postForm("/budgets", url.Values{"category_id": {itoa(cat.ID)}, "amount": {"150"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	body := c.get("/expenses").Body.String()
	assert.Contains(t, body, "Budget updated")
	assert.Contains(t, body, "0.00 / 150.00")

	now := time.Now()
	budgets, err := store.ListBudgets(context.Background(), int(now.Month()), now.Year())
	require.NoError(t, err)
	assert.Len(t, budgets, 1)

	rr = c.postForm("/budgets", url.Values{"category_id": {"42"}, "amount": {"10"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestWaterFlow(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})
	c := &client{t: t, srv: srv}

	rr := c.postForm("/water", url.Values{"amount": {"lots"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, c.get("/water").Body.String(), "Please enter a valid amount")

	rr = c.postForm("/water", url.Values{"amount": {"500"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	body := c.get("/water").Body.String()
	assert.Contains(t, body, "Water intake added!")
	assert.Contains(t, body, "500 / 2000 ml")

	rr = c.postForm("/water/reset", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	body = c.get("/water").Body.String()
	assert.Contains(t, body, "Water log reset successfully")
	assert.Contains(t, body, "No water logged today.")
}

func TestAffirmations(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{affirmations: fakeAffirmations{msg: "You are enough"}})
	c := &client{t: t, srv: srv}

	rr := c.get("/affirmations/random")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"affirmation":"Stay positive and keep going!"}`, rr.Body.String())

	rr = c.postForm("/affirmations", url.Values{"message": {"  "}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = c.get("/affirmations/generate")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/affirmations", rr.Header().Get("Location"))

	rr = c.get("/affirmations/random")
	assert.JSONEq(t, `{"affirmation":"You are enough"}`, rr.Body.String())

	rr = c.postForm("/affirmations", url.Values{"message": {"I am calm"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	body := c.get("/affirmations").Body.String()
	assert.Contains(t, body, "You are enough")
	assert.Contains(t, body, "I am calm")
}

func TestGenerateAffirmationFailure(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{affirmations: fakeAffirmations{err: &external.StatusError{StatusCode: 503}}})
	c := &client{t: t, srv: srv}

	rr := c.get("/affirmations/generate")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Failed to generate affirmation")
}

func TestActivities(t *testing.T) {
	srv, store := newTestServer(t, testOptions{})
	c := &client{t: t, srv: srv}

	rr := c.postForm("/activities", url.Values{"activity_type": {"Run"}, "duration": {"soon"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid duration")

	rr = c.postForm("/activities", url.Values{"activity_type": {"Run"}, "duration": {"30"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	old := core.DateOf(time.Now()).AddDays(-60).String()
	rr = c.postForm("/activities", url.Values{"activity_type": {"Swim"}, "duration": {"45.5"}, "date": {old}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	body := c.get("/activities?filter=today").Body.String()
	assert.Contains(t, body, "Run")
	assert.NotContains(t, body, "Swim")
	assert.Contains(t, body, "Total: 30 min")

	body = c.get("/activities").Body.String()
	assert.Contains(t, body, "Swim")
	assert.Contains(t, body, "Total: 75.5 min")

	list, err := store.ListActivities(context.Background())
	require.NoError(t, err)
	rr = c.postForm("/activities/"+itoa(list[0].ID)+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	list, err = store.ListActivities(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWorkouts(t *testing.T) {
	ex := external.Exercise{Name: "Push-up", Type: "strength", Muscle: "chest", Difficulty: "beginner", Instructions: "Push."}
	srv, _ := newTestServer(t, testOptions{exercises: fakeExercises{ex: ex}})
	c := &client{t: t, srv: srv}

	rr := c.get("/workouts")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "Push-up")

	rr = c.postForm("/workouts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Push-up")

	srv, _ = newTestServer(t, testOptions{exercises: fakeExercises{err: external.ErrNoExercises}})
	c = &client{t: t, srv: srv}
	rr = c.postForm("/workouts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No exercises found.")

	srv, _ = newTestServer(t, testOptions{exercises: fakeExercises{err: errors.New("dial tcp: refused")}})
	c = &client{t: t, srv: srv}
	rr = c.postForm("/workouts", nil)
	assert.Contains(t, rr.Body.String(), "An error occurred while fetching data: dial tcp: refused")
}

func TestNutritionIsPerSession(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{})
	alice := &client{t: t, srv: srv}
	bob := &client{t: t, srv: srv}

	rr := alice.postForm("/nutrition", url.Values{"food_name": {"Oats"}, "calories": {"300"}, "protein": {"10"}, "meal_type": {"breakfast"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	body := alice.get("/nutrition").Body.String()
	assert.Contains(t, body, "Food item added successfully!")
	assert.Contains(t, body, "Oats")
	assert.Contains(t, body, "<strong>300</strong> / 2000 kcal")

	assert.NotContains(t, bob.get("/nutrition").Body.String(), "Oats")

	rr = alice.postForm("/nutrition", url.Values{"food_name": {""}, "calories": {"10"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, alice.get("/nutrition").Body.String(), "Food name is required")

	rr = alice.postForm("/nutrition/reset", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	body = alice.get("/nutrition").Body.String()
	assert.Contains(t, body, "Nutrition log has been reset")
	assert.Contains(t, body, "Nothing logged yet.")
}

func TestRateLimitOnlyCountsMutations(t *testing.T) {
	srv, _ := newTestServer(t, testOptions{rateLimit: 2})
	c := &client{t: t, srv: srv}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, c.get("/water").Code)
	}
	assert.Equal(t, http.StatusSeeOther, c.postForm("/water", url.Values{"amount": {"100"}}).Code)
	assert.Equal(t, http.StatusSeeOther, c.postForm("/water", url.Values{"amount": {"100"}}).Code)

	rr := c.postForm("/water", url.Values{"amount": {"100"}})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
