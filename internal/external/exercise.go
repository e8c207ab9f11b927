package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"lifetrack/internal/cache"
)

// ErrNoExercises is returned when the API has nothing for the muscle group.
var ErrNoExercises = errors.New("no exercises found")

// Exercise is one suggestion from the exercise API.
type Exercise struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Muscle       string `json:"muscle"`
	Equipment    string `json:"equipment"`
	Difficulty   string `json:"difficulty"`
	Instructions string `json:"instructions"`
}

// ExerciseClient looks up exercises by muscle group. Results are cached per
// muscle so repeated suggestions do not hit the API.
type ExerciseClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *cache.LRUCache[[]Exercise]
	pick    func(n int) int
}

func NewExerciseClient(baseURL, apiKey string, client *http.Client) *ExerciseClient {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &ExerciseClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    client,
		cache:   cache.NewLRUCache[[]Exercise](32, time.Hour),
		pick:    rand.IntN,
	}
}

// Cache exposes the result cache so it can be registered for cleanup.
func (c *ExerciseClient) Cache() *cache.LRUCache[[]Exercise] {
	return c.cache
}

// List returns the exercises for muscle.
func (c *ExerciseClient) List(ctx context.Context, muscle string) ([]Exercise, error) {
	if cached, ok := c.cache.Get(muscle); ok {
		return cached, nil
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse exercise API url: %w", err)
	}
	q := u.Query()
	q.Set("muscle", muscle)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build exercise request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch exercises: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var exercises []Exercise
	if err := json.NewDecoder(resp.Body).Decode(&exercises); err != nil {
		return nil, fmt.Errorf("decode exercises: %w", err)
	}
	if len(exercises) == 0 {
		return nil, ErrNoExercises
	}
	c.cache.Set(muscle, exercises)
	return exercises, nil
}

// Random picks one exercise for muscle.
func (c *ExerciseClient) Random(ctx context.Context, muscle string) (Exercise, error) {
	exercises, err := c.List(ctx, muscle)
	if err != nil {
		return Exercise{}, err
	}
	return exercises[c.pick(len(exercises))], nil
}

// UserMessage turns a lookup error into the text shown on the workouts page.
func UserMessage(err error) string {
	var se *StatusError
	switch {
	case errors.Is(err, ErrNoExercises):
		return "No exercises found."
	case errors.As(err, &se):
		return fmt.Sprintf("API returned status code %d.", se.StatusCode)
	default:
		return "An error occurred while fetching data: " + err.Error()
	}
}
