package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffirmationClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"affirmation":"  You got this  "}`))
	}))
	defer srv.Close()

	msg, err := NewAffirmationClient(srv.URL, srv.Client()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "You got this", msg)
}

func TestAffirmationClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "bad status",
			status: http.StatusServiceUnavailable,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
				assert.Equal(t, "API returned status code 503", err.Error())
			},
		},
		{
			name:   "empty message",
			status: http.StatusOK,
			body:   `{"affirmation":""}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyAffirmation)
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `not json`,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "decode affirmation")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewAffirmationClient(srv.URL, srv.Client()).Fetch(context.Background())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestExerciseClient_Random(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "chest", r.URL.Query().Get("muscle"))
		w.Write([]byte(`[{"name":"Push-up","muscle":"chest"},{"name":"Bench press","muscle":"chest"}]`))
	}))
	defer srv.Close()

	c := NewExerciseClient(srv.URL+"/v1/exercises", "secret", srv.Client())
	c.pick = func(n int) int { return n - 1 }

	ex, err := c.Random(context.Background(), "chest")
	require.NoError(t, err)
	assert.Equal(t, "Bench press", ex.Name)

	_, err = c.Random(context.Background(), "chest")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second lookup should be served from cache")
}

func TestExerciseClient_Errors(t *testing.T) {
	t.Run("no exercises", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		_, err := NewExerciseClient(srv.URL, "k", srv.Client()).Random(context.Background(), "chest")
		assert.ErrorIs(t, err, ErrNoExercises)
	})

	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := NewExerciseClient(srv.URL, "k", srv.Client()).Random(context.Background(), "chest")
		assert.EqualError(t, err, "API returned status code 401")
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewExerciseClient(url, "k", nil).Random(context.Background(), "chest")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetch exercises:")
	})
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "No exercises found.", UserMessage(ErrNoExercises))
	assert.Equal(t, "API returned status code 500.", UserMessage(&StatusError{StatusCode: 500}))
	assert.Equal(t, "An error occurred while fetching data: boom", UserMessage(errors.New("boom")))
}
