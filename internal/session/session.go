// Package session keeps per-visitor state (nutrition log, flash messages)
// keyed by a cookie.
package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"lifetrack/internal/cache"
	"lifetrack/internal/core"
)

const CookieName = "lifetrack_session"

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

type Flash struct {
	Kind    string
	Message string
}

// State is everything stored for one visitor.
type State struct {
	Meals   []core.Meal
	Flashes []Flash
}

// Store holds session state in a bounded LRU cache. Idle sessions expire after
// the TTL.
type Store struct {
	data *cache.LRUCache[State]
	ttl  time.Duration
}

func NewStore(ttl time.Duration, maxSessions int) *Store {
	return &Store{
		data: cache.NewLRUCache[State](maxSessions, ttl),
		ttl:  ttl,
	}
}

// Cache exposes the backing cache for periodic cleanup.
func (s *Store) Cache() *cache.LRUCache[State] {
	return s.data
}

// ID returns the visitor's session id, issuing a new cookie when the request
// has none or carries a malformed one. The issued cookie is also added to r so
// later calls while serving the same request return the same id.
func (s *Store) ID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
	others := r.Cookies()
	r.Header.Del("Cookie")
	for _, c := range others {
		if c.Name != CookieName {
			r.AddCookie(c)
		}
	}
	r.AddCookie(cookie)
	return id
}

// Meals returns a copy of the session's meal log.
func (s *Store) Meals(id string) []core.Meal {
	st, _ := s.data.Get(id)
	out := make([]core.Meal, len(st.Meals))
	copy(out, st.Meals)
	return out
}

func (s *Store) AddMeal(id string, m core.Meal) {
	s.data.Update(id, func(st State, _ bool) State {
		meals := make([]core.Meal, len(st.Meals), len(st.Meals)+1)
		copy(meals, st.Meals)
		st.Meals = append(meals, m)
		return st
	})
}

func (s *Store) ResetMeals(id string) {
	s.data.Update(id, func(st State, _ bool) State {
		st.Meals = nil
		return st
	})
}

func (s *Store) AddFlash(id, kind, message string) {
	s.data.Update(id, func(st State, _ bool) State {
		flashes := make([]Flash, len(st.Flashes), len(st.Flashes)+1)
		copy(flashes, st.Flashes)
		st.Flashes = append(flashes, Flash{Kind: kind, Message: message})
		return st
	})
}

// PopFlashes returns pending flashes and clears them.
func (s *Store) PopFlashes(id string) []Flash {
	var out []Flash
	s.data.Update(id, func(st State, ok bool) State {
		out = st.Flashes
		st.Flashes = nil
		return st
	})
	return out
}
