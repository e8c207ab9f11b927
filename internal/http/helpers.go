package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"lifetrack/internal/core"
	"lifetrack/internal/services"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// redirectBack returns the referring path when it points at this host,
// otherwise fallback.
func redirectBack(r *http.Request, fallback string) string {
	ref := r.Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || !strings.HasPrefix(u.Path, "/") {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

func formatMinutes(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}

var validationMessages = []struct {
	err error
	msg string
}{
	{core.ErrEmptyDescription, "Description is required"},
	{core.ErrEmptyMessage, "Message is required"},
	{core.ErrEmptyName, "Name is required"},
	{core.ErrEmptyFood, "Food name is required"},
	{core.ErrInvalidAmount, "Invalid amount"},
	{core.ErrInvalidDuration, "Invalid duration"},
	{core.ErrInvalidDate, "Invalid date format"},
	{core.ErrInvalidMonth, "Invalid month"},
	{core.ErrInvalidYear, "Invalid year"},
	{core.ErrTooLong, "Value is too long"},
	{services.ErrUnknownCategory, "Unknown category"},
	{ErrInvalidID, "Invalid id"},
}

// validationMessage returns a user-facing message for a validation error,
// or false when err is not one.
func validationMessage(err error) (string, bool) {
	for _, v := range validationMessages {
		if errors.Is(err, v.err) {
			return v.msg, true
		}
	}
	return "", false
}
