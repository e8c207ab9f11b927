package core

// ProductivityStats counts completed and pending tasks and the completed ones
// per window relative to today.
type ProductivityStats struct {
	Completed          int
	Pending            int
	CompletedToday     int
	CompletedThisWeek  int
	CompletedThisMonth int
}

func Productivity(tasks []Task, today Date) ProductivityStats {
	var s ProductivityStats
	for _, t := range tasks {
		if !t.Completed {
			s.Pending++
			continue
		}
		s.Completed++
		m := Classify(t.Date, today)
		if m.Today {
			s.CompletedToday++
		}
		if m.Week {
			s.CompletedThisWeek++
		}
		if m.Month {
			s.CompletedThisMonth++
		}
	}
	return s
}

// CalendarEvent is an incomplete task placed on the calendar.
type CalendarEvent struct {
	Title string `json:"title"`
	Start string `json:"start"` // YYYY-MM-DD
}

// Calendar lists incomplete tasks as events and groups their descriptions by date.
func Calendar(tasks []Task) ([]CalendarEvent, map[string][]string) {
	events := make([]CalendarEvent, 0, len(tasks))
	byDate := make(map[string][]string)
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		day := t.Date.String()
		events = append(events, CalendarEvent{Title: t.Description, Start: day})
		byDate[day] = append(byDate[day], t.Description)
	}
	return events, byDate
}
