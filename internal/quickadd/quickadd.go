// Package quickadd parses one-line task entries such as
//
//	Review PR @alice due:friday
package quickadd

import (
	"strings"
	"time"

	"github.com/dori/taskdeck/internal/model"
)

// Entry is a parsed quick-add line
type Entry struct {
	Content  string
	DueDate  string // yyyy-MM-dd, empty if not given
	Assignee string // username without the @, empty if not given
}

// Parse splits text into content, an optional due date and an optional
// assignee. Tokens that do not parse stay in the content. Relative dates
// are computed from now.
func Parse(text string, now time.Time) Entry {
	var e Entry
	var contentParts []string

	for _, word := range strings.Fields(text) {
		switch {
		case len(word) > 1 && strings.HasPrefix(word, "@") && e.Assignee == "":
			e.Assignee = strings.TrimPrefix(word, "@")

		case strings.HasPrefix(strings.ToLower(word), "due:"):
			if d, ok := ParseDate(word[len("due:"):], now); ok {
				e.DueDate = d.Format(model.DateLayout)
			} else {
				contentParts = append(contentParts, word)
			}

		default:
			contentParts = append(contentParts, word)
		}
	}

	e.Content = strings.Join(contentParts, " ")
	return e
}

// ParseDate understands today, tomorrow, weekday names, nextweek and a
// few absolute formats. Every format is a single word since Parse splits
// on whitespace.
func ParseDate(s string, now time.Time) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch strings.ToLower(s) {
	case "today":
		return today, true
	case "tomorrow", "tom":
		return today.AddDate(0, 0, 1), true
	case "nextweek":
		return today.AddDate(0, 0, 7), true
	}
	if day, ok := weekdays[strings.ToLower(s)]; ok {
		return nextWeekday(today, day), true
	}

	formats := []string{
		model.DateLayout,
		"01/02/2006",
		"01-02-2006",
	}
	for _, format := range formats {
		t, err := time.ParseInLocation(format, s, now.Location())
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
		}
		return t, true
	}

	return time.Time{}, false
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// nextWeekday is the next occurrence of day strictly after today
func nextWeekday(today time.Time, day time.Weekday) time.Time {
	n := int(day - today.Weekday())
	if n <= 0 {
		n += 7
	}
	return today.AddDate(0, 0, n)
}

// FormatDue renders a yyyy-MM-dd date relative to now
func FormatDue(date string, now time.Time) string {
	t, err := time.ParseInLocation(model.DateLayout, date, now.Location())
	if err != nil {
		return date
	}

	if sameDay(t, now) {
		return "today"
	}
	if sameDay(t, now.AddDate(0, 0, 1)) {
		return "tomorrow"
	}
	if t.Year() == now.Year() {
		return t.Format("Mon, Jan 2")
	}
	return t.Format("Jan 2, 2006")
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
