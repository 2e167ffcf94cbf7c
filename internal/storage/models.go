package storage

import (
	"strings"
	"time"
)

// DateLayout is the calendar-day format used for completion dates.
const DateLayout = "2006-01-02"

// DefaultColor is used when a habit is created without a color.
const DefaultColor = "#8B5CF6"

// Category groups habits in listings.
type Category string

const (
	CategoryHealth      Category = "health"
	CategoryWork        Category = "work"
	CategoryPersonal    Category = "personal"
	CategoryLearning    Category = "learning"
	CategoryFitness     Category = "fitness"
	CategoryMindfulness Category = "mindfulness"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryHealth,
	CategoryWork,
	CategoryPersonal,
	CategoryLearning,
	CategoryFitness,
	CategoryMindfulness,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Habit is a recurring activity the user wants to repeat TargetPerDay times
// each day.
type Habit struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title" validate:"required,max=60"`
	Description  string    `json:"description,omitempty" validate:"max=200"`
	Color        string    `json:"color" validate:"required,hexcolor"`
	Category     Category  `json:"category" validate:"required,category"`
	TargetPerDay int       `json:"target_per_day" validate:"min=1"`
	CreatedAt    time.Time `json:"created_at"`
}

// HabitCompletion is the number of times a habit was done on one day.
// There is at most one completion per (HabitID, Date).
type HabitCompletion struct {
	ID      string `json:"id"`
	HabitID string `json:"habit_id"`
	UserID  string `json:"user_id"`
	Date    string `json:"date"` // YYYY-MM-DD
	Count   int    `json:"count"`
}

// FocusSession is one focus interval. DurationMinutes is the planned length,
// fixed when the session starts.
type FocusSession struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	DurationMinutes int        `json:"duration_minutes"`
	Completed       bool       `json:"completed"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// InProgress reports whether the session was started but neither completed
// nor abandoned.
func (s FocusSession) InProgress() bool {
	return !s.Completed && s.CompletedAt == nil
}

// DateRange is an inclusive range of calendar days. Empty bounds are open.
type DateRange struct {
	From string
	To   string
}

// Contains reports whether date falls inside the range.
func (r DateRange) Contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}

// LastDays returns the range covering the n days ending on today.
func LastDays(today time.Time, n int) DateRange {
	if n < 1 {
		n = 1
	}
	end := StartOfDay(today)
	return DateRange{From: DayKey(end.AddDate(0, 0, -(n - 1))), To: DayKey(end)}
}

// DayKey formats t as a completion date.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDay parses a YYYY-MM-DD date in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
