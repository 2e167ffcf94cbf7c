package achievements

// Type selects which snapshot field an achievement is measured against.
type Type string

const (
	TypeStreak     Type = "streak"
	TypeCompletion Type = "completion"
	TypeFocus      Type = "focus"
	TypeSpecial    Type = "special"
)

// Definition is a compiled-in achievement.
type Definition struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Type        Type   `json:"type"`
	Threshold   int    `json:"threshold"`
}

// Evaluation order matters: when several unlock in one pass, the last one
// in this list is the one announced.
var catalog = []Definition{
	{ID: "streak_3", Title: "Getting Started", Description: "Maintain a 3-day streak", Icon: "🌱", Type: TypeStreak, Threshold: 3},
	{ID: "streak_7", Title: "Week Warrior", Description: "Maintain a 7-day streak", Icon: "🔥", Type: TypeStreak, Threshold: 7},
	{ID: "streak_14", Title: "Fortnight Fighter", Description: "Maintain a 14-day streak", Icon: "💪", Type: TypeStreak, Threshold: 14},
	{ID: "streak_30", Title: "Monthly Master", Description: "Maintain a 30-day streak", Icon: "⭐", Type: TypeStreak, Threshold: 30},
	{ID: "streak_60", Title: "Two Month Titan", Description: "Maintain a 60-day streak", Icon: "🏆", Type: TypeStreak, Threshold: 60},
	{ID: "streak_100", Title: "Century Club", Description: "Maintain a 100-day streak", Icon: "💎", Type: TypeStreak, Threshold: 100},
	{ID: "streak_365", Title: "Year of Growth", Description: "Maintain a 365-day streak", Icon: "👑", Type: TypeStreak, Threshold: 365},

	{ID: "complete_10", Title: "First Steps", Description: "Complete 10 habits", Icon: "✨", Type: TypeCompletion, Threshold: 10},
	{ID: "complete_50", Title: "Habit Builder", Description: "Complete 50 habits", Icon: "🎯", Type: TypeCompletion, Threshold: 50},
	{ID: "complete_100", Title: "Century Maker", Description: "Complete 100 habits", Icon: "💯", Type: TypeCompletion, Threshold: 100},
	{ID: "complete_500", Title: "Habit Hero", Description: "Complete 500 habits", Icon: "🦸", Type: TypeCompletion, Threshold: 500},
	{ID: "complete_1000", Title: "Legendary", Description: "Complete 1000 habits", Icon: "🌟", Type: TypeCompletion, Threshold: 1000},

	{ID: "focus_60", Title: "First Hour", Description: "Focus for 60 minutes total", Icon: "⏰", Type: TypeFocus, Threshold: 60},
	{ID: "focus_300", Title: "Deep Worker", Description: "Focus for 5 hours total", Icon: "🧠", Type: TypeFocus, Threshold: 300},
	{ID: "focus_600", Title: "Flow State", Description: "Focus for 10 hours total", Icon: "🌊", Type: TypeFocus, Threshold: 600},
	{ID: "focus_1500", Title: "Focus Master", Description: "Focus for 25 hours total", Icon: "🎖️", Type: TypeFocus, Threshold: 1500},

	{ID: "first_habit", Title: "New Journey", Description: "Create your first habit", Icon: "🚀", Type: TypeSpecial, Threshold: 1},
	{ID: "five_habits", Title: "Multi-Tasker", Description: "Have 5 active habits", Icon: "📋", Type: TypeSpecial, Threshold: 5},
	{ID: "perfect_day", Title: "Perfect Day", Description: "Complete all habits in a day", Icon: "🎉", Type: TypeSpecial, Threshold: 1},
}

// special holds the predicates for TypeSpecial achievements.
var special = map[string]func(Definition, Snapshot) bool{
	"first_habit": func(d Definition, s Snapshot) bool { return s.HabitCount >= d.Threshold },
	"five_habits": func(d Definition, s Snapshot) bool { return s.HabitCount >= d.Threshold },
	"perfect_day": func(_ Definition, s Snapshot) bool { return s.HadPerfectDay },
}

// Catalog returns a copy of every definition in evaluation order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the definition with the given id.
func Lookup(id string) (Definition, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Met reports whether s satisfies d.
func Met(d Definition, s Snapshot) bool {
	switch d.Type {
	case TypeStreak:
		return s.OverallStreak >= d.Threshold
	case TypeCompletion:
		return s.TotalCompletions >= d.Threshold
	case TypeFocus:
		return s.TotalFocusMinutes >= d.Threshold
	case TypeSpecial:
		pred, ok := special[d.ID]
		return ok && pred(d, s)
	default:
		return false
	}
}

// Progress returns how far s is toward d, capped at the threshold.
func Progress(d Definition, s Snapshot) (current, target int) {
	target = d.Threshold
	switch d.Type {
	case TypeStreak:
		current = s.OverallStreak
	case TypeCompletion:
		current = s.TotalCompletions
	case TypeFocus:
		current = s.TotalFocusMinutes
	case TypeSpecial:
		if d.ID == "perfect_day" {
			if s.HadPerfectDay {
				current = 1
			}
		} else {
			current = s.HabitCount
		}
	}
	return min(current, target), target
}
