package progress

import (
	"strings"

	"focusflow/internal/storage"
)

// Template is a suggested habit.
type Template struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    storage.Category `json:"category"`
	Color       string           `json:"color"`
}

// Habit returns a new habit for userID filled from the template.
func (t Template) Habit(userID string) storage.Habit {
	return storage.Habit{
		UserID:       userID,
		Title:        t.Title,
		Description:  t.Description,
		Color:        t.Color,
		Category:     t.Category,
		TargetPerDay: 1,
	}
}

var templates = []Template{
	{"morning-exercise", "Morning Exercise", "30 minutes of physical activity", storage.CategoryFitness, "#4ADE80"},
	{"10k-steps", "Take 10,000 Steps", "Walk throughout the day", storage.CategoryFitness, "#4ADE80"},
	{"stretch", "Stretch Routine", "10 minutes of stretching", storage.CategoryFitness, "#4ADE80"},

	{"meditation", "Meditation", "10 minutes of mindful breathing", storage.CategoryMindfulness, "#38BDF8"},
	{"gratitude", "Gratitude Journal", "Write 3 things you're grateful for", storage.CategoryMindfulness, "#38BDF8"},
	{"no-phone-bed", "No Phone Before Bed", "Stop using phone 1 hour before sleep", storage.CategoryMindfulness, "#38BDF8"},

	{"read", "Read for 30 Minutes", "Read books or articles daily", storage.CategoryLearning, "#FB923C"},
	{"new-word", "Learn a New Word", "Expand your vocabulary", storage.CategoryLearning, "#FB923C"},
	{"practice", "Practice a Skill", "30 minutes of deliberate practice", storage.CategoryLearning, "#FB923C"},

	{"water", "Drink 8 Glasses of Water", "Stay hydrated throughout the day", storage.CategoryHealth, "#F472B6"},
	{"meal-prep", "Healthy Meal Prep", "Prepare nutritious meals", storage.CategoryHealth, "#F472B6"},
	{"sleep", "Sleep 8 Hours", "Get enough rest each night", storage.CategoryHealth, "#F472B6"},

	{"plan-tomorrow", "Plan Tomorrow", "Review and plan next day tasks", storage.CategoryWork, "#8B5CF6"},
	{"inbox-zero", "Inbox Zero", "Clear your email inbox", storage.CategoryWork, "#8B5CF6"},
	{"deep-work", "Deep Work Session", "2 hours of focused work", storage.CategoryWork, "#8B5CF6"},

	{"call-friend", "Call a Friend", "Stay connected with loved ones", storage.CategoryPersonal, "#A855F7"},
	{"creative", "Creative Time", "30 minutes on a hobby", storage.CategoryPersonal, "#A855F7"},
	{"declutter", "Digital Declutter", "Organize files and apps", storage.CategoryPersonal, "#A855F7"},
}

// Templates returns the suggested habits, optionally limited to category.
// An empty category returns all of them.
func Templates(category storage.Category) []Template {
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		if category == "" || t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// TemplateByID finds a template by id or, failing that, by title.
func TemplateByID(id string) (Template, bool) {
	id = strings.TrimSpace(id)
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	for _, t := range templates {
		if strings.EqualFold(t.Title, id) {
			return t, true
		}
	}
	return Template{}, false
}
