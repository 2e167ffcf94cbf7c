package storage

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHabit(t *testing.T) {
	h := NormalizeHabit(Habit{Title: "  Yoga ", Category: " Fitness ", TargetPerDay: 1})
	assert.Equal(t, "Yoga", h.Title)
	assert.Equal(t, CategoryFitness, h.Category)
	assert.Equal(t, DefaultColor, h.Color)
	assert.NoError(t, ValidateHabit(h))
}

func TestValidateHabitMessages(t *testing.T) {
	tests := []struct {
		name string
		h    Habit
		want string
	}{
		{"missing title", Habit{Color: DefaultColor, Category: CategoryWork, TargetPerDay: 1}, "title is required"},
		{"long title", Habit{Title: strings.Repeat("x", 61), Color: DefaultColor, Category: CategoryWork, TargetPerDay: 1}, "title too long (max 60)"},
		{"long description", Habit{Title: "x", Description: strings.Repeat("d", 201), Color: DefaultColor, Category: CategoryWork, TargetPerDay: 1}, "description too long (max 200)"},
		{"zero target", Habit{Title: "x", Color: DefaultColor, Category: CategoryWork}, "target_per_day must be at least 1"},
		{"bad color", Habit{Title: "x", Color: "#12", Category: CategoryWork, TargetPerDay: 1}, "color must be a hex color"},
		{"bad category", Habit{Title: "x", Color: DefaultColor, Category: "chores", TargetPerDay: 1}, "category must be one of health, work"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHabit(tt.h)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLastDays(t *testing.T) {
	today, err := ParseDay("2025-03-10", nil)
	assert.NoError(t, err)

	r := LastDays(today, 7)
	assert.Equal(t, DateRange{From: "2025-03-04", To: "2025-03-10"}, r)
	assert.True(t, r.Contains("2025-03-04"))
	assert.False(t, r.Contains("2025-03-11"))
	assert.Equal(t, DateRange{From: "2025-03-10", To: "2025-03-10"}, LastDays(today, 0))
}
