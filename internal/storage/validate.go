package storage

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func habitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return Category(fl.Field().String()).Valid()
		})
	})
	return validate
}

// NormalizeHabit trims text fields and fills in the default color and
// category. TargetPerDay is left alone so a zero target is rejected.
func NormalizeHabit(h Habit) Habit {
	h.Title = strings.TrimSpace(h.Title)
	h.Description = strings.TrimSpace(h.Description)
	h.Color = strings.TrimSpace(h.Color)
	if h.Color == "" {
		h.Color = DefaultColor
	}
	if c, ok := ParseCategory(string(h.Category)); ok {
		h.Category = c
	} else if strings.TrimSpace(string(h.Category)) == "" {
		h.Category = CategoryPersonal
	}
	return h
}

// ValidateHabit checks h against its field rules. The returned error wraps
// ErrValidation and lists every failing field.
func ValidateHabit(h Habit) error {
	err := habitValidator().Struct(h)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s too long (max %s)", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color like %s", field, DefaultColor)
	case "category":
		names := make([]string, len(Categories))
		for i, c := range Categories {
			names[i] = string(c)
		}
		return fmt.Sprintf("%s must be one of %s", field, strings.Join(names, ", "))
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
