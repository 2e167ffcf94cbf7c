package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced habit, completion or session does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStorage wraps failures of the underlying backend.
	ErrStorage = errors.New("storage error")
	// ErrValidation means the input was rejected before reaching the backend.
	ErrValidation = errors.New("validation error")
)

func errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

func wrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
