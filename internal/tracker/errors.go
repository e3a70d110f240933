package tracker

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrCharacterNotFound means the game API knows no character by that name.
	ErrCharacterNotFound = errors.New("character not found")
)

// ValidationError is returned before any remote call for input that can
// never succeed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// checkPermutation verifies that proposed lists exactly the current ids.
func checkPermutation(current, proposed []string) error {
	if len(current) != len(proposed) {
		return invalid("order must list all %d entries, got %d", len(current), len(proposed))
	}
	known := make(map[string]bool, len(current))
	for _, id := range current {
		known[id] = false
	}
	for _, id := range proposed {
		seen, ok := known[id]
		if !ok {
			return invalid("unknown entry %q in order", id)
		}
		if seen {
			return invalid("entry %q listed twice in order", id)
		}
		known[id] = true
	}
	return nil
}
