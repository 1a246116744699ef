package hologram

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Domain errors for the hologram package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, hologram.ErrDisplayNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDisplayNotFound is returned when no display is registered under a name.
	ErrDisplayNotFound = errors.New("hologram: display not found")

	// ErrInvalidName is returned when a display name is empty or malformed.
	ErrInvalidName = errors.New("hologram: invalid name")

	// ErrInvalidDefinition is returned when a display definition fails validation.
	ErrInvalidDefinition = errors.New("hologram: invalid definition")

	// ErrNoPages is returned when a definition has no pages or no lines.
	ErrNoPages = errors.New("hologram: no pages")

	// ErrInvalidClickType is returned for an unknown interaction kind.
	ErrInvalidClickType = errors.New("hologram: invalid click type")

	// ErrInvalidAction is returned when an action string cannot be parsed.
	ErrInvalidAction = errors.New("hologram: invalid action")

	// ErrInvalidDuration is returned when a temporary line is spawned with a negative duration.
	ErrInvalidDuration = errors.New("hologram: invalid duration")

	// ErrStoreReadOnly is returned when saving or deleting through a store
	// that cannot write definitions.
	ErrStoreReadOnly = errors.New("hologram: store is read-only")

	// ErrMissingCollaborator is returned by NewManager when a required
	// collaborator is nil.
	ErrMissingCollaborator = errors.New("hologram: missing collaborator")

	// ErrManagerDestroyed is returned when spawning after the manager was destroyed.
	ErrManagerDestroyed = errors.New("hologram: manager destroyed")
)

// LoadError reports a single display definition that could not be loaded.
// A LoadError never aborts a reload batch.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading display from %q: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// TransitionError reports a failed show or hide for one (display, observer) pair.
type TransitionError struct {
	Display  string
	Observer uuid.UUID
	Op       string
	Err      error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s display %q for observer %s: %v", e.Op, e.Display, e.Observer, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// DispatchError reports a claim check that failed; the display is treated
// as not claiming the event.
type DispatchError struct {
	Display string
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("claim check on display %q: %v", e.Display, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// panicError converts a recovered panic value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
