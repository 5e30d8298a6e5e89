package load

import (
	"errors"
	"fmt"
)

var (
	// ErrMatchExists is returned when the (competition, match number) pair is
	// already persisted. Two uploads of the same match are never merged.
	ErrMatchExists = errors.New("match already exists")

	// ErrUnknownPosition is returned for a position code that is not seeded.
	ErrUnknownPosition = errors.New("unknown position")

	// ErrIncompleteUnit is returned when a unit does not carry exactly six
	// team-period rows.
	ErrIncompleteUnit = errors.New("incomplete match unit")
)

// StageError records the loader stage at which a unit failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
