package publication

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the target record does not exist.
	ErrNotFound = errors.New("publication not found")
	// ErrInvalidID means the identifier is malformed; checked before any
	// storage access.
	ErrInvalidID = errors.New("invalid publication id")
	// ErrPersistence wraps record-store I/O failures.
	ErrPersistence = errors.New("publication store failure")
)

// ValidationError reports missing or malformed caller input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
