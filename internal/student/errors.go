package student

import (
	"errors"
	"fmt"

	"tuition/internal/model"
)

var (
	// ErrValidation is the kind of every *ValidationError.
	ErrValidation = errors.New("validation error")
	// ErrNotFound means the student id does not exist.
	ErrNotFound = model.ErrNotFound
	// ErrStorageUnavailable wraps storage collaborator failures.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError is shown to the operator; the save it came from wrote nothing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is implements errors.Is() matching against ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// storageErr keeps ErrNotFound visible and tags everything else as unavailable.
func storageErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
