// Package track implements the job-application tracking core: the
// customization engine and the application binder.
package track

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/db"
)

// ErrNotFound indicates a document, version, or application does not exist.
type ErrNotFound struct {
	Resource string
	ID       uuid.UUID
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrForbidden indicates a resource belongs to a different user. Detected
// before any external call; never produced by the AI path.
type ErrForbidden struct {
	Resource string
	ID       uuid.UUID
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("%s %s is owned by another user", e.Resource, e.ID)
}

// ErrInvalidArgument indicates missing or malformed input, including a
// customization request without a target company or job description.
type ErrInvalidArgument struct {
	Field   string
	Message string
}

func (e *ErrInvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Message)
}

// ErrCustomizationFailed wraps a generator failure. It aborts the whole
// application creation: no application row and no partial version is ever
// persisted. Kind names which document failed so the caller can tell the
// resume path from the cover-letter path without a stack trace.
type ErrCustomizationFailed struct {
	Kind db.DocumentKind
	Err  error
}

func (e *ErrCustomizationFailed) Error() string {
	return fmt.Sprintf("customization failed for %s: %v", e.Kind, e.Err)
}

func (e *ErrCustomizationFailed) Unwrap() error {
	return e.Err
}
