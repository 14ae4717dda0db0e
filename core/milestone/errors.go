package milestone

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

var (
	// errors
	ErrMissingDate           = errors.New("term_start_date is required")
	ErrInvalidDateFormat     = errors.New("Invalid date format")
	ErrDateSourceUnavailable = errors.New("date source unavailable")
	ErrUnknownMilestone      = errors.New("unknown milestone")
	ErrNoActiveMilestone     = errors.New("No active milestone for the current date")
	ErrNotFound              = errors.New("Record not found")
	ErrAuthentication        = errors.New("backend authentication failed")
	ErrEmptyUpdate           = errors.New("no updatable fields supplied")
)

// BackendError is any non-2xx answer of the record backend, other than 404.
type BackendError struct {
	Status int
	Body   string
}

func NewBackendError(status int, body string) error {
	return &BackendError{Status: status, Body: body}
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend responded %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

// IsNotFound reports whether err, or its cause, is ErrNotFound.
func IsNotFound(err error) bool {
	return pkgerrors.Cause(err) == ErrNotFound
}
