// Package domain holds the error taxonomy shared by the services. Services
// return these sentinels (possibly wrapped); only the request layer maps them
// to HTTP status codes and logs.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers malformed or missing input re-checked inside a
	// service after request-layer validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized means the caller is authenticated but not allowed to
	// act on the resource.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means a referenced entity does not exist (or is soft-deleted).
	ErrNotFound = errors.New("not found")

	// ErrConflict means the request violates a state invariant, e.g. deleting
	// a service that has hires.
	ErrConflict = errors.New("conflict")

	// ErrServiceUnavailable is the hire-creation precondition failure: the
	// service is inactive or already has a live hire.
	ErrServiceUnavailable = errors.New("service unavailable for hiring")

	// ErrNotEligible rejects a review on a hire that is not completed, belongs
	// to another client, or is already reviewed.
	ErrNotEligible = errors.New("not eligible")
)

// InvalidTransitionError names the attempted source and target states of an
// illegal hire transition.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

// IsInvalidTransition reports whether err is (or wraps) an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
