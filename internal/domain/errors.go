package domain

import (
	"errors"
	"fmt"
)

// ErrVersionConflict is reported by a store when a version-checked save finds
// the document was modified since it was loaded. Coordinators retry on it.
var ErrVersionConflict = errors.New("document version conflict")

type ErrorKind int

const (
	ErrorValidation ErrorKind = iota
	ErrorNotFound
	ErrorAuthorization
	ErrorConflict
)

// OperationalError is an expected failure that maps to a client-facing status.
// Anything else coming out of a coordinator is treated as internal.
type OperationalError struct {
	Kind    ErrorKind
	Message string
}

func (e *OperationalError) Error() string { return e.Message }

func NewValidationError(format string, args ...interface{}) error {
	return &OperationalError{Kind: ErrorValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...interface{}) error {
	return &OperationalError{Kind: ErrorNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewAuthorizationError(format string, args ...interface{}) error {
	return &OperationalError{Kind: ErrorAuthorization, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...interface{}) error {
	return &OperationalError{Kind: ErrorConflict, Message: fmt.Sprintf(format, args...)}
}

func IsKind(err error, kind ErrorKind) bool {
	var opErr *OperationalError
	if errors.As(err, &opErr) {
		return opErr.Kind == kind
	}
	return false
}

func IsValidation(err error) bool    { return IsKind(err, ErrorValidation) }
func IsNotFound(err error) bool      { return IsKind(err, ErrorNotFound) }
func IsAuthorization(err error) bool { return IsKind(err, ErrorAuthorization) }
func IsConflict(err error) bool      { return IsKind(err, ErrorConflict) }
