// Package apperr is the error vocabulary shared by the reservation components
// and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidOrExpiredCode covers a wrong code, an expired code and no pending
	// request alike, so callers cannot tell which one happened.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired verification code")
	// ErrSlotUnavailable is terminal for a booking attempt: the slot is missing,
	// already claimed, in the past, or was lost to a concurrent booking.
	ErrSlotUnavailable    = errors.New("time slot is no longer available")
	ErrNotFound           = errors.New("not found")
	ErrPersistence        = errors.New("persistence failure")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrRateLimited        = errors.New("too many requests")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrUnknownIdentity    = errors.New("phone is not a known customer")
	ErrServiceUnavailable = errors.New("dependency unavailable")
)

// ValidationError captures field level issues callers can show to users.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return ErrValidation.Error()
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for f := range v.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return ErrValidation.Error() + ": " + strings.Join(fields, ", ")
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// OrNil returns v as an error only when it recorded something.
func (v *ValidationError) OrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

// CheckID records a field error unless id is a UUID in canonical form, which
// is what the id columns accept.
func (v *ValidationError) CheckID(field, id string) {
	switch {
	case id == "":
		v.Add(field, "required")
	case len(id) != 36 || uuid.Validate(id) != nil:
		v.Add(field, "must be a UUID")
	}
}

// ID is CheckID for a single field.
func ID(field, id string) error {
	v := &ValidationError{}
	v.CheckID(field, id)
	return v.OrNil()
}

func Invalid(field, message string) error {
	return &ValidationError{FieldErrors: map[string]string{field: message}}
}

func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// PersistenceError wraps a store failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Persistence wraps err unless it already belongs to the taxonomy.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

type kindEntry struct {
	err    error
	kind   string
	status int
}

// The order matters: the first match wins.
var kinds = []kindEntry{
	{ErrValidation, "VALIDATION", http.StatusBadRequest},
	{ErrInvalidOrExpiredCode, "INVALID_CODE", http.StatusBadRequest},
	{ErrSlotUnavailable, "SLOT_UNAVAILABLE", http.StatusConflict},
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{ErrInvalidTransition, "INVALID_TRANSITION", http.StatusConflict},
	{ErrRateLimited, "RATE_LIMITED", http.StatusTooManyRequests},
	{ErrUnknownIdentity, "INVALID_CODE", http.StatusBadRequest},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden},
	{ErrServiceUnavailable, "UNAVAILABLE", http.StatusServiceUnavailable},
	{ErrPersistence, "PERSISTENCE", http.StatusInternalServerError},
}

// Kind returns the errorKind string and HTTP status for err. Anything outside
// the taxonomy is reported as a persistence failure.
func Kind(err error) (string, int) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind, k.status
		}
	}
	return "PERSISTENCE", http.StatusInternalServerError
}

func Classified(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return true
		}
	}
	return false
}

// Fields returns the field map of a wrapped ValidationError, if any.
func Fields(err error) map[string]string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.FieldErrors
	}
	return nil
}
