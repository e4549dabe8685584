/*
errors.go - Centralized error types for the catalog and costing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Stores translate driver errors into these; the API maps them to
  HTTP status codes.

ERROR CATEGORIES:
  1. NotFound   - a referenced offering/node/role/rate card does not exist
  2. Conflict   - a uniqueness rule would be broken (second rate card)
  3. Validation - caller input is malformed (negative hours, bad id)

NOTE:
  An offering without any reachable staffing is NOT an error. The costing
  engine returns zero totals for it.

USAGE:
  if errors.Is(err, catalog.ErrConflict) {
      // rate card already exists
  }

  var nf *catalog.NotFoundError
  if errors.As(err, &nf) {
      log.Printf("missing %s %s", nf.Kind, nf.ID)
  }

SEE ALSO:
  - store/sqlstore/errors.go: constraint violation mapping
  - api/handlers.go: HTTP status mapping
*/
package catalog

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would violate a uniqueness rule.
	ErrConflict = errors.New("conflict")

	// ErrValidation is returned when caller input is malformed.
	ErrValidation = errors.New("validation failed")
)

// Entity kinds used in structured errors.
const (
	KindOffering     = "offering"
	KindActivity     = "activity"
	KindNode         = "wbs node"
	KindStaffingRole = "staffing role"
	KindRateCard     = "rate card"
	KindAssignment   = "staffing assignment"
	KindLink         = "link"
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NotFound builds a NotFoundError.
func NotFound(kind string, id any) error {
	return &NotFoundError{Kind: kind, ID: fmt.Sprint(id)}
}

// ConflictError names the uniqueness rule that was hit.
type ConflictError struct {
	Kind string
	Key  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists for %s", e.Kind, e.Key)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// Conflict builds a ConflictError.
func Conflict(kind string, key any) error {
	return &ConflictError{Kind: kind, Key: fmt.Sprint(key)}
}

// ValidationError describes one invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the error indicates a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation returns true if the error is due to invalid client input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsClientError returns true if the caller can fix the error.
func IsClientError(err error) bool {
	return IsNotFound(err) || IsConflict(err) || IsValidation(err)
}
