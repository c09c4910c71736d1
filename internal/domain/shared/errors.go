// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds, usable with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation   = errors.New("validation error")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyValue   = errors.New("value cannot be empty")

	// Conflict errors
	ErrConflict     = errors.New("conflict")
	ErrSyncInFlight = errors.New("sync already in progress")

	// Storage errors
	ErrStorage            = errors.New("storage error")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Upstream errors
	ErrUpstreamFetch      = errors.New("upstream fetch failed")
	ErrUpstreamTimeout    = errors.New("upstream timeout")
	ErrUnknownUsername    = errors.New("unknown username")
	ErrMalformedUpstream  = errors.New("malformed upstream response")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// DomainError carries context about where and how an operation failed.
type DomainError struct {
	Domain  string // e.g. "group", "directory", "sync"
	Op      string // operation that failed, e.g. "Ensure", "Upsert"
	Kind    error  // base kind for errors.Is() checks
	Message string // human-readable message
	Err     error  // underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching against both Kind and Err.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// Group domain errors
var (
	ErrGroupNotFound     = NewDomainError("group", "Find", ErrNotFound, "group is not registered")
	ErrGroupExists       = NewDomainError("group", "Ensure", ErrAlreadyExists, "group already exists")
	ErrStatsNotEnabled   = NewDomainError("group", "FindStats", ErrNotFound, "stats storage not provisioned for group")
	ErrInvalidGroupName  = NewDomainError("group", "Validate", ErrValidation, "invalid group name")
	ErrReservedGroupName = NewDomainError("group", "Validate", ErrValidation, "group name is reserved")
)

// Directory domain errors
var (
	ErrStudentNotFound = NewDomainError("directory", "Find", ErrNotFound, "student not found in group")
	ErrInvalidStudent  = NewDomainError("directory", "Validate", ErrValidation, "invalid student record")
)

// Sync domain errors
var (
	ErrSyncLocked    = NewDomainError("sync", "Lock", ErrSyncInFlight, "another sync is running for this group")
	ErrGitHubFetch   = NewDomainError("sync", "FetchGitHub", ErrUpstreamFetch, "GitHub stats fetch failed")
	ErrLeetCodeFetch = NewDomainError("sync", "FetchLeetCode", ErrUpstreamFetch, "LeetCode stats fetch failed")
)

// Notification domain errors
var (
	ErrNotificationNotFound = NewDomainError("notification", "Find", ErrNotFound, "notification not found")
	ErrEmptyReason          = NewDomainError("notification", "Validate", ErrEmptyValue, "reason cannot be empty")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue)
}

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrSyncInFlight)
}

// IsStorage checks if the error came from the database layer.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrStorageUnavailable)
}

// IsUpstreamFetch checks if the error is an isolated upstream fetch failure.
func IsUpstreamFetch(err error) bool {
	return errors.Is(err, ErrUpstreamFetch) ||
		errors.Is(err, ErrUpstreamTimeout) ||
		errors.Is(err, ErrUnknownUsername) ||
		errors.Is(err, ErrMalformedUpstream)
}
