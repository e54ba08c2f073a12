// Package domain defines the core domain models for roster.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes use the form RS-<AREA>-<NNNN>; the last four digits start with
// the closest HTTP status.
type DomainError struct {
	Code    string // Error code (e.g., "RS-STUD-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true // Only check if it's a DomainError
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Student errors (STUD).
var (
	// ErrStudentNotFound indicates the requested student was not found.
	ErrStudentNotFound = NewDomainError("RS-STUD-4040", "student not found")

	// ErrStudentConflict indicates the student id already exists.
	ErrStudentConflict = NewDomainError("RS-STUD-4090", "student id conflict")

	// ErrStudentValidation indicates student data validation failed.
	ErrStudentValidation = NewDomainError("RS-STUD-4001", "student validation failed")
)

// Backup errors (BKUP).
var (
	// ErrBackupInFlight indicates a snapshot is already being written.
	ErrBackupInFlight = NewDomainError("RS-BKUP-4090", "snapshot already in flight")

	// ErrBackupNotRunning indicates the scheduler is not running.
	ErrBackupNotRunning = NewDomainError("RS-BKUP-4091", "snapshot scheduler not running")

	// ErrBackupAlreadyRunning indicates the scheduler is already running.
	ErrBackupAlreadyRunning = NewDomainError("RS-BKUP-4092", "snapshot scheduler already running")

	// ErrBackupReport indicates the report could not be generated.
	ErrBackupReport = NewDomainError("RS-BKUP-5000", "snapshot report failed")

	// ErrJournalDisabled indicates the event journal is not configured.
	ErrJournalDisabled = NewDomainError("RS-BKUP-4040", "event journal disabled")
)

// Authentication errors (AUTH).
var (
	// ErrAdminTokenMissing indicates no admin token was provided.
	ErrAdminTokenMissing = NewDomainError("RS-AUTH-4010", "admin token not provided")

	// ErrAdminTokenInvalid indicates the admin token does not match.
	ErrAdminTokenInvalid = NewDomainError("RS-AUTH-4011", "invalid admin token")
)

// System errors (SYS).
var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("RS-SYS-5000", "internal server error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = NewDomainError("RS-SYS-5030", "service unavailable")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("RS-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("RS-SYS-4290", "too many requests")
)
