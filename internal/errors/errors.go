package errors

import "fmt"

// ErrorCode represents a shiftPaste error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // bad caller input
	ErrNotFound           ErrorCode = "NOT_FOUND"           // record or collection absent
	ErrRejectedInput      ErrorCode = "REJECTED_INPUT"      // empty content, adjacent duplicate
	ErrSyncFailed         ErrorCode = "SYNC_FAILED"         // recoverable snapshot read failure
	ErrStoreCorrupt       ErrorCode = "STORE_CORRUPT"       // persisted partition failed integrity checks
	ErrInvariantViolation ErrorCode = "INVARIANT_VIOLATION" // index/store divergence; programming error
	ErrInternal           ErrorCode = "INTERNAL"
)

// StoreError represents a structured error with code, status, and details.
type StoreError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *StoreError {
	return &StoreError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing record.
func NewNotFound(identifier string) *StoreError {
	return &StoreError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("record not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewRejectedInput creates a 422 error for content the store declines to
// keep. Callers treat this as a no-op outcome, not a failure.
func NewRejectedInput(reason string) *StoreError {
	return &StoreError{
		Code:    ErrRejectedInput,
		Status:  422,
		Message: reason,
		Details: map[string]any{"reason": reason},
	}
}

// NewSyncFailed creates a 503 error for a collection snapshot that could not
// be read after retry. Existing records for the collection remain valid.
func NewSyncFailed(collection string, cause error) *StoreError {
	msg := "snapshot unreadable"
	if cause != nil {
		msg = cause.Error()
	}
	return &StoreError{
		Code:    ErrSyncFailed,
		Status:  503,
		Message: fmt.Sprintf("sync failed for collection %q: %s", collection, msg),
		Details: map[string]any{"collection": collection},
	}
}

// NewStoreCorrupt creates a 500 error for a partition that failed integrity
// checks on load. The affected partition degrades to empty; other partitions
// stay searchable.
func NewStoreCorrupt(partition string, cause error) *StoreError {
	msg := "integrity check failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &StoreError{
		Code:    ErrStoreCorrupt,
		Status:  500,
		Message: fmt.Sprintf("partition %q corrupt: %s", partition, msg),
		Details: map[string]any{"partition": partition},
	}
}

// NewInvariantViolation creates a fatal error for a broken transactional
// guarantee. Never swallow this one.
func NewInvariantViolation(msg string) *StoreError {
	return &StoreError{
		Code:    ErrInvariantViolation,
		Status:  500,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *StoreError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &StoreError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a StoreError with the given code.
func Is(err error, code ErrorCode) bool {
	if sErr, ok := err.(*StoreError); ok {
		return sErr.Code == code
	}
	return false
}
