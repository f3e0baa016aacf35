// Package errors provides standardized error handling for the benefits assistant.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Client errors: the request itself is unusable.
	ErrCodeSessionIDMissing ErrorCode = "SESSION_ID_MISSING"
	ErrCodeMalformedRequest ErrorCode = "MALFORMED_REQUEST"
	ErrCodeEmptyRequest     ErrorCode = "EMPTY_REQUEST"

	// Data resolution errors: absorbed internally, never surfaced to callers.
	ErrCodeDatasetLoadFailed ErrorCode = "DATASET_LOAD_FAILED"
	ErrCodePlanDataMissing   ErrorCode = "PLAN_DATA_MISSING"
	ErrCodeBenefitNotFound   ErrorCode = "BENEFIT_NOT_FOUND"

	// Delegate errors.
	ErrCodeFallbackInvokeFailed ErrorCode = "FALLBACK_INVOKE_FAILED"
	ErrCodeFallbackTimeout      ErrorCode = "FALLBACK_TIMEOUT"
	ErrCodeSummaryFailed        ErrorCode = "SUMMARY_FAILED"
	ErrCodeSummaryTimeout       ErrorCode = "SUMMARY_TIMEOUT"

	// Ledger errors.
	ErrCodeLedgerWriteFailed ErrorCode = "LEDGER_WRITE_FAILED"
	ErrCodeLedgerReadFailed  ErrorCode = "LEDGER_READ_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewSessionIDMissingError creates a non-retryable client error.
func NewSessionIDMissingError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionIDMissing,
		Message:   "Missing session_id",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedRequestError creates a non-retryable client error.
func NewMalformedRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedRequest,
		Message:   "Request body is not valid JSON",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmptyRequestError creates a non-retryable client error for requests
// carrying neither parameters nor a question/message field.
func NewEmptyRequestError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyRequest,
		Message:   "Request carries neither parameters nor a question",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatasetLoadFailedError creates a soft cold-start error. The process
// continues in fallback-only mode.
func NewDatasetLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasetLoadFailed,
		Message:   "Benefits dataset failed to load",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPlanDataMissingError marks a lookup against an unknown plan column.
func NewPlanDataMissingError(plan string) *StandardError {
	return &StandardError{
		Code:      ErrCodePlanDataMissing,
		Message:   "Requested plan has no dataset column",
		Details:   fmt.Sprintf("plan: %s", plan),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBenefitNotFoundError marks a lookup miss for a condition phrase.
func NewBenefitNotFoundError(condition string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBenefitNotFound,
		Message:   "No benefit row matched the condition",
		Details:   fmt.Sprintf("condition: %s", condition),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFallbackInvokeFailedError creates a retryable delegate error.
func NewFallbackInvokeFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFallbackInvokeFailed,
		Message:   "Fallback delegate invocation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewFallbackTimeoutError creates a retryable delegate timeout error.
func NewFallbackTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeFallbackTimeout,
		Message:   "Fallback delegate timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSummaryFailedError creates a soft summarizer error. Callers degrade
// to a null summary instead of failing the request.
func NewSummaryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSummaryFailed,
		Message:   "Summarizer delegate failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSummaryTimeoutError creates a soft summarizer timeout error.
func NewSummaryTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSummaryTimeout,
		Message:   "Summarizer delegate timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLedgerWriteFailedError creates a retryable store error.
func NewLedgerWriteFailedError(sessionID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerWriteFailed,
		Message:   "Session ledger append failed",
		Details:   fmt.Sprintf("sessionId: %s, error: %s", sessionID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLedgerReadFailedError creates a retryable store error.
func NewLedgerReadFailedError(sessionID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerReadFailed,
		Message:   "Session ledger read failed",
		Details:   fmt.Sprintf("sessionId: %s, error: %s", sessionID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsClientError reports whether the code maps to a caller-visible 400.
func IsClientError(code ErrorCode) bool {
	switch code {
	case ErrCodeSessionIDMissing, ErrCodeMalformedRequest, ErrCodeEmptyRequest:
		return true
	default:
		return false
	}
}

// IsSoft reports whether the error is absorbed without failing the request.
func IsSoft(code ErrorCode) bool {
	switch code {
	case ErrCodeDatasetLoadFailed, ErrCodePlanDataMissing, ErrCodeBenefitNotFound,
		ErrCodeSummaryFailed, ErrCodeSummaryTimeout:
		return true
	default:
		return false
	}
}
