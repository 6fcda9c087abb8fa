// Package errors provides standardized error handling for the automation pipeline.
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

// Fault taxonomy: extraction faults are recovered inside the parser, session
// faults inside the runner, workflow-step faults inside the orchestrator loop,
// transport faults inside the broadcast hub. Only PORTAL_UNAVAILABLE may abort
// startup.
const (
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	ErrCodeSessionFailed    ErrorCode = "SESSION_FAILED"
	ErrCodeWorkflowStep     ErrorCode = "WORKFLOW_STEP_FAILED"
	ErrCodeTransportSend    ErrorCode = "TRANSPORT_SEND_FAILED"
	ErrCodePortalTimeout    ErrorCode = "PORTAL_TIMEOUT"
	ErrCodePortalUnavail    ErrorCode = "PORTAL_UNAVAILABLE"
	ErrCodeInvalidPayload   ErrorCode = "INVALID_TASK_PAYLOAD"
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

// NewExtractionFailedError creates a non-retryable extraction error. The
// parser downgrades this to a failed SessionResult rather than propagating.
func NewExtractionFailedError(platform string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFailed,
		Message:   "Automation output could not be parsed",
		Details:   fmt.Sprintf("platform: %s, error: %s", platform, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionFailedError creates a non-retryable session error. The runner
// converts this into a failed SessionResult, never a panic.
func NewSessionFailedError(platform string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionFailed,
		Message:   "Automation session failed",
		Details:   fmt.Sprintf("platform: %s, error: %s", platform, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkflowStepError creates a non-retryable workflow iteration error.
// The surrounding loop logs it and continues with the next iteration.
func NewWorkflowStepError(stage string, iteration string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowStep,
		Message:   "Workflow stage iteration failed",
		Details:   fmt.Sprintf("stage: %s, iteration: %s, error: %s", stage, iteration, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportSendError creates a non-retryable broadcast delivery error.
// Swallowed per subscriber; never affects the running workflow.
func NewTransportSendError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportSend,
		Message:   "Subscriber delivery failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPortalTimeoutError creates a retryable device portal timeout error.
func NewPortalTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodePortalTimeout,
		Message:   "Device portal call timed out",
		Details:   "portal call exceeded its context deadline",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPortalUnavailableError creates the only fatal-class error: the device
// portal is unreachable at process start.
func NewPortalUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePortalUnavail,
		Message:   "Device automation portal is unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPayloadError creates a non-retryable task payload error.
func NewInvalidPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Task payload validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsFatal reports whether an error code should abort startup or reject all
// task submissions. Per the error design only portal unavailability qualifies.
func IsFatal(code ErrorCode) bool {
	return code == ErrCodePortalUnavail
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeExtractionFailed:
		return "EXTRACTION"
	case ErrCodeSessionFailed, ErrCodePortalTimeout, ErrCodePortalUnavail:
		return "SESSION"
	case ErrCodeWorkflowStep:
		return "WORKFLOW"
	case ErrCodeTransportSend:
		return "TRANSPORT"
	case ErrCodeInvalidPayload:
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
