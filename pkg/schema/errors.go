package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeGuardRejected     = "GUARD_REJECTED"
	ErrCodeAtBoundary        = "AT_BOUNDARY"
	ErrCodeInvalidAnimalType = "INVALID_ANIMAL_TYPE"
	ErrCodeInvalidSymptom    = "INVALID_SYMPTOM"
	ErrCodeInvalidStep       = "INVALID_STEP"
	ErrCodeAlreadyRunning    = "ALREADY_RUNNING"
	ErrCodeEngineFailed      = "ENGINE_FAILED"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeExpression        = "EXPRESSION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeStore             = "STORE_ERROR"
	ErrCodeCircuitOpen       = "CIRCUIT_OPEN"
	ErrCodeCancelled         = "CANCELLED"
	ErrCodeTimeout           = "TIMEOUT_ERROR"
)

// Sentinel errors for use with errors.Is. Any *Error with the same code matches.
var (
	ErrGuardRejected     = NewError(ErrCodeGuardRejected, "step guard rejected")
	ErrAtBoundary        = NewError(ErrCodeAtBoundary, "no step beyond sequence boundary")
	ErrInvalidAnimalType = NewError(ErrCodeInvalidAnimalType, "invalid animal type")
	ErrInvalidSymptom    = NewError(ErrCodeInvalidSymptom, "invalid symptom")
	ErrInvalidStep       = NewError(ErrCodeInvalidStep, "invalid step")
	ErrAlreadyRunning    = NewError(ErrCodeAlreadyRunning, "analysis already running")
	ErrEngineFailed      = NewError(ErrCodeEngineFailed, "diagnosis engine failed")
	ErrNotFound          = NewError(ErrCodeNotFound, "not found")
)

// Error is the structured error type for all vetassist operations.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Step    Step           `json:"step,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("[%s] step %s: %s", e.Code, e.Step, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// IsRetryable reports whether an operation failing with this error may succeed on retry.
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case ErrCodeTimeout, ErrCodeStore, ErrCodeEngineFailed:
		return true
	default:
		return false
	}
}

// NewError creates a new Error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithStep attaches the wizard step the error occurred at.
func (e *Error) WithStep(step Step) *Error {
	e.Step = step
	return e
}

// WithCause attaches an underlying cause.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}
