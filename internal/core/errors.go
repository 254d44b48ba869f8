// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Configuration errors (fatal, pre-run)
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Catalog errors
	ErrMarketNotFound      = &Error{Code: "MARKET_NOT_FOUND", Message: "market not found"}
	ErrTopicNotFound       = &Error{Code: "TOPIC_NOT_FOUND", Message: "topic not found"}
	ErrTopicNotContinuous  = &Error{Code: "TOPIC_NOT_CONTINUOUS", Message: "topic is not a continuous market topic"}
	ErrStrategyNotFound    = &Error{Code: "STRATEGY_NOT_FOUND", Message: "unknown strategy type"}
	ErrInsufficientData    = &Error{Code: "INSUFFICIENT_DATA", Message: "not enough trade data"}
	ErrJobNotFound         = &Error{Code: "JOB_NOT_FOUND", Message: "job not found"}

	// Simulation errors (fatal, mid-run)
	ErrSimulationFailed = &Error{Code: "SIMULATION_FAILED", Message: "simulation aborted"}
	ErrInputData        = &Error{Code: "INPUT_DATA", Message: "malformed trade data"}
)
