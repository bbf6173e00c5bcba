package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	// Input errors
	ErrInvalidField      = errors.New("invalid field name")
	ErrInvalidTimeRange  = errors.New("invalid time range: start time must be before end time")
	ErrInvalidFormat     = errors.New("invalid output format")
	ErrInvalidInputData  = errors.New("invalid input data")
	ErrEmptyDataset      = errors.New("dataset is empty")
	ErrIrregularInterval = errors.New("readings are not on a regular interval")

	// Analysis errors
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidPeriod    = errors.New("invalid seasonal period")
	ErrInvalidMetric    = errors.New("invalid accuracy metric")
	ErrAllModelsFailed  = errors.New("no forecasting method produced a usable forecast")

	// Forecast errors
	ErrForecasterNotFound = errors.New("forecasting method not found")
	ErrFitFailed          = errors.New("model fitting failed")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrConfigurationLoad    = errors.New("failed to load configuration")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeProcessing    ErrorType = "processing"
	ErrorTypeIO            ErrorType = "io"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeInternal      ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *AppError {
	return NewAppError(ErrorTypeValidation, code, message)
}

// NewProcessingError creates a processing error
func NewProcessingError(code, message string) *AppError {
	return NewAppError(ErrorTypeProcessing, code, message)
}

// NewIOError creates an input/output error
func NewIOError(code, message string) *AppError {
	return NewAppError(ErrorTypeIO, code, message)
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(code, message string) *AppError {
	return NewAppError(ErrorTypeNotFound, code, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, code, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, CodeInternalError, message)
}

// Error codes for different error scenarios
const (
	// Validation error codes
	CodeInvalidInput     = "INVALID_INPUT"
	CodeMissingField     = "MISSING_FIELD"
	CodeInvalidFormat    = "INVALID_FORMAT"
	CodeOutOfRange       = "OUT_OF_RANGE"
	CodeInvalidTimeRange = "INVALID_TIME_RANGE"
	CodeInvalidPeriod    = "INVALID_PERIOD"
	CodeInvalidMetric    = "INVALID_METRIC"

	// Processing error codes
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeFitFailed        = "FIT_FAILED"
	CodeForecastFailed   = "FORECAST_FAILED"
	CodeSelectionFailed  = "SELECTION_FAILED"
	CodeDecomposeFailed  = "DECOMPOSE_FAILED"

	// IO error codes
	CodeReadFailed       = "READ_FAILED"
	CodeWriteFailed      = "WRITE_FAILED"
	CodeDataNotFound     = "DATA_NOT_FOUND"
	CodeUnsupportedInput = "UNSUPPORTED_INPUT"

	// Configuration error codes
	CodeInvalidConfiguration = "INVALID_CONFIGURATION"
	CodeConfigurationLoad    = "CONFIGURATION_LOAD"

	// Internal error codes
	CodeInternalError  = "INTERNAL_ERROR"
	CodeNotImplemented = "NOT_IMPLEMENTED"
)
