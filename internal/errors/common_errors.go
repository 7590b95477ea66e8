package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSchema              ErrorType = "SCHEMA"
	ErrTypeInsufficientData    ErrorType = "INSUFFICIENT_DATA"
	ErrTypeInsufficientHistory ErrorType = "INSUFFICIENT_HISTORY"
	ErrTypeModelFit            ErrorType = "MODEL_FIT"
	ErrTypeParsing             ErrorType = "PARSING"
	ErrTypeStorage             ErrorType = "STORAGE"
	ErrTypeValidation          ErrorType = "VALIDATION"
	ErrTypeNotFound            ErrorType = "NOT_FOUND"
	ErrTypeConfig              ErrorType = "CONFIG"
)

// Sentinels for errors.Is. Any AppError of the same type matches.
var (
	ErrSchema              = &AppError{Type: ErrTypeSchema}
	ErrInsufficientData    = &AppError{Type: ErrTypeInsufficientData}
	ErrInsufficientHistory = &AppError{Type: ErrTypeInsufficientHistory}
	ErrModelFit            = &AppError{Type: ErrTypeModelFit}
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewSchemaError reports columns that cannot be resolved to required roles.
func NewSchemaError(message string) *AppError {
	return NewAppError(ErrTypeSchema, message, nil)
}

// NewInsufficientDataError reports that cleaning left too few rows.
func NewInsufficientDataError(required, got int) *AppError {
	return NewAppError(ErrTypeInsufficientData,
		fmt.Sprintf("need at least %d valid rows after cleaning, got %d", required, got), nil).
		WithContext("required", required).
		WithContext("got", got)
}

// NewInsufficientHistoryError reports a series too short for the requested stage.
func NewInsufficientHistoryError(stage string, required, got int) *AppError {
	return NewAppError(ErrTypeInsufficientHistory,
		fmt.Sprintf("%s needs at least %d periods, got %d", stage, required, got), nil).
		WithContext("stage", stage).
		WithContext("required", required).
		WithContext("got", got)
}

// NewModelFitError reports that a forecasting candidate could not be fitted.
func NewModelFitError(model string, message string) *AppError {
	return NewAppError(ErrTypeModelFit, fmt.Sprintf("%s: %s", model, message), nil).
		WithContext("model", model)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type, true
	}
	return "", false
}

// IsSchemaError reports whether err is a schema resolution failure.
func IsSchemaError(err error) bool { return errors.Is(err, ErrSchema) }

// IsInsufficientData reports whether err is an empty-after-cleaning failure.
func IsInsufficientData(err error) bool { return errors.Is(err, ErrInsufficientData) }

// IsInsufficientHistory reports whether err is a too-short-series failure.
func IsInsufficientHistory(err error) bool { return errors.Is(err, ErrInsufficientHistory) }

// IsModelFit reports whether err is a candidate fit failure.
func IsModelFit(err error) bool { return errors.Is(err, ErrModelFit) }
