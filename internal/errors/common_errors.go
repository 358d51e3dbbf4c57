package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeFormat     ErrorType = "FORMAT"
	ErrTypeParse      ErrorType = "PARSE"
	ErrTypeDomain     ErrorType = "DOMAIN"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// ErrInsufficientData is the cause attached to domain errors raised when an
// aggregate is computed over an empty subset.
var ErrInsufficientData = errors.New("insufficient data")

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

// NewFormatError creates an error for a source that cannot be read as a
// table or lacks its primary timestamp column. Fatal for the transform.
func NewFormatError(message string, cause error) *AppError {
	return NewAppError(ErrTypeFormat, message, cause)
}

// NewParseError creates an error for a required field holding a value the
// adapter cannot interpret. Fatal for the transform.
func NewParseError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParse, message, cause)
}

// NewDomainError creates a soft error for an aggregate that is undefined,
// e.g. a mean over an empty subset.
func NewDomainError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDomain, message, cause)
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

// TypeOf returns the ErrorType of the first AppError in err's chain, or ""
// when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsFormatError reports whether err carries a FORMAT AppError.
func IsFormatError(err error) bool {
	return TypeOf(err) == ErrTypeFormat
}

// IsParseError reports whether err carries a PARSE AppError.
func IsParseError(err error) bool {
	return TypeOf(err) == ErrTypeParse
}

// IsDomainError reports whether err carries a DOMAIN AppError.
func IsDomainError(err error) bool {
	return TypeOf(err) == ErrTypeDomain
}

// IsStorageError reports whether err carries a STORAGE AppError.
func IsStorageError(err error) bool {
	return TypeOf(err) == ErrTypeStorage
}

// IsValidationError reports whether err carries a VALIDATION AppError.
func IsValidationError(err error) bool {
	return TypeOf(err) == ErrTypeValidation
}

// IsNotFoundError reports whether err carries a NOT_FOUND AppError.
func IsNotFoundError(err error) bool {
	return TypeOf(err) == ErrTypeNotFound
}
