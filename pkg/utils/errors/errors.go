package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the kind of an error
type ErrorType uint

const (
	// ErrorTypeUnknown represents an unknown error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidArgument represents a malformed request that is not a parameter problem
	ErrorTypeInvalidArgument
	// ErrorTypeConfiguration represents a missing or out-of-range model parameter
	ErrorTypeConfiguration
	// ErrorTypeNumeric represents a non-finite or out-of-domain numeric result
	ErrorTypeNumeric
	// ErrorTypeCanceled represents a computation stopped by its context
	ErrorTypeCanceled
)

// String returns the name of the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeInvalidArgument:
		return "invalid_argument"
	case ErrorTypeConfiguration:
		return "configuration"
	case ErrorTypeNumeric:
		return "numeric"
	case ErrorTypeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap wraps an error with a message, keeping the type of the wrapped error
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:    TypeOf(err),
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an error with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// TypeOf returns the type of the first AppError in err's chain
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err's chain carries an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// Is reports whether err or any of the errors in its chain is target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join joins errors, discarding nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// InvalidArgument creates a new InvalidArgument error
func InvalidArgument(message string) error {
	return &AppError{
		Type:    ErrorTypeInvalidArgument,
		Message: message,
	}
}

// Configuration creates a new Configuration error
func Configuration(message string) error {
	return &AppError{
		Type:    ErrorTypeConfiguration,
		Message: message,
	}
}

// Configurationf creates a new Configuration error from a format
func Configurationf(format string, args ...interface{}) error {
	return Configuration(fmt.Sprintf(format, args...))
}

// Numeric creates a new Numeric error
func Numeric(message string) error {
	return &AppError{
		Type:    ErrorTypeNumeric,
		Message: message,
	}
}

// Numericf creates a new Numeric error from a format
func Numericf(format string, args ...interface{}) error {
	return Numeric(fmt.Sprintf(format, args...))
}

// Canceled wraps a context error
func Canceled(err error) error {
	return &AppError{
		Type:    ErrorTypeCanceled,
		Message: "computation canceled",
		Err:     err,
	}
}
