// Package errors defines the coded errors shared by the engine, the data
// providers and the storage layers.
package errors

import (
	"errors"
	"fmt"
)

// Error carries a code alongside the message and optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode returns the code of the first *Error in err's chain.
// InsufficientDataError maps to ErrCodeInsufficientData.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if IsInsufficientDataError(err) {
		return ErrCodeInsufficientData
	}
	return ErrCodeUnknown
}

func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError is the engine's only error: the series is empty,
// malformed, or shorter than a lookback window.
type InsufficientDataError struct {
	Required  int
	Actual    int
	Symbol    string
	Indicator string
	Message   string
}

func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{Required: required, Actual: actual, Symbol: symbol, Message: message}
}

func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return NewInsufficientDataError(required, actual, symbol, fmt.Sprintf(format, args...))
}

func (e *InsufficientDataError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	subject := e.Symbol
	if e.Indicator != "" {
		subject = fmt.Sprintf("%s %s", e.Symbol, e.Indicator)
	}
	return fmt.Sprintf("%s: need %d bars, have %d", subject, e.Required, e.Actual)
}

func IsInsufficientDataError(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}
