// Package errors defines the error taxonomy shared by the exporter packages.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies exporter errors.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = 0

	// Configuration errors are fatal at startup.
	ErrCodeConfigUnreadable ErrorCode = 1000
	ErrCodeConfigMalformed  ErrorCode = 1001
	ErrCodeConfigMissing    ErrorCode = 1002
	ErrCodeConfigInvalid    ErrorCode = 1003
	ErrCodeKeyInvalid       ErrorCode = 1004

	// API errors are recoverable; the current poll cycle is abandoned.
	ErrCodeTransport ErrorCode = 2000
	ErrCodeStatus    ErrorCode = 2001
	ErrCodeDecode    ErrorCode = 2002
	ErrCodeSigning   ErrorCode = 2003

	ErrCodeUnknown ErrorCode = 9000
)

// String returns a short name for the code, used as a log field.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeConfigUnreadable:
		return "config_unreadable"
	case ErrCodeConfigMalformed:
		return "config_malformed"
	case ErrCodeConfigMissing:
		return "config_missing_field"
	case ErrCodeConfigInvalid:
		return "config_invalid"
	case ErrCodeKeyInvalid:
		return "private_key_invalid"
	case ErrCodeTransport:
		return "transport"
	case ErrCodeStatus:
		return "unexpected_status"
	case ErrCodeDecode:
		return "decode"
	case ErrCodeSigning:
		return "signing"
	case ErrCodeUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// ExporterError is a structured error with a code, context details and a chained cause.
type ExporterError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Cause   error
}

// Error implements the error interface
func (e *ExporterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *ExporterError) Unwrap() error {
	return e.Cause
}

// IsConfig reports whether the error belongs to the fatal configuration class.
func (e *ExporterError) IsConfig() bool {
	return e.Code >= 1000 && e.Code < 2000
}

// IsAPI reports whether the error belongs to the recoverable upstream API class.
func (e *ExporterError) IsAPI() bool {
	return e.Code >= 2000 && e.Code < 3000
}

// NewExporterError creates a new ExporterError
func NewExporterError(code ErrorCode, message string, cause error) *ExporterError {
	return &ExporterError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Cause:   cause,
	}
}

// WithDetail adds a detail to the error
func (e *ExporterError) WithDetail(key string, value interface{}) *ExporterError {
	e.Details[key] = value
	return e
}

// Convenience constructors for common errors

func ConfigUnreadable(path string, cause error) *ExporterError {
	return NewExporterError(ErrCodeConfigUnreadable, fmt.Sprintf("cannot open config file %q", path), cause).
		WithDetail("path", path)
}

func ConfigMalformed(path string, cause error) *ExporterError {
	return NewExporterError(ErrCodeConfigMalformed, fmt.Sprintf("cannot parse config file %q", path), cause).
		WithDetail("path", path)
}

func MissingFields(path string, fields ...string) *ExporterError {
	return NewExporterError(ErrCodeConfigMissing,
		fmt.Sprintf("config file %q is missing required field(s): %s", path, strings.Join(fields, ", ")), nil).
		WithDetail("path", path).
		WithDetail("fields", fields)
}

func ConfigInvalid(message string, cause error) *ExporterError {
	return NewExporterError(ErrCodeConfigInvalid, message, cause)
}

func KeyInvalid(path string, cause error) *ExporterError {
	return NewExporterError(ErrCodeKeyInvalid, fmt.Sprintf("cannot load private key %q", path), cause).
		WithDetail("path", path)
}

func Transport(operation string, cause error) *ExporterError {
	return NewExporterError(ErrCodeTransport, operation+": request failed", cause).
		WithDetail("operation", operation)
}

func UnexpectedStatus(operation string, status int, body string) *ExporterError {
	return NewExporterError(ErrCodeStatus, fmt.Sprintf("%s: unexpected status %d: %s", operation, status, body), nil).
		WithDetail("operation", operation).
		WithDetail("status", status)
}

func Decode(operation string, cause error) *ExporterError {
	return NewExporterError(ErrCodeDecode, operation+": cannot decode response", cause).
		WithDetail("operation", operation)
}

func Signing(operation string, cause error) *ExporterError {
	return NewExporterError(ErrCodeSigning, operation+": cannot sign request", cause).
		WithDetail("operation", operation)
}

// IsConfigError reports whether err (or anything it wraps) is a configuration error.
func IsConfigError(err error) bool {
	var e *ExporterError
	return errors.As(err, &e) && e.IsConfig()
}

// IsAPIError reports whether err (or anything it wraps) is an upstream API error.
func IsAPIError(err error) bool {
	var e *ExporterError
	return errors.As(err, &e) && e.IsAPI()
}

// CodeOf returns the code of the first ExporterError in err's chain.
// A nil error is ErrCodeOK; any other error is ErrCodeUnknown.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *ExporterError
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeUnknown
}
