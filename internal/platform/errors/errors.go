package errors

import (
	"errors"
	"maps"
)

// Error is a forum error carrying a closed code. Message is for logs; the
// caller-facing text comes from the locale catalog, rendered with Metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so sentinel errors compare by
// code even after metadata is attached.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// New returns an error with code and a log message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata returns an error whose catalog message is rendered with
// metadata. The map is copied.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: maps.Clone(metadata)}
}

// Wrap returns an error with code that unwraps to cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// GetCode returns the code of the first *Error in err's chain, or
// CodeUnknown.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}
