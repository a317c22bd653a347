package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures that cross the tool boundary
type ErrorKind string

const (
	KindMissingConfig  ErrorKind = "MissingConfigError"
	KindTransport      ErrorKind = "TransportError"
	KindUpstreamFormat ErrorKind = "UpstreamFormatError"
	KindInvalidInput   ErrorKind = "InvalidInputError"
)

// Error is the error type returned by the config, converter and search packages.
// StatusCode is only set for transport failures that carried an HTTP status.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: k}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// MissingConfig reports an absent or blank required setting
func MissingConfig(key string) *Error {
	return &Error{Kind: KindMissingConfig, Message: key + " not configured"}
}

// InvalidInput reports a malformed tool argument
func InvalidInput(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// UpstreamFormat reports model output that could not be decoded
func UpstreamFormat(message string, err error) *Error {
	return &Error{Kind: KindUpstreamFormat, Message: message, Err: err}
}

// Transport reports a network failure or a non-2xx status
func Transport(status int, message string, err error) *Error {
	return &Error{Kind: KindTransport, StatusCode: status, Message: message, Err: err}
}

// KindOf returns the kind of err, or "" when err is not an *Error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
