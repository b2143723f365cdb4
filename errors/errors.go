// Package errors adds call-site context to errors and separates the message
// shown to the operator from the technical cause behind it.
package errors

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// New creates a new error with file and line number information.
func New(format string, a ...interface{}) error {
	return fmt.Errorf("[%s] %s", caller(), fmt.Sprintf(format, a...))
}

// Wrapf adds context (including file and line number) to an existing error.
// If the provided error is nil, Wrapf returns nil.
func Wrapf(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("[%s] %s: %w", caller(), fmt.Sprintf(format, a...), err)
}

func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "???:0"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// Sentinel creates a plain comparable error for use with Is. Unlike New it
// carries no call-site prefix, so package-level sentinels read cleanly.
func Sentinel(msg string) error { return stderrors.New(msg) }

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func Join(errs ...error) error { return stderrors.Join(errs...) }

// UserError holds an operator-facing message and the underlying cause.
// Error() returns only Msg; the cause stays reachable through Unwrap for logs.
type UserError struct {
	Msg string
	Err error
}

func (e *UserError) Error() string {
	if e == nil {
		return ""
	}
	return e.Msg
}

func (e *UserError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// User returns an error whose message is meant for the operator. When cause
// is nil the result is a plain error with just msg.
func User(msg string, cause error) error {
	if cause == nil {
		return stderrors.New(msg)
	}
	return &UserError{Msg: msg, Err: cause}
}

// Detail returns the technical cause behind a UserError, or nil.
func Detail(err error) error {
	var ue *UserError
	if stderrors.As(err, &ue) {
		return ue.Err
	}
	return nil
}
