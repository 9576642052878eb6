// Package fileops implements the two file operations served by sigscan:
// signature scanning and quarantine moves.
//
// Both operations validate their inputs the same way and report failures
// through *Error so callers can map the Code to a wire response.
package fileops

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a file operation failure.
type ErrorCode int

const (
	// ErrInvalidParameters indicates a required parameter is missing or malformed.
	ErrInvalidParameters ErrorCode = iota + 1

	// ErrNotFound indicates the target path does not exist or cannot be stat'ed.
	ErrNotFound

	// ErrIsDirectory indicates the target path is a directory.
	ErrIsDirectory

	// ErrIO indicates reading or moving the file failed after validation.
	ErrIO
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidParameters:
		return "InvalidParameters"
	case ErrNotFound:
		return "NotFound"
	case ErrIsDirectory:
		return "IsDirectory"
	case ErrIO:
		return "IOError"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Messages reported to clients for validation failures. These strings are
// part of the wire contract.
const (
	MsgInvalidParameters = "invalid parameters"
	MsgNotFound          = "file not found"
	MsgIsDirectory       = "File is directory"
)

// Error is a file operation failure.
type Error struct {
	Code ErrorCode
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the client-facing message for this error.
//
// Validation failures use fixed strings. I/O failures carry the
// underlying OS error text.
func (e *Error) Message() string {
	switch e.Code {
	case ErrInvalidParameters:
		return MsgInvalidParameters
	case ErrNotFound:
		return MsgNotFound
	case ErrIsDirectory:
		return MsgIsDirectory
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Code.String()
	}
}

// IsValidation reports whether the error is one of the validation kinds.
func (e *Error) IsValidation() bool {
	return e.Code == ErrInvalidParameters || e.Code == ErrNotFound || e.Code == ErrIsDirectory
}

func newInvalidParameters() *Error {
	return &Error{Code: ErrInvalidParameters}
}

func newNotFound(path string, cause error) *Error {
	return &Error{Code: ErrNotFound, Path: path, Err: cause}
}

func newIsDirectory(path string) *Error {
	return &Error{Code: ErrIsDirectory, Path: path}
}

func newIOError(path string, cause error) *Error {
	return &Error{Code: ErrIO, Path: path, Err: cause}
}

// CodeOf extracts the ErrorCode from err, returning 0 if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return 0
}
