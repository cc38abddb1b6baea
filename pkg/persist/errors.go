package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Code is a machine-readable persistence failure category.
type Code string

const (
	CodeNotFound         Code = "NOT_FOUND"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeBusy             Code = "BUSY"
	CodeNoSpace          Code = "NO_SPACE"
	CodeReadOnly         Code = "READ_ONLY"
	CodeUnknown          Code = "UNKNOWN"
)

// Error is a persistence failure. Message is safe to show to users; the
// operating system error stays in Cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the code of err, or "" when err is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of an *Error without the code prefix, or
// err.Error() for anything else.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

var messages = map[Code]string{
	CodeNotFound:         "File or directory not found",
	CodePermissionDenied: "Permission denied",
	CodeBusy:             "File is busy or locked by another process",
	CodeNoSpace:          "Not enough disk space",
	CodeReadOnly:         "File system is read-only",
	CodeUnknown:          "Failed to save file",
}

// classify maps an I/O error onto the fixed code set.
func classify(err error) Code {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return CodeNotFound
	case errors.Is(err, fs.ErrPermission):
		return CodePermissionDenied
	case errors.Is(err, syscall.EBUSY), errors.Is(err, syscall.ETXTBSY):
		return CodeBusy
	case errors.Is(err, syscall.ENOSPC):
		return CodeNoSpace
	case errors.Is(err, syscall.EROFS):
		return CodeReadOnly
	default:
		return CodeUnknown
	}
}

// ioError wraps err with its classified code and the matching user message.
func ioError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	code := classify(err)
	return Wrap(code, err, "%s", messages[code])
}
