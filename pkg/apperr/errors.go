package apperr

import (
	"errors"
	"fmt"
)

type Code int

const (
	CodeUnknown Code = iota
	CodeValidation
	CodeNotFound
	CodeStoreRead
	CodeStoreWrite
	CodeProvider
)

func (c Code) String() string {
	switch c {
	case CodeValidation:
		return "validation"
	case CodeNotFound:
		return "not_found"
	case CodeStoreRead:
		return "store_read"
	case CodeStoreWrite:
		return "store_write"
	case CodeProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// ClientCaused reports whether the error is the caller's fault and safe to echo back.
func (c Code) ClientCaused() bool {
	return c == CodeValidation || c == CodeNotFound
}

type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}

	return fmt.Sprintf("%s: %s: %s", e.Code, e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, msg string) error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

func Wrap(code Code, err error, msg string) error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

func CodeOf(e error) Code {
	var err *Error
	if ok := errors.As(e, &err); ok {
		return err.Code
	}

	return CodeUnknown
}

// Message returns the human-readable message of the outermost *Error, or "" if there is none.
func Message(e error) string {
	var err *Error
	if ok := errors.As(e, &err); ok {
		return err.Msg
	}

	return ""
}
