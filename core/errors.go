/*
Package core holds the error taxonomy shared by all packages of the
subsetting engine.

Every error produced by the engine carries a numeric code and a user message.
Callers either compare codes with `Code(err)` or match with `errors.Is`
against the sentinel values (`ErrMalformed`, `ErrStale`, …):

	if errors.Is(err, core.ErrEmptyClosure) {
	    // retry with a broader selection
	}

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package core

import (
	"errors"
	"fmt"
	"os"
)

// Error codes of the subsetting engine.
const (
	NOERROR    int = 0
	EINVALID   int = 123 // validation of an argument failed
	EINTERNAL  int = 125 // internal error
	EMALFORMED int = 130 // font binary is structurally invalid
	ESTALE     int = 131 // handle or region used after release
	EEMPTY     int = 132 // closure retained nothing beyond .notdef
	ESUBSET    int = 133 // serialization could not produce a valid font
)

func errorText(ecode int) string {
	switch ecode {
	case NOERROR:
		return "OK"
	case EINVALID:
		return "invalid"
	case EINTERNAL:
		return "internal error"
	case EMALFORMED:
		return "malformed font"
	case ESTALE:
		return "stale handle"
	case EEMPTY:
		return "empty closure"
	case ESUBSET:
		return "subset failed"
	}
	return "undefined error"
}

// Sentinels for use with errors.Is. Any error carrying the same code matches.
var (
	ErrInvalid      error = coreError{errors.New(errorText(EINVALID)), EINVALID, errorText(EINVALID), true}
	ErrMalformed    error = coreError{errors.New(errorText(EMALFORMED)), EMALFORMED, errorText(EMALFORMED), true}
	ErrStale        error = coreError{errors.New(errorText(ESTALE)), ESTALE, errorText(ESTALE), true}
	ErrEmptyClosure error = coreError{errors.New(errorText(EEMPTY)), EEMPTY, errorText(EEMPTY), true}
	ErrSubsetFailed error = coreError{errors.New(errorText(ESUBSET)), ESUBSET, errorText(ESUBSET), true}
)

// AppError is an error with an associated error code and a user-message.
type AppError interface {
	error
	ErrorCode() int
	UserMessage() string
}

type coreError struct {
	error
	code   int
	msg    string
	marker bool
}

func (e coreError) Unwrap() error {
	return e.error
}

func (e coreError) Error() string {
	if e.marker || e.msg == "" {
		return fmt.Sprintf("[%d] %v", e.code, e.error)
	}
	return fmt.Sprintf("[%d] %s: %v", e.code, e.msg, e.error)
}

func (e coreError) ErrorCode() int {
	return e.code
}

func (e coreError) UserMessage() string {
	return e.msg
}

// Is matches sentinel errors by code.
func (e coreError) Is(target error) bool {
	t, ok := target.(coreError)
	return ok && t.marker && t.code == e.code
}

var _ AppError = coreError{}

// ErrorWithCode adds an error code to err's error chain.
// Unlike pkg/errors, ErrorWithCode will wrap nil error.
func ErrorWithCode(err error, code int) error {
	if err == nil {
		err = errors.New(errorText(code))
	}
	return coreError{err, code, errorText(code), false}
}

// WrapError wraps an error in a core error, featuring an error code and
// a user message.
// If err is nil, an error denoting the code's default text is wrapped.
func WrapError(err error, code int, format string, v ...interface{}) error {
	if err == nil {
		err = errors.New(errorText(code))
	}
	msg := fmt.Sprintf(format, v...)
	return coreError{err, code, msg, false}
}

// Error creates an error with an error code and a user-message.
func Error(code int, format string, v ...interface{}) error {
	return coreError{
		errors.New(errorText(code)),
		code,
		fmt.Sprintf(format, v...),
		false,
	}
}

// Code returns the status code associated with an error.
// If no status code is found, it returns EINTERNAL.
// If err is nil, NOERROR is returned.
func Code(err error) (code int) {
	if err == nil {
		return NOERROR
	}
	if e := AppError(nil); errors.As(err, &e) {
		return e.ErrorCode()
	}
	return EINTERNAL
}

// UserMessage returns the user message associated with an error.
// If no message is found, it checks Code and returns that message.
// If err is nil, it returns "".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if e := AppError(nil); errors.As(err, &e) {
		return e.UserMessage()
	}
	return errorText(Code(err))
}

// UserError prints an error to stderr in a user-friendly format.
func UserError(err error) {
	if e, ok := err.(AppError); ok {
		fmt.Fprintf(os.Stderr, "[%d] %s\n", e.ErrorCode(), e.UserMessage())
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
}
