// Package domainerrors defines the coded errors services return to transports.
//
// Stores speak in sentinel facts (pkg/platform/sentinel); services translate those
// facts into a Code that handlers map onto a response. Validation errors also carry
// field-level messages so HTML forms can be re-rendered with inline errors.
package domainerrors

import (
	"errors"

	"boards/pkg/platform/forms"
)

// Code classifies a domain error.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error with an optional cause and field messages.
type Error struct {
	Code    Code
	Message string
	Fields  forms.Errors
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// Validation returns a CodeValidation error carrying field messages.
func Validation(fields forms.Errors) error {
	return &Error{Code: CodeValidation, Message: "validation failed", Fields: fields}
}

// CodeOf returns the code of the outermost domain error in err's chain,
// or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err's chain contains a domain error with the given code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// FieldsOf returns the field messages of a validation error, or nil.
func FieldsOf(err error) forms.Errors {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}
