/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package command

// Type classifies a command error. Validation errors are caused by the request and execute errors by
// the registry or its storage.
type Type int32

// Error types.
const (
	ValidationError Type = iota
	ExecuteError
)

func (t Type) String() string {
	switch t {
	case ValidationError:
		return "validation"
	case ExecuteError:
		return "execute"
	default:
		return "unknown"
	}
}

// Code identifies a command error on the wire.
type Code int32

// UnknownStatus is the code of errors raised outside any command.
const UnknownStatus Code = 0

// Group is the first code of a command's error codes. Groups are multiples of 1000.
type Group int32

// Registry error group for registry command errors.
const Registry Group = 2000

// Error is a command failure carrying a code and a type.
type Error interface {
	error
	Code() Code
	Type() Type
}

// NewValidationError returns an error caused by the request.
func NewValidationError(code Code, err error) Error {
	return &commandError{err: err, code: code, typ: ValidationError}
}

// NewExecuteError returns an error raised while executing a valid request.
func NewExecuteError(code Code, err error) Error {
	return &commandError{err: err, code: code, typ: ExecuteError}
}

type commandError struct {
	err  error
	code Code
	typ  Type
}

func (e *commandError) Error() string { return e.err.Error() }

func (e *commandError) Unwrap() error { return e.err }

func (e *commandError) Code() Code { return e.code }

func (e *commandError) Type() Type { return e.typ }
