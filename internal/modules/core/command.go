package core

import (
	"errors"
	"fmt"
	"net/http"
)

type Unit struct{}

type ErrorKind string

const (
	KindAuth              ErrorKind = "auth_error"
	KindNotFound          ErrorKind = "not_found"
	KindForbidden         ErrorKind = "forbidden"
	KindInvalidArgument   ErrorKind = "invalid_argument"
	KindInvalidState      ErrorKind = "invalid_state"
	KindConflict          ErrorKind = "conflict"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindInternal          ErrorKind = "internal"
)

const internalErrorMessage = "internal error"

var kindStatusCodes = map[ErrorKind]int{
	KindAuth:              http.StatusUnauthorized,
	KindNotFound:          http.StatusNotFound,
	KindForbidden:         http.StatusForbidden,
	KindInvalidArgument:   http.StatusBadRequest,
	KindInvalidState:      http.StatusConflict,
	KindConflict:          http.StatusConflict,
	KindInsufficientFunds: http.StatusPaymentRequired,
	KindInternal:          http.StatusInternalServerError,
}

type CommandError struct {
	Kind       ErrorKind
	Payload    interface{}
	StatusCode int
	Reason     *string
}

type CommandErrorOption func(*CommandError)

func WithReason(reason string) CommandErrorOption {
	return func(e *CommandError) {
		e.Reason = &reason
	}
}

func NewCommandError(kind ErrorKind, payload interface{}, opts ...CommandErrorOption) CommandError {
	statusCode, found := kindStatusCodes[kind]
	if !found {
		statusCode = http.StatusInternalServerError
	}

	e := CommandError{
		Kind:       kind,
		StatusCode: statusCode,
		Payload:    payload,
	}

	for _, opt := range opts {
		opt(&e)
	}

	return e
}

func (r CommandError) Error() string {
	var values struct {
		Kind       ErrorKind
		Payload    interface{}
		StatusCode int
		Reason     string
	}

	values.Kind = r.Kind
	values.Payload = r.Payload
	values.StatusCode = r.StatusCode

	if r.Reason != nil {
		values.Reason = *r.Reason
	}

	return fmt.Sprintf("%+v", values)
}

// Message is the stable, user facing text of the error.
func (r CommandError) Message() string {
	if r.Kind == KindInternal {
		return internalErrorMessage
	}

	if r.Reason != nil {
		return *r.Reason
	}

	switch p := r.Payload.(type) {
	case string:
		return p
	case error:
		return p.Error()
	}

	return string(r.Kind)
}

func (r CommandError) Unwrap() error {
	if err, ok := r.Payload.(error); ok {
		return err
	}
	return nil
}

func NotFound(message string) CommandError {
	return NewCommandError(KindNotFound, message)
}

func Forbidden(message string) CommandError {
	return NewCommandError(KindForbidden, message)
}

func InvalidArgument(message string) CommandError {
	return NewCommandError(KindInvalidArgument, message)
}

func InvalidState(message string) CommandError {
	return NewCommandError(KindInvalidState, message)
}

func Conflict(message string) CommandError {
	return NewCommandError(KindConflict, message)
}

func InsufficientFunds(message string) CommandError {
	return NewCommandError(KindInsufficientFunds, message)
}

func Unauthorized(message string) CommandError {
	return NewCommandError(KindAuth, message)
}

func Internal(err error) CommandError {
	return NewCommandError(KindInternal, err)
}

// KindOf reports the kind of err. Errors that are not CommandErrors are Internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var commandErr CommandError
	if errors.As(err, &commandErr) {
		return commandErr.Kind
	}

	return KindInternal
}

// PublicMessage is what gets sent back to clients for err.
func PublicMessage(err error) string {
	var commandErr CommandError
	if errors.As(err, &commandErr) {
		return commandErr.Message()
	}

	return internalErrorMessage
}

// AsCommandError keeps CommandErrors as they are and turns everything else
// into an Internal one.
func AsCommandError(err error) CommandError {
	var commandErr CommandError
	if errors.As(err, &commandErr) {
		return commandErr
	}

	return Internal(err)
}
