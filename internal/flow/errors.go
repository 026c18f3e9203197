package flow

import (
	"bitwise74/unmask-api/pkg/validators"
	"net/http"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindUnverified     Kind = "unverified"
	KindInvalidCode    Kind = "invalid_code"
	KindConflict       Kind = "conflict"
	KindInvalidRequest Kind = "invalid_request"
	KindInternal       Kind = "internal"
)

const (
	msgInvalidCredentials = "Invalid email or password."
	msgInvalidCode        = "Invalid or expired code."
	msgInternal           = "Internal server error"
)

// Error is a failed transition. Message is safe to show to the client and
// Redirect names the form the client should return to
type Error struct {
	Status   int
	Kind     Kind
	Message  string
	Redirect string
	Fields   validators.FieldErrors
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}

	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validation(redirect string, fields validators.FieldErrors) *Error {
	return &Error{
		Status:   http.StatusBadRequest,
		Kind:     KindValidation,
		Message:  capitalize(fields.Summary()),
		Redirect: redirect,
		Fields:   fields,
	}
}

func fieldError(redirect, field, msg string) *Error {
	return &Error{
		Status:   http.StatusBadRequest,
		Kind:     KindValidation,
		Message:  msg,
		Redirect: redirect,
		Fields:   validators.FieldErrors{field: {msg}},
	}
}

func invalidCode(redirect string) *Error {
	return &Error{
		Status:   http.StatusBadRequest,
		Kind:     KindInvalidCode,
		Message:  msgInvalidCode,
		Redirect: redirect,
		Fields:   validators.FieldErrors{"code": {msgInvalidCode}},
	}
}

func invalidRequest(redirect, msg string) *Error {
	return &Error{
		Status:   http.StatusBadRequest,
		Kind:     KindInvalidRequest,
		Message:  msg,
		Redirect: redirect,
	}
}

func internal(redirect string, err error) *Error {
	return &Error{
		Status:   http.StatusInternalServerError,
		Kind:     KindInternal,
		Message:  msgInternal,
		Redirect: redirect,
		Err:      err,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}

	return s
}
