package model

import (
	"errors"
	"fmt"
)

type ErrorWithCode interface {
	Error() string
	Code() string
}

type Error struct {
	ErrCode string `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) Code() string {
	return e.ErrCode
}

// Fmt creates a new error from the base error template with provided arguments
func (e Error) Fmt(args ...any) Error {
	return Error{
		ErrCode: e.ErrCode,
		Message: fmt.Sprintf(e.Message, args...),
	}
}

func NewError(code, message string) Error {
	return Error{
		ErrCode: code,
		Message: message,
	}
}

// HasCode reports whether err (or anything it wraps) is an Error with the given code.
func HasCode(err error, code string) bool {
	var e Error
	if errors.As(err, &e) {
		return e.ErrCode == code
	}
	return false
}

var (
	ErrValidation     = NewError("validation", "Validation error: %s")
	ErrUnauthorized   = NewError("auth.unauthorized", "Missing or invalid bearer token")
	ErrObjectNotFound = NewError("object.not_found", "Object %s not found")
	ErrLinkExpired    = NewError("link.expired", "Presigned link has expired")
	ErrStorage        = NewError("object_store.failure", "Object store failure: %s")
)
