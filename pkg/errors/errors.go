package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeRateLimit       Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// Metadata describes how a code renders at the HTTP boundary. Status is the
// client-facing status class: "fail" for 4xx, "error" for 5xx. Operational
// errors are safe to expose verbatim to clients; everything else is suppressed
// in production.
type Metadata struct {
	HTTPStatus  int
	Status      string
	Operational bool
}

var metadataByCode = map[Code]Metadata{
	CodeBadRequest: {
		HTTPStatus:  http.StatusBadRequest,
		Status:      "fail",
		Operational: true,
	},
	CodeUnauthenticated: {
		HTTPStatus:  http.StatusUnauthorized,
		Status:      "fail",
		Operational: true,
	},
	CodeForbidden: {
		HTTPStatus:  http.StatusForbidden,
		Status:      "fail",
		Operational: true,
	},
	CodeNotFound: {
		HTTPStatus:  http.StatusNotFound,
		Status:      "fail",
		Operational: true,
	},
	CodeRateLimit: {
		HTTPStatus:  http.StatusTooManyRequests,
		Status:      "fail",
		Operational: true,
	},
	CodeInternal: {
		HTTPStatus:  http.StatusInternalServerError,
		Status:      "error",
		Operational: false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Operational reports whether the error is safe to disclose to clients.
func (e *Error) Operational() bool {
	return MetadataFor(e.Code()).Operational
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
