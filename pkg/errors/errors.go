package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	// CallerFacing codes show the error's own message instead of PublicMessage.
	CallerFacing bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:    {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true, CallerFacing: true},
	CodeUnauthorized:  {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required", CallerFacing: true},
	CodeForbidden:     {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied", CallerFacing: true},
	CodeNotFound:      {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found", CallerFacing: true},
	CodeConflict:      {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected", CallerFacing: true},
	CodeStateConflict: {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "state transition disallowed", DetailsAllowed: true, CallerFacing: true},
	CodeIdempotency:   {HTTPStatus: http.StatusConflict, PublicMessage: "idempotency key reused", DetailsAllowed: true, CallerFacing: true},
	CodeRateLimit:     {HTTPStatus: http.StatusTooManyRequests, Retryable: true, PublicMessage: "rate limit exceeded", CallerFacing: true},
	CodeInternal:      {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
	CodeDependency:    {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "dependency unavailable", DetailsAllowed: true},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the coded error every service returns; the HTTP layer maps Code to a status.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
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

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
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

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// FromRepo converts a repository error into a coded one. A missing record becomes
// NOT_FOUND naming the entity, coded errors pass through, anything else is a
// DEPENDENCY failure of the store.
func FromRepo(err error, entity string, id uint) error {
	if err == nil {
		return nil
	}
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return Newf(CodeNotFound, "%s %d not found", entity, id)
	}
	if typed := As(err); typed != nil {
		return typed
	}
	return Wrap(CodeDependency, err, fmt.Sprintf("load %s", entity))
}
