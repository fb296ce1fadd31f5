// internal/utils/errors.go
package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindNotFound               ErrorKind = "NOT_FOUND"
	KindAccessDenied           ErrorKind = "ACCESS_DENIED"
	KindValidation             ErrorKind = "VALIDATION_ERROR"
	KindStateConflict          ErrorKind = "STATE_CONFLICT"
	KindUpstreamFailure        ErrorKind = "UPSTREAM_FAILURE"
	KindDuplicateCollaboration ErrorKind = "DUPLICATE_COLLABORATION"
)

// AppError is what services return to handlers. Message is safe to show
// to the caller and never carries internal ids.
type AppError struct {
	Kind    ErrorKind
	Message string
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindAccessDenied:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindStateConflict, KindDuplicateCollaboration:
		return http.StatusConflict
	case KindUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: resource + " not found"}
}

func AccessDenied(message string) *AppError {
	return &AppError{Kind: KindAccessDenied, Message: message}
}

func Validation(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func ValidationWithDetails(message string, details interface{}) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Details: details}
}

func StateConflict(message string) *AppError {
	return &AppError{Kind: KindStateConflict, Message: message}
}

func Upstream(message string, err error) *AppError {
	return &AppError{Kind: KindUpstreamFailure, Message: message, Err: err}
}

func Duplicate(message string) *AppError {
	return &AppError{Kind: KindDuplicateCollaboration, Message: message}
}

func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}
