package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrAuthorization  ErrorType = "AUTHORIZATION"
	ErrState          ErrorType = "STATE"
	ErrValidation     ErrorType = "VALIDATION"
	ErrArithmetic     ErrorType = "ARITHMETIC"
	ErrTiming         ErrorType = "TIMING"
	ErrResourceLimit  ErrorType = "RESOURCE_LIMIT"
	ErrNotFound       ErrorType = "NOT_FOUND"
	ErrAuthFailed     ErrorType = "AUTH_FAILED"
	ErrInvalidRequest ErrorType = "INVALID_REQUEST"
	ErrInternal       ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the application.
// Two AppErrors are considered the same error when their codes match,
// so sentinels declared in codes.go work with errors.Is.
type AppError struct {
	Type       ErrorType `json:"type"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// Withf returns a copy of the error carrying a more specific message.
func (e *AppError) Withf(format string, args ...any) *AppError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Code:       string(errType),
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func (e *AppError) withStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

func define(errType ErrorType, code, msg string) *AppError {
	e := New(errType, msg, nil)
	e.Code = code
	return e
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrValidation, ErrArithmetic, ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrAuthFailed:
		return http.StatusUnauthorized
	case ErrAuthorization:
		return http.StatusForbidden
	case ErrState, ErrTiming, ErrResourceLimit:
		return http.StatusConflict
	case ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrAuthorization:
		return "Check that the signer holds the required role."
	case ErrTiming:
		return "Check the order deadline or trade settle window."
	case ErrResourceLimit:
		return "Remove an existing entry before adding a new one."
	case ErrAuthFailed:
		return "Check API keys."
	case ErrArithmetic:
		return "Reduce the amount or price."
	default:
		return ""
	}
}
