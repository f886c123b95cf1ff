package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base interface for all application errors.
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// NotFoundError represents a resource that does not resolve.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }
func (e *NotFoundError) Code() string    { return "NOT_FOUND" }

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }
func (e *ValidationError) Code() string    { return "VALIDATION_ERROR" }

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError represents a conflict with existing data, such as a second
// workflow for a document or a duplicated step order.
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Resource, e.Message)
}

func (e *ConflictError) HTTPStatus() int { return http.StatusConflict }
func (e *ConflictError) Code() string    { return "CONFLICT" }

func NewConflictError(resource, message string) *ConflictError {
	return &ConflictError{Resource: resource, Message: message}
}

// InvalidStateError represents an operation attempted from a status that does
// not permit it.
type InvalidStateError struct {
	Resource string
	Current  string
	Message  string
}

func (e *InvalidStateError) Error() string {
	if e.Current != "" {
		return fmt.Sprintf("invalid state transition on %s (current: %s): %s", e.Resource, e.Current, e.Message)
	}
	return fmt.Sprintf("invalid state transition on %s: %s", e.Resource, e.Message)
}

func (e *InvalidStateError) HTTPStatus() int { return http.StatusUnprocessableEntity }
func (e *InvalidStateError) Code() string    { return "INVALID_STATE_TRANSITION" }

func NewInvalidStateError(resource, current, message string) *InvalidStateError {
	return &InvalidStateError{Resource: resource, Current: current, Message: message}
}

// UnauthorizedError represents authentication failures.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unauthorized: %s", e.Reason)
	}
	return "unauthorized"
}

func (e *UnauthorizedError) HTTPStatus() int { return http.StatusUnauthorized }
func (e *UnauthorizedError) Code() string    { return "UNAUTHORIZED" }

func NewUnauthorizedError(reason string) *UnauthorizedError {
	return &UnauthorizedError{Reason: reason}
}

// Status maps any error to an HTTP status. Unknown errors are system faults.
func Status(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// ErrorCode maps any error to a machine-readable code.
func ErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "INTERNAL_ERROR"
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsInvalidState(err error) bool {
	var e *InvalidStateError
	return errors.As(err, &e)
}
