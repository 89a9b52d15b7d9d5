package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// AppError is the base interface for all errors raised by servicekit
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// ConfigError represents a service or mixin declared without required
// metadata. It is raised at registration time and is not recoverable at
// request time; hosts are expected to let it abort startup.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("improperly configured: %s", e.Message)
}

func (e *ConfigError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *ConfigError) Code() string {
	return "IMPROPERLY_CONFIGURED"
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

// NewConfigError creates a new ConfigError
func NewConfigError(message string) *ConfigError {
	return &ConfigError{Message: message}
}

// PermissionError represents a failed guard check: the actor is not signed
// in or lacks a required permission.
type PermissionError struct {
	Message    string
	Permission string
}

func (e *PermissionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("permission denied: %s", e.Message)
	}
	return "permission denied"
}

func (e *PermissionError) HTTPStatus() int {
	return http.StatusForbidden
}

func (e *PermissionError) Code() string {
	return "PERMISSION_DENIED"
}

func (e *PermissionError) Is(target error) bool {
	_, ok := target.(*PermissionError)
	return ok
}

// NewPermissionError creates a new PermissionError
func NewPermissionError(message string) *PermissionError {
	return &PermissionError{Message: message}
}

// ValidationError represents form-level field errors on create/update.
// Fields maps a field name to the list of messages reported for it.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation error"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], "; ")))
	}
	return fmt.Sprintf("validation error: %s", strings.Join(parts, ", "))
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *ValidationError) Code() string {
	return "VALIDATION_ERROR"
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a ValidationError from a field error mapping
func NewValidationError(fields map[string][]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// NotFoundError represents a resource that was not found
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("record with ID %d not found", e.ID)
}

func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

func (e *NotFoundError) Code() string {
	return "NOT_FOUND"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource string, id int64) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// InvalidIDError represents a CRUD operation called with a non-integer id
type InvalidIDError struct {
	Value interface{}
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("id must be an integer, got %T (%v)", e.Value, e.Value)
}

func (e *InvalidIDError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *InvalidIDError) Code() string {
	return "INVALID_ID"
}

func (e *InvalidIDError) Is(target error) bool {
	_, ok := target.(*InvalidIDError)
	return ok
}

// NewInvalidIDError creates a new InvalidIDError
func NewInvalidIDError(value interface{}) *InvalidIDError {
	return &InvalidIDError{Value: value}
}

// UnauthorizedError represents authentication failures (bad or missing
// credentials, as opposed to missing permissions)
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unauthorized: %s", e.Reason)
	}
	return "unauthorized"
}

func (e *UnauthorizedError) HTTPStatus() int {
	return http.StatusUnauthorized
}

func (e *UnauthorizedError) Code() string {
	return "UNAUTHORIZED"
}

func (e *UnauthorizedError) Is(target error) bool {
	_, ok := target.(*UnauthorizedError)
	return ok
}

// NewUnauthorizedError creates a new UnauthorizedError
func NewUnauthorizedError(reason string) *UnauthorizedError {
	return &UnauthorizedError{Reason: reason}
}

// Prototype values usable as service error catalogue entries. Every typed
// error implements Is by kind, so errors.Is(err, ErrPermissionDenied)
// matches any PermissionError regardless of its message.
var (
	ErrPermissionDenied = &PermissionError{}
	ErrValidation       = &ValidationError{}
	ErrNotFound         = &NotFoundError{}
	ErrInvalidID        = &InvalidIDError{}
	ErrUnauthorized     = &UnauthorizedError{}
)

// Helper functions for error checking

// IsConfig checks if an error is a ConfigError
func IsConfig(err error) bool {
	var config *ConfigError
	return errors.As(err, &config)
}

// IsPermission checks if an error is a PermissionError
func IsPermission(err error) bool {
	var permission *PermissionError
	return errors.As(err, &permission)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsInvalidID checks if an error is an InvalidIDError
func IsInvalidID(err error) bool {
	var invalid *InvalidIDError
	return errors.As(err, &invalid)
}

// IsUnauthorized checks if an error is an UnauthorizedError
func IsUnauthorized(err error) bool {
	var unauthorized *UnauthorizedError
	return errors.As(err, &unauthorized)
}

// GetHTTPStatus returns the HTTP status code for an error
// Returns 500 if the error doesn't implement AppError
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetErrorCode returns the error code for an error
// Returns "UNKNOWN_ERROR" if the error doesn't implement AppError
func GetErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "UNKNOWN_ERROR"
}

// ErrorResponse represents a standardized error response body
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ToResponse converts an error to an ErrorResponse. ValidationErrors carry
// their field mapping in Details.
func ToResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Code:    GetErrorCode(err),
		Message: err.Error(),
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		resp.Details = validation.Fields
	}
	return resp
}
