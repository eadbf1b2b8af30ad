// Package errors provides the categorized error taxonomy for the figure tracker.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/figure-tracker/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryValidation represents bad input (blank key/id) - never retried
	CategoryValidation ErrorCategory = "validation"
	// CategoryFetch represents upstream source failures (unavailable, timeout, empty)
	CategoryFetch ErrorCategory = "fetch"
	// CategoryStore represents durable-store failures
	CategoryStore ErrorCategory = "store"
	// CategoryCache represents cache-store failures - never block a read or write path
	CategoryCache ErrorCategory = "cache"
	// CategoryNotFound represents missing resources
	CategoryNotFound ErrorCategory = "not_found"
	// CategorySystem represents everything else (5xx)
	CategorySystem ErrorCategory = "system"
)

// Error codes surfaced to callers
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeFetch            = "FETCH_ERROR"
	CodeFetchTimeout     = "FETCH_TIMEOUT"
	CodeEmptyResult      = "EMPTY_RESULT"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeCache            = "CACHE_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInternal         = "INTERNAL_ERROR"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// NewValidationError creates a validation error for a bad input key or id.
// Validation errors are surfaced immediately and never retried.
func NewValidationError(field, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       CodeValidation,
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		Details: map[string]interface{}{
			"field":  field,
			"reason": reason,
		},
	}
}

// NewFetchError creates an upstream fetch error for a key.
func NewFetchError(key string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryFetch,
		StatusCode: http.StatusBadGateway,
		Code:       CodeFetch,
		Message:    fmt.Sprintf("upstream fetch failed for %q", key),
		Cause:      cause,
		Details: map[string]interface{}{
			"key": key,
		},
	}
}

// NewFetchTimeoutError creates a fetch timeout error for a key.
// A timed-out fetch fails that key only; it never aborts a batch.
func NewFetchTimeoutError(key string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryFetch,
		StatusCode: http.StatusGatewayTimeout,
		Code:       CodeFetchTimeout,
		Message:    fmt.Sprintf("upstream fetch timed out for %q", key),
		Details: map[string]interface{}{
			"key": key,
		},
	}
}

// NewEmptyResultError is returned when the upstream source has no record for a key.
func NewEmptyResultError(key string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryFetch,
		StatusCode: http.StatusNotFound,
		Code:       CodeEmptyResult,
		Message:    fmt.Sprintf("upstream source returned no record for %q", key),
		Details: map[string]interface{}{
			"key": key,
		},
	}
}

// NewStoreUnavailableError creates a durable-store failure.
// The write that produced it rolled back; callers may retry.
func NewStoreUnavailableError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryStore,
		StatusCode: http.StatusServiceUnavailable,
		Code:       CodeStoreUnavailable,
		Message:    fmt.Sprintf("store unavailable during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewCacheError creates a cache-store failure. Cache errors must never fail
// an entity read or write; callers fall back to the durable store.
func NewCacheError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryCache,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeCache,
		Message:    fmt.Sprintf("cache error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource, id string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternal,
		Message:    message,
		Cause:      cause,
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr
	}

	return NewInternalError("unexpected error", err)
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsValidation reports whether the error is a validation error.
func IsValidation(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Category == CategoryValidation
}

// IsEmptyResult reports whether the error signals an empty upstream result.
func IsEmptyResult(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Code == CodeEmptyResult
}

// IsRetryable determines if an error is retryable at the next invocation.
// Validation errors never are; fetch and store errors are.
func IsRetryable(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	switch catErr.Category {
	case CategoryFetch, CategoryStore, CategoryCache:
		return true
	case CategorySystem:
		return catErr.StatusCode == http.StatusServiceUnavailable ||
			catErr.StatusCode == http.StatusGatewayTimeout
	default:
		return false
	}
}
