package backendapi

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx backend response. Domain services map these onto
// their own error kinds; presentation code never sees one directly.
type APIError struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == statusCode
	}
	return false
}

func IsConflict(err error) bool { return IsStatus(err, http.StatusConflict) }
func IsNotFound(err error) bool { return IsStatus(err, http.StatusNotFound) }
func IsBadRequest(err error) bool { return IsStatus(err, http.StatusBadRequest) }
