package nexus

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Common errors
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrVersionMismatch       = errors.New("server version mismatch")
	ErrInvalidRepositoryPath = errors.New("invalid repository path")
)

// maxErrorBody bounds how much of an error response is kept in APIError
const maxErrorBody = 4096

// APIError is returned when the server answers with an unexpected status
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, msg)
}

// Is maps well-known status codes onto the package sentinels so callers can
// use errors.Is(err, nexus.ErrNotFound)
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrInvalidCredentials:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// CheckResponse returns an *APIError unless the response status is one of
// expected. With no expected codes any 2xx status is accepted. The body is
// consumed only on error.
func CheckResponse(resp *http.Response, expected ...int) error {
	if len(expected) == 0 {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
	}
	for _, code := range expected {
		if resp.StatusCode == code {
			return nil
		}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
	if resp.Request != nil {
		apiErr.Method = resp.Request.Method
		apiErr.URL = resp.Request.URL.Redacted()
	}
	return apiErr
}
