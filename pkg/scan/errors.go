package scan

import (
	"errors"
	"fmt"
	"net/http"
)

// BodyExcerptLimit is the number of characters of a failed response body kept in errors.
const BodyExcerptLimit = 300

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of transport failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// TransportError is a fatal scan request failure: either a non-success
// status (with a truncated body excerpt) or a network error.
type TransportError struct {
	StatusCode int
	ErrorClass ErrorClass
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scan %s error: %v", e.ErrorClass, e.Err)
	}
	return fmt.Sprintf("scan %s error (status %d): %s", e.ErrorClass, e.StatusCode, e.Body)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// newStatusError builds a TransportError for a non-success response.
func newStatusError(status int, body []byte) *TransportError {
	return &TransportError{
		StatusCode: status,
		ErrorClass: classifyStatus(status),
		Body:       excerpt(body),
	}
}

// classifyStatus categorizes a response status. Returns "" for success.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if an error class is transient.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// client errors are verdicts, e.g. an unsupported column
		return false
	}
}

func excerpt(body []byte) string {
	r := []rune(string(body))
	if len(r) <= BodyExcerptLimit {
		return string(r)
	}
	return string(r[:BodyExcerptLimit])
}
