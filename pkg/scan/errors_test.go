package scan

import (
	"errors"
	"strings"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{"client error should not retry", ErrorClassClient, false},
		{"server error should retry", ErrorClassServer, true},
		{"rate limit should retry", ErrorClassRateLimit, true},
		{"network error should retry", ErrorClassNetwork, true},
		{"empty error class should not retry", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetry(tt.errorClass); got != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.errorClass, got, tt.expected)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorClass
	}{
		{200, ""},
		{204, ""},
		{304, ""},
		{400, ErrorClassClient},
		{404, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.expected {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
		}
	}
}

func TestTransportError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *TransportError
		expected string
	}{
		{
			name:     "status error",
			err:      &TransportError{StatusCode: 400, ErrorClass: ErrorClassClient, Body: `{"error":"Unknown field"}`},
			expected: `scan client error (status 400): {"error":"Unknown field"}`,
		},
		{
			name:     "network error",
			err:      &TransportError{ErrorClass: ErrorClassNetwork, Err: errors.New("connection refused")},
			expected: "scan network error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	base := errors.New("dial tcp: timeout")
	err := error(&TransportError{ErrorClass: ErrorClassNetwork, Err: base})

	if !errors.Is(err, base) {
		t.Error("errors.Is should find the wrapped error")
	}

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatal("errors.As should find *TransportError")
	}
	if te.ErrorClass != ErrorClassNetwork {
		t.Errorf("ErrorClass = %q, want network", te.ErrorClass)
	}
}

func TestNewStatusError_TruncatesBody(t *testing.T) {
	body := strings.Repeat("x", 1000)
	err := newStatusError(500, []byte(body))

	if len(err.Body) != BodyExcerptLimit {
		t.Errorf("Body length = %d, want %d", len(err.Body), BodyExcerptLimit)
	}
	if err.StatusCode != 500 || err.ErrorClass != ErrorClassServer {
		t.Errorf("got status %d class %q", err.StatusCode, err.ErrorClass)
	}

	short := newStatusError(400, []byte("bad column"))
	if short.Body != "bad column" {
		t.Errorf("Body = %q, want unchanged short body", short.Body)
	}

	// excerpts count characters, not bytes
	multibyte := newStatusError(400, []byte(strings.Repeat("é", 400)))
	if n := len([]rune(multibyte.Body)); n != BodyExcerptLimit {
		t.Errorf("rune length = %d, want %d", n, BodyExcerptLimit)
	}
}
