package intervals

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MissingAPIKeyMessage is returned when neither the call nor the process
// configuration supplies an API key.
const MissingAPIKeyMessage = "API key is required. Set API_KEY env var or pass api_key"

// InvalidJSONMessage is returned when a response body cannot be decoded.
const InvalidJSONMessage = "Invalid JSON in response"

var (
	// ErrConnectionClosed is reported by a connection handle that has been
	// closed. The client recreates the handle once when it sees it.
	ErrConnectionClosed = errors.New("intervals: connection is closed")

	// ErrClientClosed is returned for requests issued after Close.
	ErrClientClosed = errors.New("intervals: client is closed")
)

// ErrorKind classifies an Error.
type ErrorKind string

const (
	// KindConfig means the request was rejected before any network access.
	KindConfig ErrorKind = "config"
	// KindTransport covers connection, DNS and timeout failures.
	KindTransport ErrorKind = "transport"
	// KindStatus means the server answered with a non-2xx status.
	KindStatus ErrorKind = "status"
	// KindDecode means the response body was not valid JSON.
	KindDecode ErrorKind = "decode"
)

// Error is the normalized error record produced by every failing request.
// Message is never empty.
type Error struct {
	Kind       ErrorKind
	StatusCode int // 0 when no response was received
	Message    string
	URL        string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

var statusMessages = map[int]string{
	http.StatusUnauthorized:        "401 Unauthorized: Please check your API key.",
	http.StatusForbidden:           "403 Forbidden: You may not have permission to access this resource.",
	http.StatusNotFound:            "404 Not Found: The requested endpoint or ID doesn't exist.",
	http.StatusUnprocessableEntity: "422 Unprocessable Entity: The server couldn't process the request (invalid parameters or unsupported operation).",
	http.StatusTooManyRequests:     "429 Too Many Requests: Too many requests in a short time period.",
	http.StatusInternalServerError: "500 Internal Server Error: The Intervals.icu server encountered an internal error.",
	http.StatusServiceUnavailable:  "503 Service Unavailable: The Intervals.icu server might be down or undergoing maintenance.",
}

// StatusMessage returns the human-readable message for an HTTP status code.
// Unmapped codes fall back to the raw response text.
func StatusMessage(code int, body string) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	if text := strings.TrimSpace(body); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d %s", code, http.StatusText(code))
}
