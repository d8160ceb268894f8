package sync

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the token was missing, invalid or expired. The user must sign in again.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrServer covers any non-2xx response other than 401, 404 on read and 409
	ErrServer = errors.New("server error")
	// ErrNetwork means the request never produced an HTTP response
	ErrNetwork = errors.New("network error")
	// ErrStaleWrite means the server holds a newer record than the one the push was based on
	ErrStaleWrite = errors.New("stale write")
)

// HTTPError is a non-2xx response from the sync endpoint
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sync endpoint returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("sync endpoint returned %d: %s", e.Status, e.Message)
}

// Unwrap maps the status code onto the sentinel errors
func (e *HTTPError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrStaleWrite
	default:
		return ErrServer
	}
}

// Retryable reports whether repeating the call may succeed.
// A stale write is retryable after the caller re-fetches.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthorized) {
		return false
	}
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrServer) || errors.Is(err, ErrStaleWrite)
}
