package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// OverloadError marks a service-overloaded response (529 / "overloaded").
// Overload is worth retrying with backoff: capacity comes back.
type OverloadError struct {
	Err error
}

func (e *OverloadError) Error() string { return e.Err.Error() }
func (e *OverloadError) Unwrap() error { return e.Err }

// NewOverloadError wraps err as an overload-class failure.
func NewOverloadError(err error) *OverloadError {
	return &OverloadError{Err: err}
}

// RateLimitError marks a rate-limited response (429). Retrying a rate
// limit burns budget without benefit, so callers fall back immediately
// instead of retrying.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string { return e.Err.Error() }
func (e *RateLimitError) Unwrap() error { return e.Err }

// NewRateLimitError wraps err as a rate-limit-class failure.
func NewRateLimitError(err error) *RateLimitError {
	return &RateLimitError{Err: err}
}

// IsOverload reports whether the error chain contains an OverloadError.
func IsOverload(err error) bool {
	var oe *OverloadError
	return errors.As(err, &oe)
}

// IsRateLimit reports whether the error chain contains a RateLimitError.
func IsRateLimit(err error) bool {
	var re *RateLimitError
	return errors.As(err, &re)
}

// ClassifyHTTPStatus maps an HTTP status code from an external service to
// an error class wrapper. Unrecognized statuses return err unchanged
// (hard-fail class).
func ClassifyHTTPStatus(err error, statusCode int) error {
	switch {
	case statusCode == 429:
		return NewRateLimitError(err)
	case statusCode == 529 || statusCode >= 500:
		return NewOverloadError(err)
	default:
		return err
	}
}

// IsTransient reports whether the error looks like a transient network
// failure (timeouts, resets, DNS) that the HTTP fetcher may retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if IsOverload(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String heuristics for errors wrapped by HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
