package geocoder

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error kinds returned by the geocoder client. Every *Error matches ErrService
// with errors.Is in addition to its own kind.
var (
	ErrService                = errors.New("geocoder service error")
	ErrQuery                  = errors.New("geocoder query error")
	ErrAuthentication         = errors.New("geocoder authentication failure")
	ErrQuotaExceeded          = errors.New("geocoder quota exceeded")
	ErrInsufficientPrivileges = errors.New("geocoder insufficient privileges")
	ErrRateLimited            = errors.New("geocoder rate limited")
	ErrUnavailable            = errors.New("geocoder unavailable")
	ErrTimedOut               = errors.New("geocoder timed out")
	ErrParse                  = errors.New("geocoder parse error")
)

// Error is a classified failure of a geocoding request.
type Error struct {
	Kind       error         // Kind is one of the Err* sentinels above.
	StatusCode int           // StatusCode is the HTTP status, 0 for transport failures.
	Message    string        // Message is a vendor-provided or local description.
	RetryAfter time.Duration // RetryAfter is set for ErrRateLimited when the vendor sent Retry-After.
	Err        error         // Err is the underlying cause, if any.
}

// NewError creates an Error of the given kind.
func NewError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	var msg strings.Builder
	msg.WriteString(e.Kind.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&msg, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Message)
	}
	if e.Err != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Err.Error())
	}
	return msg.String()
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Is reports every classified error as a service error.
func (e *Error) Is(target error) bool {
	return target == ErrService
}

// kindForStatus maps a non-2xx HTTP status code onto an error kind.
func kindForStatus(code int) error {
	switch code {
	case 400:
		return ErrQuery
	case 401:
		return ErrAuthentication
	case 402:
		return ErrQuotaExceeded
	case 403:
		return ErrInsufficientPrivileges
	case 429:
		return ErrRateLimited
	case 503:
		return ErrUnavailable
	default:
		return ErrService
	}
}
