// Package security validates outbound targets and user-supplied values before they
// reach the network, an email header, or a log line.
package security

import (
	"errors"
	"fmt"
)

// Sentinel errors for input validation failures. Match with errors.Is.
var (
	// ErrInvalidScheme is returned when a URL scheme is not http or https
	ErrInvalidScheme = errors.New("invalid URL scheme")
	// ErrInvalidHost is returned when a URL has no host
	ErrInvalidHost = errors.New("invalid URL host")
	// ErrSSRFBlocked is returned when a URL targets a loopback or private network
	ErrSSRFBlocked = errors.New("internal URL blocked for security reasons")
	// ErrInvalidEmailFormat is returned when an address does not look like local@domain.tld
	ErrInvalidEmailFormat = errors.New("invalid email format")
	// ErrEmailTooLong is returned when an address exceeds MaxEmailLength
	ErrEmailTooLong = errors.New("email address too long")
	// ErrInjectionCharacter is returned when an address contains shell or header metacharacters
	ErrInjectionCharacter = errors.New("email contains invalid characters")
)

// ValidationError describes a rejected input. Field names the kind of input
// ("url", "email") and Reason holds diagnostic detail that never includes
// credentials or the full raw value.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s validation failed: %v: %s", e.Field, e.Err, e.Reason)
	}
	return fmt.Sprintf("%s validation failed: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is (or wraps) an input validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
