package security

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
)

// MaxEmailLength is the RFC 5321 upper bound for a full address.
const MaxEmailLength = 320

// blockedHostPrefixes are matched against the lower-cased, unresolved hostname.
// A host equal to or starting with any entry is rejected.
var blockedHostPrefixes = []string{
	"localhost",
	"127.0.0.1",
	"0.0.0.0",
	"::1",
	"169.254.", // link-local, cloud metadata
	"10.",      // RFC 1918 class A
	"192.168.", // RFC 1918 class C
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// injectionChars can smuggle shell commands or extra mail headers.
const injectionChars = "|;&$`\n\r"

// ValidateURL rejects URLs that are not http(s), have no host, or whose hostname
// textually matches a loopback or private-network pattern. The check does not
// resolve DNS; use Validator with Strict set for resolution-based checks.
func ValidateURL(raw string) error {
	_, err := parseTarget(raw)
	return err
}

func parseTarget(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ValidationError{Field: "url", Reason: "empty URL", Err: ErrInvalidScheme}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ValidationError{Field: "url", Reason: "unparsable URL", Err: ErrInvalidScheme}
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, &ValidationError{
			Field:  "url",
			Reason: fmt.Sprintf("scheme %q not allowed, only http and https", u.Scheme),
			Err:    ErrInvalidScheme,
		}
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, &ValidationError{Field: "url", Reason: "missing hostname", Err: ErrInvalidHost}
	}

	if pattern := blockedPattern(host); pattern != "" {
		return nil, &ValidationError{
			Field:  "url",
			Reason: fmt.Sprintf("host %q matches blocked pattern %q", host, pattern),
			Err:    ErrSSRFBlocked,
		}
	}

	// IP literals outside the textual list (172.16/12, fc00::/7, 127.0.0.2, ...)
	if addr, err := netip.ParseAddr(host); err == nil && IsPrivateAddr(addr) {
		return nil, &ValidationError{
			Field:  "url",
			Reason: fmt.Sprintf("host %q is a private address", host),
			Err:    ErrSSRFBlocked,
		}
	}

	return u, nil
}

func blockedPattern(host string) string {
	for _, p := range blockedHostPrefixes {
		if strings.HasPrefix(host, p) {
			return p
		}
	}
	return ""
}

// ValidateEmail checks an address for header/shell injection characters, the
// RFC 5321 length limit, and a conservative local@domain.tld shape, in that order.
func ValidateEmail(address string) error {
	if strings.ContainsAny(address, injectionChars) {
		return &ValidationError{
			Field:  "email",
			Reason: "contains one of | ; & $ ` or a line break",
			Err:    ErrInjectionCharacter,
		}
	}

	if len(address) > MaxEmailLength {
		return &ValidationError{
			Field:  "email",
			Reason: fmt.Sprintf("%d characters, max %d", len(address), MaxEmailLength),
			Err:    ErrEmailTooLong,
		}
	}

	if !emailPattern.MatchString(strings.TrimSpace(address)) {
		return &ValidationError{
			Field:  "email",
			Reason: "expected format user@example.com",
			Err:    ErrInvalidEmailFormat,
		}
	}

	return nil
}

// ValidateEmails validates every address and returns the valid ones. If any
// address is invalid, a single error listing all failures is returned instead.
func ValidateEmails(addresses []string) ([]string, error) {
	valid := make([]string, 0, len(addresses))
	var errs []error

	for _, addr := range addresses {
		if err := ValidateEmail(addr); err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", SanitizeHeaderField(addr), err))
			continue
		}
		valid = append(valid, addr)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid emails found: %w", errors.Join(errs...))
	}
	return valid, nil
}

// Resolver looks up the addresses of a host. *net.Resolver satisfies it.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Validator performs URL validation with optional DNS resolution. With Strict
// set, the hostname is resolved and every returned address must be public,
// which catches public-looking names that point at internal networks.
type Validator struct {
	Resolver Resolver
	Strict   bool
}

// NewValidator returns a Validator using the system resolver.
func NewValidator(strict bool) *Validator {
	return &Validator{Resolver: net.DefaultResolver, Strict: strict}
}

// ValidateURL runs the textual checks of the package-level ValidateURL and,
// when Strict, the resolution-based check.
func (v *Validator) ValidateURL(ctx context.Context, raw string) error {
	u, err := parseTarget(raw)
	if err != nil {
		return err
	}
	if !v.Strict {
		return nil
	}

	host := u.Hostname()
	if _, err := netip.ParseAddr(host); err == nil {
		// literal already checked by parseTarget
		return nil
	}

	resolver := v.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	addrs, err := resolver.LookupNetIP(ctx, "ip", host)
	if err != nil || len(addrs) == 0 {
		return &ValidationError{
			Field:  "url",
			Reason: fmt.Sprintf("cannot resolve host %q", host),
			Err:    ErrInvalidHost,
		}
	}

	for _, addr := range addrs {
		if IsPrivateAddr(addr) {
			return &ValidationError{
				Field:  "url",
				Reason: fmt.Sprintf("host %q resolves to private address %s", host, addr),
				Err:    ErrSSRFBlocked,
			}
		}
	}

	return nil
}
