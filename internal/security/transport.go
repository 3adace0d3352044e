package security

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"time"
)

// privatePrefixes are loopback, private, link-local and unspecified ranges.
var privatePrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("::/128"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

// IsPrivateAddr reports whether addr is loopback, RFC 1918, RFC 4193,
// link-local or unspecified. IPv4-mapped IPv6 addresses are unmapped and
// zones dropped first; Prefix.Contains never matches a zoned address.
func IsPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap().WithZone("")
	for _, p := range privatePrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// maxRedirects matches net/http's default limit.
const maxRedirects = 10

// NewSafeTransport returns a transport whose dialer resolves the target itself
// and refuses private addresses at connection time. Validation at request time
// alone cannot stop a hostname that re-resolves to an internal IP afterwards.
func NewSafeTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// A proxy would be dialled instead of the target and defeat the check.
	transport.Proxy = nil
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
		if err != nil {
			return nil, err
		}
		if len(addrs) == 0 {
			return nil, fmt.Errorf("no addresses for host %s", host)
		}

		for _, a := range addrs {
			if IsPrivateAddr(a) {
				return nil, &ValidationError{
					Field:  "url",
					Reason: fmt.Sprintf("connection to private address %s", a),
					Err:    ErrSSRFBlocked,
				}
			}
		}

		// Dial the checked address so no second lookup can swap it.
		return dialer.DialContext(ctx, network, net.JoinHostPort(addrs[0].String(), port))
	}

	return transport
}

// SafeRedirectPolicy re-validates every redirect target with ValidateURL.
func SafeRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("stopped after 10 redirects")
	}
	return ValidateURL(req.URL.String())
}

// NewSafeClient returns an HTTP client using NewSafeTransport and SafeRedirectPolicy.
func NewSafeClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:       timeout,
		Transport:     NewSafeTransport(),
		CheckRedirect: SafeRedirectPolicy,
	}
}
