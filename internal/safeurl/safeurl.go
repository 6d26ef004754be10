// Package safeurl guards outbound document fetches: URL scheme and address
// validation (SSRF prevention) and bounded response reads.
package safeurl

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
)

// MaxBody is the default cap for response body reads (10 MiB).
const MaxBody int64 = 10 << 20

// ErrBlocked is returned when a URL targets a private, loopback or
// link-local address.
var ErrBlocked = errors.New("safeurl: URL targets a private or loopback address")

// ErrUnsafeScheme is returned when a URL uses a non-HTTP(S) scheme.
var ErrUnsafeScheme = errors.New("safeurl: only http and https schemes are allowed")

// ValidateScheme checks that rawURL uses http/https, carries no credentials,
// and has a hostname. It performs no address checks; use Validate for the
// full SSRF guard.
func ValidateScheme(rawURL string) error {
	_, err := parseChecked(rawURL)
	return err
}

func parseChecked(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("safeurl: invalid URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, ErrUnsafeScheme
	}
	if u.User != nil {
		return nil, fmt.Errorf("safeurl: URL must not carry credentials")
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("safeurl: URL has no host")
	}
	return u, nil
}

// Validate checks that rawURL uses http/https, has a hostname, and does not
// resolve to a private or loopback IP. Hostnames are DNS-resolved so that
// internal names cannot smuggle private targets past a literal-IP check.
func Validate(rawURL string) error {
	u, err := parseChecked(rawURL)
	if err != nil {
		return err
	}
	host := u.Hostname()

	// Literal IP first.
	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return ErrBlocked
		}
		return nil
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		// DNS failure: let it through, the dial will fail with a proper
		// network error if the host really is unreachable.
		return nil
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && isPrivateIP(ip) {
			return ErrBlocked
		}
	}
	return nil
}

// LimitedReadAll reads at most maxBytes from r and errors when the input
// exceeds the limit, instead of silently truncating.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	lr := io.LimitReader(r, maxBytes+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("safeurl: response exceeds %d bytes", maxBytes)
	}
	return data, nil
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() {
		return true
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fc00::/7",
		"169.254.0.0/16",
		"::1/128",
	}
	for _, pr := range privateRanges {
		_, cidr, err := net.ParseCIDR(pr)
		if err != nil {
			continue
		}
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
