package probe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRequest marks caller input rejected before any process is spawned.
var ErrInvalidRequest = errors.New("invalid request")

const maxHostLen = 253

// ValidateHost accepts hostnames and IPv4/IPv6 literals (with an optional
// zone). Anything that could be read as a flag by the ping utility is refused.
func ValidateHost(host string) error {
	if host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidRequest)
	}
	if len(host) > maxHostLen {
		return fmt.Errorf("%w: host longer than %d characters", ErrInvalidRequest, maxHostLen)
	}
	if strings.HasPrefix(host, "-") {
		return fmt.Errorf("%w: host must not start with '-'", ErrInvalidRequest)
	}
	for _, r := range host {
		if !isHostRune(r) {
			return fmt.Errorf("%w: host contains invalid character %q", ErrInvalidRequest, r)
		}
	}
	return nil
}

func isHostRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '-', r == ':', r == '_', r == '%':
		return true
	}
	return false
}

// ValidatePrefix accepts the first three octets of an IPv4 /24, e.g. "192.168.1".
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("%w: network prefix is required (e.g., 192.168.1)", ErrInvalidRequest)
	}
	octets := strings.Split(prefix, ".")
	if len(octets) != 3 {
		return fmt.Errorf("%w: network prefix %q must have exactly three octets", ErrInvalidRequest, prefix)
	}
	for _, o := range octets {
		if o == "" || len(o) > 3 {
			return fmt.Errorf("%w: invalid octet %q in network prefix", ErrInvalidRequest, o)
		}
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 || n > 255 || strings.ContainsAny(o, "+-") {
			return fmt.Errorf("%w: invalid octet %q in network prefix", ErrInvalidRequest, o)
		}
	}
	return nil
}
