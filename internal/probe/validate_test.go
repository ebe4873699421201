package probe

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateHost(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		wantErr bool
	}{
		{"ipv4", "192.168.1.1", false},
		{"hostname", "router.lan", false},
		{"fqdn with dash", "my-host.example.com", false},
		{"ipv6", "fe80::1", false},
		{"ipv6 with zone", "fe80::1%eth0", false},
		{"underscore", "host_name", false},
		{"empty", "", true},
		{"flag injection", "-f", true},
		{"option with value", "--help", true},
		{"shell metachar", "8.8.8.8; rm -rf /", true},
		{"space", "example.com -c 1000", true},
		{"backtick", "`id`", true},
		{"newline", "host\nother", true},
		{"too long", strings.Repeat("a", 254), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHost(tt.host)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateHost(%q) error = %v, wantErr %v", tt.host, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error %v should wrap ErrInvalidRequest", err)
			}
		})
	}
}

func TestValidatePrefix(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		wantErr bool
	}{
		{"private", "192.168.1", false},
		{"test net", "203.0.113", false},
		{"zeros", "0.0.0", false},
		{"empty", "", true},
		{"two octets", "192.168", true},
		{"four octets", "192.168.1.0", true},
		{"cidr", "192.168.1.0/24", true},
		{"octet too big", "192.168.256", true},
		{"negative", "192.-1.1", true},
		{"plus sign", "192.+1.1", true},
		{"letters", "a.b.c", true},
		{"empty octet", "192..1", true},
		{"flag", "-c.1.1", true},
		{"long octet", "0001.1.1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrefix(tt.prefix)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePrefix(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error %v should wrap ErrInvalidRequest", err)
			}
		})
	}
}
