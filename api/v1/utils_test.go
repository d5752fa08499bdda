package v1

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIP(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain IPv4", "203.0.113.7", "203.0.113.7"},
		{"IPv4 with port", "203.0.113.7:44321", "203.0.113.7"},
		{"surrounding whitespace", "  198.51.100.23  ", "198.51.100.23"},
		{"quoted forwarded value", `"203.0.113.7"`, "203.0.113.7"},
		{"quoted with port", `"203.0.113.7:8080"`, "203.0.113.7"},
		{"plain IPv6", "2001:db8::1", "2001:db8::1"},
		{"bracketed IPv6", "[2001:db8::1]", "2001:db8::1"},
		{"bracketed IPv6 with port", "[2001:db8::1]:443", "2001:db8::1"},
		{"IPv4-mapped IPv6 unwraps", "::ffff:203.0.113.7", "203.0.113.7"},
		{"mapped IPv6 with port", "[::ffff:203.0.113.7]:443", "203.0.113.7"},
		{"zone identifier stripped", "fe80::1%eth0", "fe80::1"},
		{"empty", "", ""},
		{"garbage", "front-door", ""},
		{"hostname with port", "door-site.internal:8080", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, parsed := normalizeIP(tt.raw)
			assert.Equal(t, tt.want, clean)
			if tt.want == "" {
				assert.Nil(t, parsed)
			} else {
				require.NotNil(t, parsed)
				assert.Equal(t, tt.want, parsed.String())
			}
		})
	}
}

func TestSelectPreferredIP(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{
			"first public IPv4 wins",
			[]string{"203.0.113.7", "198.51.100.23"},
			"203.0.113.7",
		},
		{
			"skips the proxy chain's private hops",
			[]string{"10.0.0.5", "172.18.3.1", "198.51.100.23"},
			"198.51.100.23",
		},
		{
			"public IPv4 preferred over earlier public IPv6",
			[]string{"2001:db8::1", "203.0.113.7"},
			"203.0.113.7",
		},
		{
			"IPv6 fallback when no public IPv4",
			[]string{"192.168.1.10", "2001:db8::1"},
			"2001:db8::1",
		},
		{
			"mapped IPv4 counts as IPv4",
			[]string{"::ffff:203.0.113.7"},
			"203.0.113.7",
		},
		{
			"all private yields nothing",
			[]string{"10.1.2.3", "fc00::1", "127.0.0.1"},
			"",
		},
		{
			"empty input",
			nil,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectPreferredIP(tt.values))
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{
		"10.0.0.1",
		"172.16.0.1",
		"172.31.255.254",
		"192.168.1.1",
		"127.0.0.1",
		"::1",
		"fe80::1",
		"fc00::1",
	}
	for _, raw := range private {
		assert.True(t, isPrivateIP(net.ParseIP(raw)), raw)
	}

	public := []string{
		"203.0.113.7",
		"198.51.100.23",
		"172.32.0.1",
		"2001:db8::1",
	}
	for _, raw := range public {
		assert.False(t, isPrivateIP(net.ParseIP(raw)), raw)
	}

	assert.False(t, isPrivateIP(nil))
}

func TestParseForwardedHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   []string
	}{
		{
			"single entry",
			"for=203.0.113.7",
			[]string{"203.0.113.7"},
		},
		{
			"chain with proto and by directives",
			"for=203.0.113.7;proto=https, for=10.0.0.5;by=198.51.100.1",
			[]string{"203.0.113.7", "10.0.0.5"},
		},
		{
			"case-insensitive directive",
			"For=203.0.113.7",
			[]string{"203.0.113.7"},
		},
		{
			"no for directive",
			"proto=https;by=198.51.100.1",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseForwardedHeader(tt.header))
		})
	}
}

func TestGenerateETag(t *testing.T) {
	first := generateETag([]byte("tracker-v1"))
	second := generateETag([]byte("tracker-v1"))
	changed := generateETag([]byte("tracker-v2"))

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, changed)
	assert.True(t, len(first) > 2 && first[0] == '"' && first[len(first)-1] == '"')
}
