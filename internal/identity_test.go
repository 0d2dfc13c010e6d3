package internal

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveIdentity(t *testing.T) {
	tests := []struct {
		name       string
		header     http.Header
		remoteAddr string
		want       string
	}{
		{
			name:       "forwarded chain wins and only the first hop counts",
			header:     http.Header{"X-Forwarded-For": {"203.0.113.7, 10.0.0.1"}, "X-Real-Ip": {"198.51.100.2"}},
			remoteAddr: "127.0.0.1:51234",
			want:       "203.0.113.7",
		},
		{
			name:       "real ip used when no forwarded header",
			header:     http.Header{"X-Real-Ip": {"198.51.100.2"}},
			remoteAddr: "127.0.0.1:51234",
			want:       "198.51.100.2",
		},
		{
			name:       "peer address without port",
			header:     http.Header{},
			remoteAddr: "192.0.2.4:8080",
			want:       "192.0.2.4",
		},
		{
			name:       "ipv6 peer address",
			header:     http.Header{},
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name:       "empty everything falls back to the sentinel",
			header:     http.Header{},
			remoteAddr: "",
			want:       IdentityUnknown,
		},
		{
			name:       "whitespace-only forwarded header is skipped",
			header:     http.Header{"X-Forwarded-For": {"  "}},
			remoteAddr: "192.0.2.4:8080",
			want:       "192.0.2.4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveIdentity(tt.header, tt.remoteAddr))
		})
	}
}
