package internal

import (
	"net"
	"net/http"
	"strings"
)

// IdentityUnknown is the sentinel identity used when no address information is available at all
const IdentityUnknown = "unknown"

// ResolveIdentity derives the anonymous identity of a submitting client from the request headers
// and the transport-layer peer address. The fallback order is: first hop of X-Forwarded-For,
// X-Real-IP, the host part of the peer address, and finally the "unknown" sentinel.
//
// The identity is used for rate limiting and upvote deduplication. It is deliberately coarse -
// all attendees behind the same NAT share one identity
func ResolveIdentity(header http.Header, remoteAddr string) string {
	if fwd := header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(header.Get("X-Real-IP")); real != "" {
		return real
	}
	if remoteAddr != "" {
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil && host != "" {
			return host
		}
		// No port attached - use the address as-is
		return strings.Trim(remoteAddr, "[]")
	}
	return IdentityUnknown
}
