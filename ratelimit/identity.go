package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
)

// ClientID derives the rate-limiting identity for a request. A supplied
// credential takes precedence (hashed so the key itself is never used as a map
// key or logged); otherwise the first forwarded-address entry is used, and
// finally the direct connection address.
func ClientID(apiKey, forwardedFor, remoteAddr string) string {
	if apiKey != "" {
		sum := sha256.Sum256([]byte(apiKey))
		return hex.EncodeToString(sum[:])
	}

	if forwardedFor != "" {
		// First entry in the chain is the originating client.
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
