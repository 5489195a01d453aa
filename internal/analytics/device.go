// Package analytics attributes requests to anonymized devices and
// countries without storing addresses.
package analytics

import (
	"encoding/hex"
	"net"
	"net/netip"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Attribution values for callers that cannot or should not be resolved.
const (
	Localhost = "Localhost"
	Local     = "Local"
	Unknown   = "Unknown"
)

const tokenLen = 12

// DeviceToken returns a stable anonymized token for addr: the first 12 hex
// characters of a BLAKE2b-256 keyed with secret. Loopback and empty
// addresses map to Localhost.
func DeviceToken(addr, secret string) string {
	ip, ok := parseAddr(addr)
	if !ok || ip.IsLoopback() {
		return Localhost
	}

	key := []byte(secret)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		return Unknown
	}
	h.Write([]byte(ip.String()))
	return hex.EncodeToString(h.Sum(nil))[:tokenLen]
}

// parseAddr accepts a bare IP or host:port and unmaps IPv4-in-IPv6.
func parseAddr(addr string) (netip.Addr, bool) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return netip.Addr{}, false
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	ip, err := netip.ParseAddr(strings.Trim(addr, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}
