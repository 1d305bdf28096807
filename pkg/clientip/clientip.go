package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const (
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
)

// GetIP returns the best-effort client address of r. It tries, in order, the
// first X-Forwarded-For token, X-Real-IP and the peer address. A source that
// does not parse is skipped. IPv4-mapped IPv6 addresses are unmapped and zones
// are dropped.
func GetIP(r *http.Request) (netip.Addr, bool) {
	if r == nil {
		return netip.Addr{}, false
	}

	if xff := r.Header.Get(HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, ok := parse(first); ok {
			return addr, true
		}
	}

	if addr, ok := parse(r.Header.Get(HeaderXRealIP)); ok {
		return addr, true
	}

	return parseRemoteAddr(r.RemoteAddr)
}

func parse(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.IsUnspecified() {
		return netip.Addr{}, false
	}
	return addr.Unmap().WithZone(""), true
}

func parseRemoteAddr(remote string) (netip.Addr, bool) {
	if remote == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return parse(ap.Addr().String())
	}
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		// Some transports set RemoteAddr without a port.
		return parse(remote)
	}
	return parse(host)
}
