package ratelimiter

import (
	"net/netip"
	"strconv"
)

// KeyKind tells which identity a Key is built from.
type KeyKind uint8

const (
	KindAddr KeyKind = iota + 1
	KindPrincipal
	KindCombined
)

func (k KeyKind) String() string {
	switch k {
	case KindAddr:
		return "addr"
	case KindPrincipal:
		return "principal"
	case KindCombined:
		return "combined"
	default:
		return "unknown"
	}
}

// Key identifies a bucket. Keys of different kinds never share a bucket, even
// when the underlying values look the same.
//
// Key is comparable and is used directly as a map key.
type Key struct {
	kind      KeyKind
	addr      netip.Addr
	principal int64
}

// AddrKey returns the key of a client network address.
func AddrKey(addr netip.Addr) Key {
	return Key{kind: KindAddr, addr: addr.Unmap()}
}

// PrincipalKey returns the key of an authenticated principal.
func PrincipalKey(id int64) Key {
	return Key{kind: KindPrincipal, principal: id}
}

// CombinedKey returns the key of a principal acting from an address.
func CombinedKey(addr netip.Addr, id int64) Key {
	return Key{kind: KindCombined, addr: addr.Unmap(), principal: id}
}

// Kind returns the key kind.
func (k Key) Kind() KeyKind {
	return k.kind
}

// Addr returns the address part, if any.
func (k Key) Addr() (netip.Addr, bool) {
	return k.addr, k.kind == KindAddr || k.kind == KindCombined
}

// Principal returns the principal part, if any.
func (k Key) Principal() (int64, bool) {
	return k.principal, k.kind == KindPrincipal || k.kind == KindCombined
}

// String renders the key for logs, e.g. "addr:10.0.0.1" or "combined:10.0.0.1|42".
func (k Key) String() string {
	switch k.kind {
	case KindAddr:
		return "addr:" + k.addr.String()
	case KindPrincipal:
		return "principal:" + strconv.FormatInt(k.principal, 10)
	case KindCombined:
		return "combined:" + k.addr.String() + "|" + strconv.FormatInt(k.principal, 10)
	default:
		return "unknown"
	}
}
