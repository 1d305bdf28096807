package ratelimiter_test

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/budgetguard/pkg/ratelimiter"
)

func TestKey(t *testing.T) {
	t.Parallel()

	addr := netip.MustParseAddr("10.0.0.7")

	t.Run("kinds never collide", func(t *testing.T) {
		t.Parallel()

		keys := map[ratelimiter.Key]struct{}{
			ratelimiter.AddrKey(addr):         {},
			ratelimiter.PrincipalKey(7):       {},
			ratelimiter.CombinedKey(addr, 7):  {},
			ratelimiter.AddrKey(netip.Addr{}): {},
			ratelimiter.PrincipalKey(0):       {},
			ratelimiter.CombinedKey(addr, 0):  {},
		}
		assert.Len(t, keys, 6)
	})

	t.Run("equal parts give equal keys", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, ratelimiter.AddrKey(addr), ratelimiter.AddrKey(netip.MustParseAddr("10.0.0.7")))
		assert.Equal(t, ratelimiter.AddrKey(addr), ratelimiter.AddrKey(netip.MustParseAddr("::ffff:10.0.0.7")),
			"ipv4-mapped addresses share the ipv4 bucket")
		assert.Equal(t, ratelimiter.PrincipalKey(42), ratelimiter.PrincipalKey(42))
	})

	t.Run("accessors", func(t *testing.T) {
		t.Parallel()

		k := ratelimiter.CombinedKey(addr, 42)
		assert.Equal(t, ratelimiter.KindCombined, k.Kind())
		a, ok := k.Addr()
		assert.True(t, ok)
		assert.Equal(t, addr, a)
		p, ok := k.Principal()
		assert.True(t, ok)
		assert.Equal(t, int64(42), p)

		_, ok = ratelimiter.PrincipalKey(1).Addr()
		assert.False(t, ok)
		_, ok = ratelimiter.AddrKey(addr).Principal()
		assert.False(t, ok)
	})

	t.Run("string", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "addr:10.0.0.7", ratelimiter.AddrKey(addr).String())
		assert.Equal(t, "principal:42", ratelimiter.PrincipalKey(42).String())
		assert.Equal(t, "combined:10.0.0.7|42", ratelimiter.CombinedKey(addr, 42).String())
		assert.Equal(t, "combined", ratelimiter.KindCombined.String())
	})
}
