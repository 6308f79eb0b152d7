package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xssnick/tonutils-go/address"
)

func TestValidWalletPrefixed(t *testing.T) {
	rules := WalletRules{Prefixes: []string{"gxr1"}}

	assert.True(t, rules.ValidWallet("gxr1qpzry9x8gf2tvdw0"))
	assert.True(t, rules.ValidWallet("  gxr1qqqqqqqq  "))
	assert.False(t, rules.ValidWallet("gxr1"))
	assert.False(t, rules.ValidWallet("gxr1abc"), "too short")
	assert.False(t, rules.ValidWallet("gxr1QQQQQQQQ"), "uppercase is outside the charset")
	assert.False(t, rules.ValidWallet("gxr1qqqqqqqb"), "b is excluded from bech32")
	assert.False(t, rules.ValidWallet("btc1qqqqqqqq"))
	assert.False(t, rules.ValidWallet(""))
}

func TestValidWalletTON(t *testing.T) {
	friendly := address.NewAddress(0, 0, make([]byte, 32)).String()
	raw := "0:" + "0000000000000000000000000000000000000000000000000000000000000000"

	withTON := WalletRules{Prefixes: []string{"gxr1"}, AcceptTON: true}
	assert.True(t, withTON.ValidWallet(friendly))
	assert.True(t, withTON.ValidWallet(raw))
	assert.False(t, withTON.ValidWallet("EQnotanaddress"))

	withoutTON := WalletRules{Prefixes: []string{"gxr1"}}
	assert.False(t, withoutTON.ValidWallet(friendly))
}

func TestWalletTag(t *testing.T) {
	type req struct {
		Address string `validate:"required,wallet"`
	}

	assert.NoError(t, Struct(req{Address: "gxr1qpzry9x8"}))
	assert.Error(t, Struct(req{Address: "nope"}))
	assert.Error(t, Struct(req{}))
}

func TestNormalizeDisplayName(t *testing.T) {
	assert.Equal(t, "alice", NormalizeDisplayName("  alice "))

	long := make([]rune, 100)
	for i := range long {
		long[i] = 'я'
	}
	assert.Len(t, []rune(NormalizeDisplayName(string(long))), MaxDisplayNameLength)
}
