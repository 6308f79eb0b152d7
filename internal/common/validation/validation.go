package validation

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/xssnick/tonutils-go/address"
)

const (
	MaxWalletLength      = 90
	MinWalletBodyLength  = 6
	MaxDisplayNameLength = 64

	// bech32 data alphabet
	bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
)

// WalletRules describes which wallet formats are accepted.
type WalletRules struct {
	Prefixes  []string
	AcceptTON bool
}

// DefaultWalletRules accepts gxr1 addresses and TON addresses.
func DefaultWalletRules() WalletRules {
	return WalletRules{Prefixes: []string{"gxr1"}, AcceptTON: true}
}

// ValidWallet reports whether addr matches one of the accepted formats.
func (r WalletRules) ValidWallet(addr string) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" || len(addr) > MaxWalletLength {
		return false
	}

	for _, prefix := range r.Prefixes {
		if prefix == "" || !strings.HasPrefix(addr, prefix) {
			continue
		}
		if isBech32Body(addr[len(prefix):]) {
			return true
		}
	}

	if r.AcceptTON {
		return IsTONAddress(addr)
	}
	return false
}

func isBech32Body(body string) bool {
	if len(body) < MinWalletBodyLength {
		return false
	}
	for _, ch := range body {
		if !strings.ContainsRune(bech32Charset, ch) {
			return false
		}
	}
	return true
}

// IsTONAddress accepts user-friendly (base64) and raw (wc:hex) TON addresses.
func IsTONAddress(addr string) bool {
	if strings.Contains(addr, ":") {
		_, err := address.ParseRawAddr(addr)
		return err == nil
	}
	_, err := address.ParseAddr(addr)
	return err == nil
}

// NormalizeDisplayName trims and caps a Telegram display name.
func NormalizeDisplayName(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > MaxDisplayNameLength {
		name = string(runes[:MaxDisplayNameLength])
	}
	return name
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
	walletRules  = DefaultWalletRules()
	rulesMu      sync.RWMutex
)

// SetWalletRules replaces the rules used by the "wallet" struct tag.
func SetWalletRules(r WalletRules) {
	rulesMu.Lock()
	walletRules = r
	rulesMu.Unlock()
}

func currentRules() WalletRules {
	rulesMu.RLock()
	defer rulesMu.RUnlock()
	return walletRules
}

// Validator returns the shared validator with the custom "wallet" tag registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("wallet", func(fl validator.FieldLevel) bool {
			return currentRules().ValidWallet(fl.Field().String())
		})
	})
	return validate
}

// Struct validates s with the shared validator.
func Struct(s interface{}) error {
	return Validator().Struct(s)
}
