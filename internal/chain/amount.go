package chain

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"strings"
)

// Wei per ether.
const Ether uint64 = 1_000_000_000_000_000_000

var ErrInvalidAmount = errors.New("invalid amount")

// MulDiv returns floor(a*b/c) computed without intermediate overflow. The
// result must fit in 64 bits.
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrInvalidAmount)
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, fmt.Errorf("%w: %d*%d/%d overflows", ErrInvalidAmount, a, b, c)
	}
	q, _ := bits.Div64(hi, lo, c)
	return q, nil
}

// ParseAmount parses a wei amount. Plain integers are wei; a trailing "ether" or
// "gwei" unit scales a decimal value, e.g. "0.02ether".
func ParseAmount(s string) (uint64, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	scale := int64(0)
	switch {
	case strings.HasSuffix(raw, "ether"):
		raw, scale = strings.TrimSpace(strings.TrimSuffix(raw, "ether")), 18
	case strings.HasSuffix(raw, "gwei"):
		raw, scale = strings.TrimSpace(strings.TrimSuffix(raw, "gwei")), 9
	case strings.HasSuffix(raw, "wei"):
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "wei"))
	}
	if raw == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	r, ok := new(big.Rat).SetString(raw)
	if !ok || r.Sign() < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	r.Mul(r, new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(scale), nil)))
	if !r.IsInt() {
		return 0, fmt.Errorf("%w: %q has fractional wei", ErrInvalidAmount, s)
	}
	n := r.Num()
	if !n.IsUint64() {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidAmount, s)
	}
	return n.Uint64(), nil
}

// FormatEther renders wei as a trimmed decimal ether string.
func FormatEther(wei uint64) string {
	whole := wei / Ether
	frac := wei % Ether
	if frac == 0 {
		return fmt.Sprintf("%d ETH", whole)
	}
	digits := strings.TrimRight(fmt.Sprintf("%018d", frac), "0")
	return fmt.Sprintf("%d.%s ETH", whole, digits)
}
