package chain

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressLength is the byte length of an Address.
const AddressLength = common.AddressLength

var ErrInvalidAddress = errors.New("invalid address")

// Address identifies an account: a wallet, a collection or a factory.
type Address struct {
	addr common.Address
}

// ZeroAddress is the unset address.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed 40 character hex string. Lowercase,
// uppercase and EIP-55 checksummed input are all accepted.
func ParseAddress(s string) (Address, error) {
	raw := strings.TrimSpace(s)
	if !common.IsHexAddress(raw) {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return Address{addr: common.HexToAddress(raw)}, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromLabel derives a stable address from a human label such as
// "alice": the low 20 bytes of keccak256("dixel:label:" + label).
func AddressFromLabel(label string) Address {
	return Address{addr: common.BytesToAddress(crypto.Keccak256([]byte("dixel:label:" + label)))}
}

// DeriveAddress computes the address of the nonce-th instance created by
// creator, the same way CREATE assigns contract addresses.
func DeriveAddress(creator Address, nonce uint64) Address {
	return Address{addr: crypto.CreateAddress(creator.addr, nonce)}
}

// Common returns the underlying go-ethereum address.
func (a Address) Common() common.Address {
	return a.addr
}

// Bytes returns a copy of the raw 20 bytes.
func (a Address) Bytes() []byte {
	return a.addr.Bytes()
}

// Compare orders addresses by their raw bytes.
func (a Address) Compare(b Address) int {
	return bytes.Compare(a.addr[:], b.addr[:])
}

// String returns the lowercase 0x-prefixed hex form.
func (a Address) String() string {
	return strings.ToLower(a.addr.Hex())
}

// Hex returns the EIP-55 checksummed form.
func (a Address) Hex() string {
	return a.addr.Hex()
}

// Short returns an abbreviated form for terminal output.
func (a Address) Short() string {
	s := a.String()
	return s[:6] + "…" + s[len(s)-4:]
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
