package chain

import "errors"

// Kind classifies why an operation was rejected.
type Kind int

const (
	KindValidation Kind = iota
	KindAuthorization
	KindState
	KindArithmetic
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindArithmetic:
		return "arithmetic"
	default:
		return "unknown"
	}
}

// Revert is a rejected operation. Code is stable and meant for callers to match on.
// Reverts are declared once as package-level sentinels and compared with errors.Is.
type Revert struct {
	Kind Kind
	Code string
}

// NewRevert declares a revert sentinel.
func NewRevert(kind Kind, code string) *Revert {
	return &Revert{Kind: kind, Code: code}
}

func (r *Revert) Error() string {
	return r.Code
}

var (
	ErrNotOwner            = NewRevert(KindAuthorization, "Ownable: caller is not the owner")
	ErrInsufficientBalance = NewRevert(KindArithmetic, "INSUFFICIENT_BALANCE")
	ErrBalanceOverflow     = NewRevert(KindArithmetic, "BALANCE_OVERFLOW")
	ErrTransferRejected    = NewRevert(KindState, "TRANSFER_REJECTED")
	ErrZeroAddress         = NewRevert(KindValidation, "ZERO_ADDRESS")
	ErrCallDepth           = NewRevert(KindState, "CALL_DEPTH_EXCEEDED")
)

// AsRevert returns the first Revert in err's chain.
func AsRevert(err error) (*Revert, bool) {
	var r *Revert
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// ReasonCode returns the revert code carried by err, or "" when err is not a revert.
func ReasonCode(err error) string {
	if r, ok := AsRevert(err); ok {
		return r.Code
	}
	return ""
}
