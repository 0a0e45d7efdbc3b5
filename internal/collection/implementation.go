package collection

import (
	"fmt"

	"github.com/zjrosen/dixel/internal/chain"
)

// DefaultExternalURL is the site token and contract documents link to.
const DefaultExternalURL = "https://dixel.club"

// Implementation is the behavior template a collection is bound to when it is
// created. A collection keeps its Implementation for life, even after the
// factory moves on to a newer one.
type Implementation struct {
	Address     chain.Address
	Version     uint64
	ExternalURL string
}

func (i Implementation) String() string {
	return fmt.Sprintf("V%d@%s", i.Version, i.Address)
}

// FeePolicy supplies the platform fee taken from every mint. The factory that
// created a collection is its policy.
type FeePolicy interface {
	Beneficiary() chain.Address
	MintingFee() uint64
}

// StaticFees is a fixed FeePolicy for collections outside any factory.
type StaticFees struct {
	Recipient chain.Address
	Fraction  uint64
}

func (s StaticFees) Beneficiary() chain.Address { return s.Recipient }
func (s StaticFees) MintingFee() uint64         { return s.Fraction }
