package factory

import (
	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
)

// State is the persisted form of a factory.
type State struct {
	Address        chain.Address
	Owner          chain.Address
	Implementation collection.Implementation
	Collections    []chain.Address
	Beneficiary    chain.Address
	CreationFee    uint64
	MintingFee     uint64
}

func (f *Factory) Snapshot() State {
	return State{
		Address:        f.address,
		Owner:          f.ownable.Owner(),
		Implementation: f.impl,
		Collections:    append([]chain.Address{}, f.collections...),
		Beneficiary:    f.beneficiary,
		CreationFee:    f.creationFee,
		MintingFee:     f.mintingFee,
	}
}

// Reconstitute rebuilds a factory from persisted state.
func Reconstitute(s State, dir Directory, opts ...collection.Option) *Factory {
	return &Factory{
		address:        s.Address,
		ownable:        chain.NewOwnable(s.Owner),
		impl:           s.Implementation,
		collections:    append([]chain.Address{}, s.Collections...),
		beneficiary:    s.Beneficiary,
		creationFee:    s.CreationFee,
		mintingFee:     s.MintingFee,
		directory:      dir,
		collectionOpts: opts,
	}
}
