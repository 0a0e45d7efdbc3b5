package testutil

import "github.com/zjrosen/dixel/internal/chain"

// WithGallery adds the standard dataset used across package tests.
//
// Structure:
//
//	heart   public sale, alice owns editions 1 and 2
//	smiley  hidden, owned by dana
//	club    whitelist-only; slots: bob, bob, carol; bob owns edition 1
func (b *Builder) WithGallery() *Builder {
	return b.
		WithCollection("heart", Artwork("builtin:heart")).
		WithCollection("smiley", Artwork("builtin:smiley"), Owner("dana"), Hidden()).
		WithCollection("club", Artwork("builtin:heart"), Name("Heart Club"), Symbol("CLUB"),
			WhitelistOnly(), MintingCost(0)).
		WithWhitelist("club", "bob", "bob", "carol").
		WithMints("heart", "alice", 2).
		WithMints("club", "bob", 1)
}

// WithSoldOut adds a collection whose supply is exhausted: edition 0 and one
// minted edition with a max supply of two.
func (b *Builder) WithSoldOut(label string) *Builder {
	return b.
		WithCollection(label, MaxSupply(2), MintingCost(1_000)).
		WithMints(label, "alice", 1)
}

// Ether is one ether in wei.
const Ether uint64 = 1_000_000_000_000_000_000

// Balances returns the balance of each named account.
func (f *Fixture) Balances(labels ...string) map[string]uint64 {
	out := make(map[string]uint64, len(labels))
	for _, l := range labels {
		out[l] = f.Engine.Balance(chain.AddressFromLabel(l))
	}
	return out
}
