package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dixel/internal/collection"
)

func TestBuilder_DeploysFactory(t *testing.T) {
	fx := NewBuilder(t, NewEngine(t)).
		WithFactory(Deployer("ops"), Beneficiary("treasury"), CreationFee(7), MintingFee(250)).
		Build()

	f, err := fx.Engine.Factory(fx.Deployment.Factory)
	require.NoError(t, err)
	require.Equal(t, Account("ops"), f.Owner())
	require.Equal(t, Account("treasury"), f.Beneficiary())
	require.Equal(t, uint64(7), f.CreationFee())
	require.Equal(t, uint64(250), f.MintingFee())
	require.Equal(t, fx.Deployment.Factory, fx.Engine.DefaultFactory())
}

func TestBuilder_Accounts(t *testing.T) {
	fx := NewBuilder(t, NewEngine(t)).
		WithAccount("alice", 3*Ether).
		WithAccount("bob", 1).
		Build()

	require.Equal(t, map[string]uint64{"alice": 3 * Ether, "bob": 1, "carol": 0},
		fx.Balances("alice", "bob", "carol"))
}

func TestBuilder_CollectionOptions(t *testing.T) {
	fx := NewBuilder(t, NewEngine(t)).
		WithFactory(CreationFee(1_000)).
		WithCollection("c", Owner("erin"), Artwork("builtin:smiley"), Name("Faces"), Symbol("FACE"),
			Description("many faces"), MaxSupply(10), Royalty(100), MintingCost(42), MintingBeginsFrom(Genesis+60)).
		Build()

	c := fx.Collection(t, "c")
	require.Equal(t, Account("erin"), c.Owner())
	require.Equal(t, "Faces", c.Name())
	require.Equal(t, "FACE", c.Symbol())
	require.Equal(t, "many faces", c.Description())
	require.Equal(t, collection.MetaParams{
		MaxSupply:         10,
		RoyaltyFraction:   100,
		MintingCost:       42,
		MintingBeginsFrom: Genesis + 60,
	}, c.Meta())

	// The creation fee was funded and paid to the beneficiary.
	require.Equal(t, map[string]uint64{"erin": 0, "beneficiary": 1_000}, fx.Balances("erin", "beneficiary"))
}

func TestBuilder_PublicMints(t *testing.T) {
	fx := NewBuilder(t, NewEngine(t)).
		WithCollection("heart").
		WithMints("heart", "alice", 3).
		Build()

	c := fx.Collection(t, "heart")
	require.Equal(t, uint64(4), c.TotalSupply())
	require.Equal(t, uint64(3), c.BalanceOf(Account("alice")))
	require.Equal(t, uint64(1), c.BalanceOf(Account("creator")))
}

func TestBuilder_WhitelistMintsConsumeSlots(t *testing.T) {
	fx := NewBuilder(t, NewEngine(t)).
		WithCollection("club", WhitelistOnly(), MintingCost(0)).
		WithWhitelist("club", "bob", "carol", "bob").
		WithMints("club", "bob", 2).
		Build()

	c := fx.Collection(t, "club")
	require.Equal(t, uint64(2), c.BalanceOf(Account("bob")))
	require.Equal(t, uint64(0), c.GetWhitelistAllowanceLeft(Account("bob")))
	require.Equal(t, uint64(1), c.GetWhitelistCount())
	require.True(t, c.IsWhitelistWallet(Account("carol")))
}

func TestFixedClock(t *testing.T) {
	require.Equal(t, int64(Genesis), FixedClock(Genesis).Now().Unix())

	e := NewEngine(t)
	require.NoError(t, e.Faucet(context.Background(), Account("x"), 5))
	require.Equal(t, uint64(5), e.Balance(Account("x")))
}
