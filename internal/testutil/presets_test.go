package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
)

func TestWithGallery(t *testing.T) {
	fx := NewBuilder(t, NewEngine(t)).WithGallery().Build()

	f, err := fx.Engine.Factory(fx.Deployment.Factory)
	require.NoError(t, err)
	require.Equal(t, []chain.Address{
		fx.Collections["heart"],
		fx.Collections["smiley"],
		fx.Collections["club"],
	}, f.GetCollections(0, 3))

	heart := fx.Collection(t, "heart")
	require.Equal(t, uint64(2), heart.BalanceOf(Account("alice")))

	smiley := fx.Collection(t, "smiley")
	require.True(t, smiley.ListData().Hidden)
	require.Equal(t, Account("dana"), smiley.Owner())

	club := fx.Collection(t, "club")
	require.Equal(t, "Heart Club", club.Name())
	owner, err := club.OwnerOf(1)
	require.NoError(t, err)
	require.Equal(t, Account("bob"), owner)
	require.Equal(t, uint64(1), club.GetWhitelistAllowanceLeft(Account("bob")))
	require.Equal(t, uint64(2), club.GetWhitelistCount())

	// Two heart mints at 0.01 ether with a 5% platform share.
	require.Equal(t, map[string]uint64{
		"creator":     19_000_000_000_000_000,
		"beneficiary": 1_000_000_000_000_000,
		"alice":       0,
	}, fx.Balances("creator", "beneficiary", "alice"))
}

func TestWithSoldOut(t *testing.T) {
	fx := NewBuilder(t, NewEngine(t)).WithSoldOut("rare").Build()

	c := fx.Collection(t, "rare")
	require.Equal(t, uint64(2), c.TotalSupply())

	ctx := context.Background()
	bob := Account("bob")
	require.NoError(t, fx.Engine.Faucet(ctx, bob, 1_000))
	_, err := fx.Engine.Mint(ctx, bob, c.Address(), 1_000, bob, c.ListData().CoverPalette)
	require.ErrorIs(t, err, collection.ErrMaxSupplyReached)
}
