package factory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/pixel"
)

var (
	factoryAddr = chain.AddressFromLabel("factory")
	deployer    = chain.AddressFromLabel("deployer")
	treasury    = chain.AddressFromLabel("treasury")
	creator     = chain.AddressFromLabel("creator")
	minter      = chain.AddressFromLabel("minter")
	implV1      = collection.Implementation{Address: chain.AddressFromLabel("impl-v1"), Version: 1}
	implV2      = collection.Implementation{Address: chain.AddressFromLabel("impl-v2"), Version: 2}
)

type memDirectory struct {
	impls       map[chain.Address]collection.Implementation
	collections map[chain.Address]*collection.Collection
}

func newMemDirectory(impls ...collection.Implementation) *memDirectory {
	d := &memDirectory{
		impls:       make(map[chain.Address]collection.Implementation),
		collections: make(map[chain.Address]*collection.Collection),
	}
	for _, impl := range impls {
		d.impls[impl.Address] = impl
	}
	return d
}

func (d *memDirectory) Register(j *chain.Journal, c *collection.Collection) {
	addr := c.Address()
	chain.SetKey(j, &addr, d.collections, addr, c)
}

func (d *memDirectory) Implementation(addr chain.Address) (collection.Implementation, bool) {
	impl, ok := d.impls[addr]
	return impl, ok
}

type fixture struct {
	t   *testing.T
	rt  *chain.Runtime
	dir *memDirectory
	f   *Factory
}

func newFixture(t *testing.T, creationFee, mintingFee uint64) *fixture {
	t.Helper()
	dir := newMemDirectory(implV1, implV2)
	f, err := New(factoryAddr, implV1, Config{
		Owner:       deployer,
		Beneficiary: treasury,
		CreationFee: creationFee,
		MintingFee:  mintingFee,
	}, dir)
	require.NoError(t, err)
	return &fixture{t: t, rt: chain.NewRuntime(), dir: dir, f: f}
}

func (fx *fixture) fund(addr chain.Address, amount uint64) {
	fx.t.Helper()
	_, err := fx.rt.Execute(context.Background(), chain.Call{From: addr, To: addr}, func(tx *chain.Tx) error {
		return tx.Accounts().Credit(tx.Journal(), addr, amount)
	})
	require.NoError(fx.t, err)
}

func (fx *fixture) call(from chain.Address, value uint64, fn func(tx *chain.Tx) error) (*chain.Receipt, error) {
	fx.t.Helper()
	return fx.rt.Execute(context.Background(), chain.Call{From: from, To: factoryAddr, Value: value}, fn)
}

func shape() (pixel.Canvas, pixel.Palette) {
	var c pixel.Canvas
	c.Set(3, 4, 1)
	c.Set(4, 4, 1)
	var p pixel.Palette
	p[1] = pixel.RGB(200, 10, 10)
	return c, p
}

func (fx *fixture) create(from chain.Address, value uint64, name string, meta collection.MetaParams) (chain.Address, *chain.Receipt, error) {
	fx.t.Helper()
	canvas, palette := shape()
	var addr chain.Address
	receipt, err := fx.call(from, value, func(tx *chain.Tx) error {
		var err error
		addr, err = fx.f.Create(tx, name, "SYM", "description", meta, palette, canvas)
		return err
	})
	return addr, receipt, err
}

func openMeta() collection.MetaParams {
	return collection.MetaParams{MaxSupply: 10, RoyaltyFraction: 250}
}

func TestNew_Rejections(t *testing.T) {
	dir := newMemDirectory(implV1)
	_, err := New(factoryAddr, implV1, Config{Owner: deployer}, dir)
	require.ErrorIs(t, err, ErrZeroBeneficiary)
	_, err = New(factoryAddr, implV1, Config{Owner: deployer, Beneficiary: treasury, MintingFee: collection.FrictionBase + 1}, dir)
	require.ErrorIs(t, err, ErrInvalidMintingFee)
	_, err = New(factoryAddr, implV2, Config{Owner: deployer, Beneficiary: treasury}, dir)
	require.ErrorIs(t, err, ErrUnknownImplementation)
}

func TestCreate(t *testing.T) {
	fx := newFixture(t, 1_000, 500)
	fx.fund(creator, 5_000)

	addr, receipt, err := fx.create(creator, 1_000, "Shapes", openMeta())
	require.NoError(t, err)

	require.Equal(t, uint64(1), fx.f.CollectionCount())
	first, err := fx.f.Collections(0)
	require.NoError(t, err)
	require.Equal(t, addr, first)
	require.Equal(t, uint64(1_000), fx.rt.Accounts().BalanceOf(treasury))
	require.Equal(t, uint64(4_000), fx.rt.Accounts().BalanceOf(creator))
	require.Zero(t, fx.rt.Accounts().BalanceOf(factoryAddr))

	c := fx.dir.collections[addr]
	require.NotNil(t, c)
	require.Equal(t, creator, c.Owner())
	require.Equal(t, uint64(1), c.Version())
	require.Equal(t, factoryAddr, c.Factory())
	owner, err := c.OwnerOf(0)
	require.NoError(t, err)
	require.Equal(t, creator, owner)

	var created *chain.Event
	for i := range receipt.Events {
		if receipt.Events[i].Name == "CollectionCreated" {
			created = &receipt.Events[i]
		}
	}
	require.NotNil(t, created)
	require.Equal(t, addr.String(), created.Get("nftAddress"))
	require.Equal(t, "Shapes", created.Get("name"))
	require.Equal(t, "SYM", created.Get("symbol"))
	require.Equal(t, factoryAddr, created.Emitter)
}

func TestCreate_Rejections(t *testing.T) {
	fx := newFixture(t, 1_000, 500)
	fx.fund(creator, 5_000)

	_, _, err := fx.create(creator, 999, "Shapes", openMeta())
	require.ErrorIs(t, err, ErrInvalidCreationFee)

	_, _, err = fx.create(creator, 999, " ", openMeta())
	require.ErrorIs(t, err, collection.ErrNameBlank, "argument validation comes before the fee check")

	meta := openMeta()
	meta.MaxSupply = collection.MaxSupplyCap + 1
	_, _, err = fx.create(creator, 1_000, "Shapes", meta)
	require.ErrorIs(t, err, collection.ErrInvalidMaxSupply)

	require.Zero(t, fx.f.CollectionCount())
	require.Empty(t, fx.dir.collections)
	require.Equal(t, uint64(5_000), fx.rt.Accounts().BalanceOf(creator))
	require.Zero(t, fx.rt.Accounts().NonceOf(factoryAddr))
}

func TestCreate_BeneficiaryRejectionIsAtomic(t *testing.T) {
	fx := newFixture(t, 1_000, 0)
	fx.fund(creator, 1_000)
	fx.rt.Accounts().SetReceiver(treasury, chain.ReceiverFunc(func(*chain.Tx, chain.Address, uint64) error {
		return errors.New("closed")
	}))

	_, _, err := fx.create(creator, 1_000, "Shapes", openMeta())
	require.ErrorIs(t, err, chain.ErrTransferRejected)
	require.Zero(t, fx.f.CollectionCount())
	require.Empty(t, fx.dir.collections)
	require.Equal(t, uint64(1_000), fx.rt.Accounts().BalanceOf(creator))

	fx.rt.Accounts().SetReceiver(treasury, nil)
	addr, _, err := fx.create(creator, 1_000, "Shapes", openMeta())
	require.NoError(t, err)
	require.Equal(t, chain.DeriveAddress(factoryAddr, 0), addr)
}

func TestUpdateImplementation_OnlyAffectsNewCollections(t *testing.T) {
	fx := newFixture(t, 0, 0)

	v1Addr, _, err := fx.create(creator, 0, "Old", openMeta())
	require.NoError(t, err)

	_, err = fx.call(creator, 0, func(tx *chain.Tx) error { return fx.f.UpdateImplementation(tx, implV2.Address) })
	require.ErrorIs(t, err, chain.ErrNotOwner)
	_, err = fx.call(deployer, 0, func(tx *chain.Tx) error {
		return fx.f.UpdateImplementation(tx, chain.AddressFromLabel("nowhere"))
	})
	require.ErrorIs(t, err, ErrUnknownImplementation)

	_, err = fx.call(deployer, 0, func(tx *chain.Tx) error { return fx.f.UpdateImplementation(tx, implV2.Address) })
	require.NoError(t, err)
	require.Equal(t, implV2.Address, fx.f.NFTImplementation())

	v2Addr, _, err := fx.create(creator, 0, "New", openMeta())
	require.NoError(t, err)

	require.Equal(t, uint64(1), fx.dir.collections[v1Addr].Version())
	require.Equal(t, uint64(2), fx.dir.collections[v2Addr].Version())
}

func TestMintingFeeAppliesToExistingCollections(t *testing.T) {
	fx := newFixture(t, 0, 500)
	meta := openMeta()
	meta.MintingCost = 10_000
	addr, _, err := fx.create(creator, 0, "Shapes", meta)
	require.NoError(t, err)
	c := fx.dir.collections[addr]

	_, err = fx.call(deployer, 0, func(tx *chain.Tx) error { return fx.f.UpdateMintingFee(tx, 1_000) })
	require.NoError(t, err)

	fx.fund(minter, 10_000)
	_, err = fx.rt.Execute(context.Background(), chain.Call{From: minter, To: addr, Value: 10_000}, func(tx *chain.Tx) error {
		_, err := c.MintPublic(tx, minter, pixel.Palette{})
		return err
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), fx.rt.Accounts().BalanceOf(treasury))
	require.Equal(t, uint64(9_000), fx.rt.Accounts().BalanceOf(creator))
}

func TestFeeSettings(t *testing.T) {
	fx := newFixture(t, 0, 0)
	other := chain.AddressFromLabel("other")

	_, err := fx.call(deployer, 0, func(tx *chain.Tx) error { return fx.f.UpdateMintingFee(tx, collection.FrictionBase+1) })
	require.ErrorIs(t, err, ErrInvalidMintingFee)
	_, err = fx.call(deployer, 0, func(tx *chain.Tx) error { return fx.f.UpdateBeneficiary(tx, chain.ZeroAddress) })
	require.ErrorIs(t, err, ErrZeroBeneficiary)
	_, err = fx.call(creator, 0, func(tx *chain.Tx) error { return fx.f.UpdateCreationFee(tx, 5) })
	require.ErrorIs(t, err, chain.ErrNotOwner)

	_, err = fx.call(deployer, 0, func(tx *chain.Tx) error {
		if err := fx.f.UpdateBeneficiary(tx, other); err != nil {
			return err
		}
		if err := fx.f.UpdateCreationFee(tx, 7); err != nil {
			return err
		}
		return fx.f.UpdateMintingFee(tx, collection.FrictionBase)
	})
	require.NoError(t, err)
	require.Equal(t, other, fx.f.Beneficiary())
	require.Equal(t, uint64(7), fx.f.CreationFee())
	require.Equal(t, collection.FrictionBase, fx.f.MintingFee())
}

func TestConstants(t *testing.T) {
	fx := newFixture(t, 0, 0)
	require.Equal(t, uint64(1_000_000), fx.f.MaxSupplyCap())
	require.Equal(t, uint64(1_000), fx.f.MaxRoyaltyCap())
	require.Equal(t, uint64(10_000), fx.f.FrictionBase())
	require.Equal(t, deployer, fx.f.Owner())
}

func TestGetCollections(t *testing.T) {
	fx := newFixture(t, 0, 0)
	var addrs []chain.Address
	for _, name := range []string{"a", "b", "c"} {
		addr, _, err := fx.create(creator, 0, name, openMeta())
		require.NoError(t, err)
		addrs = append(addrs, addr)
	}

	tests := []struct {
		name          string
		offset, limit uint64
		want          []chain.Address
	}{
		{name: "all", offset: 0, limit: 10, want: addrs},
		{name: "middle", offset: 1, limit: 1, want: addrs[1:2]},
		{name: "clipped", offset: 2, limit: 5, want: addrs[2:]},
		{name: "past end", offset: 3, limit: 1, want: []chain.Address{}},
		{name: "zero limit", offset: 0, limit: 0, want: []chain.Address{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, fx.f.GetCollections(tt.offset, tt.limit))
		})
	}

	_, err := fx.f.Collections(3)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestAddCollection(t *testing.T) {
	fx := newFixture(t, 0, 0)
	migrated := chain.AddressFromLabel("old-collection")

	_, err := fx.call(creator, 0, func(tx *chain.Tx) error { return fx.f.AddCollection(tx, migrated) })
	require.ErrorIs(t, err, chain.ErrNotOwner)
	_, err = fx.call(deployer, 0, func(tx *chain.Tx) error { return fx.f.AddCollection(tx, chain.ZeroAddress) })
	require.ErrorIs(t, err, ErrInvalidCollection)

	_, err = fx.call(deployer, 0, func(tx *chain.Tx) error { return fx.f.AddCollection(tx, migrated) })
	require.NoError(t, err)
	require.Equal(t, []chain.Address{migrated}, fx.f.GetCollections(0, 10))
}

func TestSnapshotReconstitute(t *testing.T) {
	fx := newFixture(t, 3, 400)
	fx.fund(creator, 3)
	_, _, err := fx.create(creator, 3, "Shapes", openMeta())
	require.NoError(t, err)

	state := fx.f.Snapshot()
	restored := Reconstitute(state, fx.dir)
	require.Equal(t, state, restored.Snapshot())
	require.Equal(t, fx.f.GetCollections(0, 10), restored.GetCollections(0, 10))
	require.Equal(t, uint64(400), restored.MintingFee())
}
