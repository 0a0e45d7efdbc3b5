package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dixel/internal/artwork"
	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/engine"
)

type accountData struct {
	label  string
	amount uint64
}

// Builder accumulates a ledger scenario and runs it against an engine in the
// correct order.
type Builder struct {
	t           *testing.T
	engine      *engine.Engine
	factory     factoryData
	accounts    []accountData
	collections []collectionData
	whitelists  []whitelistData
	mints       []mintData
}

// Fixture is the result of Build.
type Fixture struct {
	Engine      *engine.Engine
	Deployment  engine.Deployment
	Collections map[string]chain.Address
}

// NewBuilder creates a builder for the given engine.
func NewBuilder(t *testing.T, e *engine.Engine) *Builder {
	t.Helper()
	return &Builder{t: t, engine: e, factory: defaultFactory()}
}

// WithFactory configures the factory Build deploys.
func (b *Builder) WithFactory(opts ...FactoryOption) *Builder {
	for _, opt := range opts {
		opt(&b.factory)
	}
	return b
}

// WithAccount credits a named account.
func (b *Builder) WithAccount(label string, amount uint64) *Builder {
	b.accounts = append(b.accounts, accountData{label, amount})
	return b
}

// WithCollection adds a collection. Creation fees are funded automatically.
func (b *Builder) WithCollection(label string, opts ...CollectionOption) *Builder {
	c := defaultCollection(label)
	for _, opt := range opts {
		opt(&c)
	}
	b.collections = append(b.collections, c)
	return b
}

// WithWhitelist appends accounts to a collection whitelist, one slot each.
func (b *Builder) WithWhitelist(collection string, accounts ...string) *Builder {
	b.whitelists = append(b.whitelists, whitelistData{collection, accounts})
	return b
}

// WithMints mints count editions to an account, funding the minting cost.
// Whitelist-only collections mint through the account's whitelist slots.
func (b *Builder) WithMints(collection, to string, count int) *Builder {
	b.mints = append(b.mints, mintData{collection, to, count})
	return b
}

// Build deploys the factory and applies every accumulated step.
// Order: factory → accounts → collections → whitelists → mints.
func (b *Builder) Build() *Fixture {
	b.t.Helper()
	ctx := context.Background()
	fx := &Fixture{Engine: b.engine, Collections: make(map[string]chain.Address)}

	d, err := b.engine.Deploy(ctx, engine.DeployParams{
		Deployer:    Account(b.factory.deployer),
		Beneficiary: Account(b.factory.beneficiary),
		CreationFee: b.factory.creationFee,
		MintingFee:  b.factory.mintingFee,
		ExternalURL: b.factory.externalURL,
	})
	require.NoError(b.t, err, "deploy")
	fx.Deployment = d

	for _, a := range b.accounts {
		require.NoError(b.t, b.engine.Faucet(ctx, Account(a.label), a.amount), "faucet %s", a.label)
	}
	for _, c := range b.collections {
		fx.Collections[c.label] = b.create(ctx, d.Factory, c)
	}
	for _, w := range b.whitelists {
		addrs := make([]chain.Address, len(w.accounts))
		for i, label := range w.accounts {
			addrs[i] = Account(label)
		}
		coll := fx.addr(b.t, w.collection)
		owner, err := b.engine.Collection(coll)
		require.NoError(b.t, err)
		require.NoError(b.t, b.engine.AddWhitelist(ctx, owner.Owner(), coll, addrs), "whitelist %s", w.collection)
	}
	for _, m := range b.mints {
		for i := 0; i < m.count; i++ {
			b.mint(ctx, fx.addr(b.t, m.collection), Account(m.to))
		}
	}
	return fx
}

func (b *Builder) create(ctx context.Context, factoryAddr chain.Address, c collectionData) chain.Address {
	b.t.Helper()
	art, err := artwork.Load(c.artwork)
	require.NoError(b.t, err, "artwork %s", c.artwork)
	if c.name != nil {
		art.Name = *c.name
	}
	if c.symbol != nil {
		art.Symbol = *c.symbol
	}
	if c.description != nil {
		art.Description = *c.description
	}
	meta := art.Meta
	for _, fn := range c.meta {
		fn(&meta)
	}

	owner := Account(c.owner)
	if b.factory.creationFee > 0 {
		require.NoError(b.t, b.engine.Faucet(ctx, owner, b.factory.creationFee))
	}
	addr, err := b.engine.Create(ctx, engine.CreateParams{
		From:        owner,
		Factory:     factoryAddr,
		Value:       b.factory.creationFee,
		Name:        art.Name,
		Symbol:      art.Symbol,
		Description: art.Description,
		Meta:        meta,
		Palette:     art.Palette,
		Canvas:      art.Canvas,
	})
	require.NoError(b.t, err, "create %s", c.label)
	return addr
}

func (b *Builder) mint(ctx context.Context, coll, to chain.Address) {
	b.t.Helper()
	c, err := b.engine.Collection(coll)
	require.NoError(b.t, err)
	cost := c.Meta().MintingCost
	if cost > 0 {
		require.NoError(b.t, b.engine.Faucet(ctx, to, cost))
	}
	palette := c.ListData().CoverPalette
	if c.Meta().WhitelistOnly {
		index, err := c.GetWhitelistIndex(to)
		require.NoError(b.t, err, "%s has no whitelist slot", to)
		_, err = b.engine.MintPrivate(ctx, to, coll, cost, index, to, palette)
		require.NoError(b.t, err, "mint-private")
		return
	}
	_, err = b.engine.Mint(ctx, to, coll, cost, to, palette)
	require.NoError(b.t, err, "mint")
}

func (f *Fixture) addr(t *testing.T, label string) chain.Address {
	t.Helper()
	addr, ok := f.Collections[label]
	require.True(t, ok, "unknown collection %q", label)
	return addr
}

// Collection returns a collection created by the builder.
func (f *Fixture) Collection(t *testing.T, label string) *collection.Collection {
	t.Helper()
	c, err := f.Engine.Collection(f.addr(t, label))
	require.NoError(t, err)
	return c
}
