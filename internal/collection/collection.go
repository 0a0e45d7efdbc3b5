// Package collection implements one pixel-art collection: a fixed canvas shared
// by every edition, per-edition palettes, gated minting with fee distribution,
// burning, an allowance whitelist, owner-managed metadata and deterministic
// rendering of images and metadata documents.
//
// Every mutating method takes the *chain.Tx it runs in and journals its changes
// there; when the method returns an error the caller's runtime reverts them.
// Payments are always the last step of a mutating method.
package collection

import (
	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/ledger"
	"github.com/zjrosen/dixel/internal/pixel"
	"github.com/zjrosen/dixel/internal/render"
)

// MetaParams are the owner-tunable sale parameters.
type MetaParams struct {
	WhitelistOnly     bool
	Hidden            bool
	MaxSupply         uint64
	RoyaltyFraction   uint64
	MintingBeginsFrom int64
	MintingCost       uint64
}

// Edition is one minted token.
type Edition struct {
	ID      uint64
	Palette pixel.Palette
	Exists  bool
}

// Collection is one collection instance. Create it with New and bring it to
// life with Init.
type Collection struct {
	address  chain.Address
	impl     Implementation
	factory  chain.Address
	policy   FeePolicy
	renderer render.Renderer

	initialized bool
	ownable     chain.Ownable
	name        string
	symbol      string
	description string
	canvas      pixel.Canvas
	meta        MetaParams
	nextTokenID uint64
	totalSupply uint64
	palettes    map[uint64]pixel.Palette
	whitelist   Whitelist
	ledger      *ledger.Ledger
}

// Option configures a Collection.
type Option func(*Collection)

// WithRenderer replaces the default direct SVG renderer.
func WithRenderer(r render.Renderer) Option {
	return func(c *Collection) { c.renderer = r }
}

// New instantiates an uninitialized collection at address, permanently bound
// to impl. factory is the creating registry and policy its fee source.
func New(address chain.Address, impl Implementation, factory chain.Address, policy FeePolicy, opts ...Option) *Collection {
	c := &Collection{
		address:   address,
		impl:      impl,
		factory:   factory,
		policy:    policy,
		renderer:  render.Direct{},
		palettes:  make(map[uint64]pixel.Palette),
		whitelist: newWhitelist(address, nil),
		ledger:    ledger.New(address),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init stores the collection's identity, canvas and sale parameters and mints
// edition 0 to owner. It succeeds once.
func (c *Collection) Init(tx *chain.Tx, owner chain.Address, name, symbol, description string, meta MetaParams, palette pixel.Palette, canvas pixel.Canvas) error {
	if c.initialized {
		return ErrAlreadyInitialized
	}
	if err := ValidateCreation(name, symbol, description, meta); err != nil {
		return err
	}
	if err := ValidateArtwork(&canvas, palette); err != nil {
		return err
	}
	if owner.IsZero() {
		return chain.ErrZeroAddress
	}

	j := tx.Journal()
	chain.Set(j, &c.address, &c.initialized, true)
	chain.Set(j, &c.address, &c.ownable, chain.NewOwnable(owner))
	chain.Set(j, &c.address, &c.name, name)
	chain.Set(j, &c.address, &c.symbol, symbol)
	chain.Set(j, &c.address, &c.description, description)
	chain.Set(j, &c.address, &c.canvas, canvas)
	chain.Set(j, &c.address, &c.meta, meta)

	tx.Emit("Initialized",
		chain.A("owner", owner.String()),
		chain.A("name", name),
		chain.A("symbol", symbol),
		chain.A("version", c.impl.String()))

	_, err := c.mintEdition(tx, owner, palette)
	return err
}

func (c *Collection) Address() chain.Address         { return c.address }
func (c *Collection) Implementation() Implementation { return c.impl }
func (c *Collection) Factory() chain.Address         { return c.factory }
func (c *Collection) Initialized() bool              { return c.initialized }
func (c *Collection) Owner() chain.Address           { return c.ownable.Owner() }
func (c *Collection) Name() string                   { return c.name }
func (c *Collection) Symbol() string                 { return c.symbol }
func (c *Collection) Description() string            { return c.description }
func (c *Collection) Canvas() pixel.Canvas           { return c.canvas }
func (c *Collection) Meta() MetaParams               { return c.meta }
func (c *Collection) NextTokenID() uint64            { return c.nextTokenID }
func (c *Collection) TotalSupply() uint64            { return c.totalSupply }

// Version is the implementation version fixed at instantiation.
func (c *Collection) Version() uint64 {
	return c.impl.Version
}

// Exists reports whether edition id is minted and not burned.
func (c *Collection) Exists(id uint64) bool {
	return c.ledger.Exists(id)
}

// PaletteOf returns an edition's palette. Burned and never-minted editions have
// an all-zero palette.
func (c *Collection) PaletteOf(id uint64) pixel.Palette {
	return c.palettes[id]
}

// Edition returns the stored state of edition id.
func (c *Collection) Edition(id uint64) Edition {
	return Edition{ID: id, Palette: c.palettes[id], Exists: c.ledger.Exists(id)}
}

func nonPayable(tx *chain.Tx) error {
	if tx.Value() != 0 {
		return ErrPaymentNotAccepted
	}
	return nil
}
