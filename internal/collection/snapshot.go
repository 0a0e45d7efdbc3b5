package collection

import (
	"sort"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/ledger"
	"github.com/zjrosen/dixel/internal/pixel"
)

// State is the persisted form of a collection.
type State struct {
	Address        chain.Address
	Implementation Implementation
	Factory        chain.Address
	Initialized    bool
	Owner          chain.Address
	Name           string
	Symbol         string
	Description    string
	Canvas         pixel.Canvas
	Meta           MetaParams
	NextTokenID    uint64
	TotalSupply    uint64
	Editions       []Edition
	Whitelist      []chain.Address
	Ledger         ledger.State
}

// Snapshot copies the collection. Editions are ordered by id.
func (c *Collection) Snapshot() State {
	editions := make([]Edition, 0, len(c.palettes))
	for id, p := range c.palettes {
		editions = append(editions, Edition{ID: id, Palette: p, Exists: c.ledger.Exists(id)})
	}
	sort.Slice(editions, func(i, k int) bool { return editions[i].ID < editions[k].ID })

	return State{
		Address:        c.address,
		Implementation: c.impl,
		Factory:        c.factory,
		Initialized:    c.initialized,
		Owner:          c.Owner(),
		Name:           c.name,
		Symbol:         c.symbol,
		Description:    c.description,
		Canvas:         c.canvas,
		Meta:           c.meta,
		NextTokenID:    c.nextTokenID,
		TotalSupply:    c.totalSupply,
		Editions:       editions,
		Whitelist:      c.whitelist.All(),
		Ledger:         c.ledger.Snapshot(),
	}
}

// Reconstitute rebuilds a collection from persisted state, typically when
// hydrating from the database.
func Reconstitute(s State, policy FeePolicy, opts ...Option) *Collection {
	c := New(s.Address, s.Implementation, s.Factory, policy, opts...)
	c.initialized = s.Initialized
	c.ownable = chain.NewOwnable(s.Owner)
	c.name = s.Name
	c.symbol = s.Symbol
	c.description = s.Description
	c.canvas = s.Canvas
	c.meta = s.Meta
	c.nextTokenID = s.NextTokenID
	c.totalSupply = s.TotalSupply
	for _, e := range s.Editions {
		if e.Exists {
			c.palettes[e.ID] = e.Palette
		}
	}
	c.whitelist = newWhitelist(s.Address, append([]chain.Address(nil), s.Whitelist...))
	c.ledger = ledger.Restore(s.Address, s.Ledger)
	return c
}
