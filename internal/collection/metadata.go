package collection

import (
	"strconv"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/pixel"
)

// MetaData is the full read model of a collection.
type MetaData struct {
	Name              string
	Symbol            string
	WhitelistOnly     bool
	Hidden            bool
	MaxSupply         uint64
	RoyaltyFraction   uint64
	MintingBeginsFrom int64
	MintingCost       uint64
	Description       string
	TotalSupply       uint64
	NextTokenID       uint64
	Canvas            pixel.Canvas
}

// ListData is the summary shown in collection listings.
type ListData struct {
	Address       chain.Address
	Name          string
	Symbol        string
	Version       uint64
	Owner         chain.Address
	WhitelistOnly bool
	Hidden        bool
	MaxSupply     uint64
	MintingCost   uint64
	TotalSupply   uint64
	CoverPalette  pixel.Palette
}

func (c *Collection) MetaData() MetaData {
	return MetaData{
		Name:              c.name,
		Symbol:            c.symbol,
		WhitelistOnly:     c.meta.WhitelistOnly,
		Hidden:            c.meta.Hidden,
		MaxSupply:         c.meta.MaxSupply,
		RoyaltyFraction:   c.meta.RoyaltyFraction,
		MintingBeginsFrom: c.meta.MintingBeginsFrom,
		MintingCost:       c.meta.MintingCost,
		Description:       c.description,
		TotalSupply:       c.totalSupply,
		NextTokenID:       c.nextTokenID,
		Canvas:            c.canvas,
	}
}

func (c *Collection) ListData() ListData {
	return ListData{
		Address:       c.address,
		Name:          c.name,
		Symbol:        c.symbol,
		Version:       c.impl.Version,
		Owner:         c.Owner(),
		WhitelistOnly: c.meta.WhitelistOnly,
		Hidden:        c.meta.Hidden,
		MaxSupply:     c.meta.MaxSupply,
		MintingCost:   c.meta.MintingCost,
		TotalSupply:   c.totalSupply,
		CoverPalette:  c.palettes[0],
	}
}

// UpdateMetadata replaces the mutable sale parameters. MaxSupply is fixed at
// creation. Once the current start time has passed the sale cannot be pushed
// back into the future, and switching a whitelist-only collection to public
// revokes every allowance.
func (c *Collection) UpdateMetadata(tx *chain.Tx, whitelistOnly, hidden bool, royaltyFraction uint64, mintingBeginsFrom int64, mintingCost uint64) error {
	if err := nonPayable(tx); err != nil {
		return err
	}
	if !c.initialized {
		return ErrNotInitialized
	}
	if err := c.ownable.OnlyOwner(tx); err != nil {
		return err
	}
	if royaltyFraction > MaxRoyaltyCap {
		return ErrInvalidRoyalty
	}
	cur := c.meta
	if cur.MintingBeginsFrom <= tx.Unix() && mintingBeginsFrom > cur.MintingBeginsFrom {
		return ErrMintingAlreadyStarted
	}

	j := tx.Journal()
	if cur.WhitelistOnly && !whitelistOnly && c.whitelist.Len() > 0 {
		c.whitelist.clear(j)
	}
	next := cur
	next.WhitelistOnly = whitelistOnly
	next.Hidden = hidden
	next.RoyaltyFraction = royaltyFraction
	next.MintingBeginsFrom = mintingBeginsFrom
	next.MintingCost = mintingCost
	chain.Set(j, &c.address, &c.meta, next)

	tx.Emit("MetadataUpdated",
		chain.A("whitelistOnly", strconv.FormatBool(whitelistOnly)),
		chain.A("hidden", strconv.FormatBool(hidden)),
		chain.A("royaltyFraction", strconv.FormatUint(royaltyFraction, 10)),
		chain.A("mintingBeginsFrom", strconv.FormatInt(mintingBeginsFrom, 10)),
		chain.A("mintingCost", strconv.FormatUint(mintingCost, 10)))
	return nil
}

// UpdateDescription replaces the collection description.
func (c *Collection) UpdateDescription(tx *chain.Tx, description string) error {
	if err := nonPayable(tx); err != nil {
		return err
	}
	if !c.initialized {
		return ErrNotInitialized
	}
	if err := c.ownable.OnlyOwner(tx); err != nil {
		return err
	}
	if err := validateDescription(description); err != nil {
		return err
	}
	chain.Set(tx.Journal(), &c.address, &c.description, description)
	tx.Emit("DescriptionUpdated", chain.A("length", strconv.Itoa(len(description))))
	return nil
}

// TransferOwnership hands the collection and its royalties to newOwner.
func (c *Collection) TransferOwnership(tx *chain.Tx, newOwner chain.Address) error {
	if err := nonPayable(tx); err != nil {
		return err
	}
	return c.ownable.TransferOwnership(tx, &c.address, newOwner)
}

// RoyaltyInfo returns the royalty owed on a sale of any edition.
func (c *Collection) RoyaltyInfo(_ uint64, salePrice uint64) (chain.Address, uint64, error) {
	amount, err := chain.MulDiv(salePrice, c.meta.RoyaltyFraction, FrictionBase)
	if err != nil {
		return chain.ZeroAddress, 0, err
	}
	return c.Owner(), amount, nil
}
