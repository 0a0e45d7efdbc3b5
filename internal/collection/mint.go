package collection

import (
	"strconv"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/pixel"
)

// MintPublic mints the next edition to to with palette. The payment escrowed on
// tx must equal the minting cost exactly.
func (c *Collection) MintPublic(tx *chain.Tx, to chain.Address, palette pixel.Palette) (uint64, error) {
	if !c.initialized {
		return 0, ErrNotInitialized
	}
	if c.meta.WhitelistOnly {
		return 0, ErrWhitelistOnly
	}
	if err := c.checkMint(tx); err != nil {
		return 0, err
	}
	return c.mintAndPay(tx, to, palette)
}

// MintPrivate consumes the whitelist allowance stored at index and mints the
// next edition to to. The entry at index must be the caller.
func (c *Collection) MintPrivate(tx *chain.Tx, index uint64, to chain.Address, palette pixel.Palette) (uint64, error) {
	if !c.initialized {
		return 0, ErrNotInitialized
	}
	if !c.meta.WhitelistOnly {
		return 0, ErrCollectionIsPublic
	}
	caller := tx.Sender()
	if c.whitelist.Count(caller) == 0 {
		return 0, ErrNotInWhitelist
	}
	if index >= uint64(c.whitelist.Len()) {
		return 0, ErrInvalidWhitelistIndex
	}
	if entry, _ := c.whitelist.At(int(index)); entry != caller {
		return 0, ErrInvalidWhitelistIndex
	}
	if err := c.checkMint(tx); err != nil {
		return 0, err
	}

	c.whitelist.swapRemove(tx.Journal(), int(index))
	return c.mintAndPay(tx, to, palette)
}

func (c *Collection) checkMint(tx *chain.Tx) error {
	if tx.Unix() < c.meta.MintingBeginsFrom {
		return ErrMintingNotStarted
	}
	if c.nextTokenID >= c.meta.MaxSupply {
		return ErrMaxSupplyReached
	}
	if tx.Value() != c.meta.MintingCost {
		return ErrInvalidMintingCost
	}
	return nil
}

func (c *Collection) mintAndPay(tx *chain.Tx, to chain.Address, palette pixel.Palette) (uint64, error) {
	id, err := c.mintEdition(tx, to, palette)
	if err != nil {
		return 0, err
	}
	if err := c.distribute(tx, tx.Value()); err != nil {
		return 0, err
	}
	return id, nil
}

// mintEdition assigns the next id. Callers have already checked capacity.
func (c *Collection) mintEdition(tx *chain.Tx, to chain.Address, palette pixel.Palette) (uint64, error) {
	if err := validatePalette(palette); err != nil {
		return 0, err
	}
	id := c.nextTokenID
	if err := c.ledger.Mint(tx, to, id); err != nil {
		return 0, err
	}
	j := tx.Journal()
	chain.SetKey(j, &c.address, c.palettes, id, palette)
	chain.Set(j, &c.address, &c.nextTokenID, id+1)
	chain.Set(j, &c.address, &c.totalSupply, c.totalSupply+1)
	return id, nil
}

// distribute pays the platform fee to the beneficiary and the rest to the
// collection owner. The two parts always sum to amount.
func (c *Collection) distribute(tx *chain.Tx, amount uint64) error {
	if amount == 0 {
		return nil
	}
	fee, rest, err := c.Split(amount)
	if err != nil {
		return err
	}
	if fee > 0 {
		if err := tx.Transfer(c.policy.Beneficiary(), fee); err != nil {
			return err
		}
	}
	if rest > 0 {
		if err := tx.Transfer(c.Owner(), rest); err != nil {
			return err
		}
	}
	return nil
}

// Split divides a mint payment into the platform fee and the owner's share.
func (c *Collection) Split(amount uint64) (fee, rest uint64, err error) {
	if c.policy == nil {
		return 0, amount, nil
	}
	fee, err = chain.MulDiv(amount, c.policy.MintingFee(), FrictionBase)
	if err != nil {
		return 0, 0, err
	}
	return fee, amount - fee, nil
}

// Burn retires edition id. The caller must own it, be approved for it or be an
// operator of its owner. The id is never reissued.
func (c *Collection) Burn(tx *chain.Tx, id uint64) error {
	if err := nonPayable(tx); err != nil {
		return err
	}
	if !c.ledger.Exists(id) {
		return ErrTokenNotFound
	}
	if !c.ledger.IsApprovedOrOwner(tx.Sender(), id) {
		return ErrCallerNotApproved
	}

	j := tx.Journal()
	chain.DeleteKey(j, &c.address, c.palettes, id)
	chain.Set(j, &c.address, &c.totalSupply, c.totalSupply-1)
	if err := c.ledger.Burn(tx, id); err != nil {
		return err
	}
	tx.Emit("Burned", chain.A("tokenId", strconv.FormatUint(id, 10)), chain.A("by", tx.Sender().String()))
	return nil
}
