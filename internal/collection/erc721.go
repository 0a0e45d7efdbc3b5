package collection

import "github.com/zjrosen/dixel/internal/chain"

func (c *Collection) OwnerOf(id uint64) (chain.Address, error) {
	return c.ledger.OwnerOf(id)
}

func (c *Collection) BalanceOf(owner chain.Address) uint64 {
	return c.ledger.BalanceOf(owner)
}

func (c *Collection) GetApproved(id uint64) (chain.Address, error) {
	return c.ledger.GetApproved(id)
}

func (c *Collection) IsApprovedForAll(owner, operator chain.Address) bool {
	return c.ledger.IsApprovedForAll(owner, operator)
}

func (c *Collection) Approve(tx *chain.Tx, to chain.Address, id uint64) error {
	if err := nonPayable(tx); err != nil {
		return err
	}
	return c.ledger.Approve(tx, to, id)
}

func (c *Collection) SetApprovalForAll(tx *chain.Tx, operator chain.Address, approved bool) error {
	if err := nonPayable(tx); err != nil {
		return err
	}
	return c.ledger.SetApprovalForAll(tx, operator, approved)
}

// TransferFrom moves edition id from from to to. Palettes travel with the id.
func (c *Collection) TransferFrom(tx *chain.Tx, from, to chain.Address, id uint64) error {
	if err := nonPayable(tx); err != nil {
		return err
	}
	return c.ledger.TransferFrom(tx, from, to, id)
}
