package chain

// Ownable is a single-owner access gate.
type Ownable struct {
	owner Address
}

func NewOwnable(owner Address) Ownable {
	return Ownable{owner: owner}
}

func (o *Ownable) Owner() Address {
	return o.owner
}

// OnlyOwner fails unless the frame's sender is the owner.
func (o *Ownable) OnlyOwner(tx *Tx) error {
	if tx.Sender() != o.owner {
		return ErrNotOwner
	}
	return nil
}

// TransferOwnership hands the gate to newOwner. self is the contract holding the gate.
func (o *Ownable) TransferOwnership(tx *Tx, self *Address, newOwner Address) error {
	if err := o.OnlyOwner(tx); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return ErrZeroAddress
	}
	prev := o.owner
	Set(tx.Journal(), self, &o.owner, newOwner)
	tx.Emit("OwnershipTransferred", A("previousOwner", prev.String()), A("newOwner", newOwner.String()))
	return nil
}
