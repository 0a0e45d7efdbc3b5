// Package ledger tracks edition ownership for one collection: owners, balances,
// single-token approvals and operator approvals. Every change is journaled on the
// calling transaction.
package ledger

import (
	"sort"
	"strconv"

	"github.com/zjrosen/dixel/internal/chain"
)

var (
	ErrNonexistentToken    = chain.NewRevert(chain.KindState, "ERC721: invalid token ID")
	ErrAlreadyMinted       = chain.NewRevert(chain.KindState, "ERC721: token already minted")
	ErrMintToZero          = chain.NewRevert(chain.KindValidation, "ERC721: mint to the zero address")
	ErrTransferToZero      = chain.NewRevert(chain.KindValidation, "ERC721: transfer to the zero address")
	ErrIncorrectOwner      = chain.NewRevert(chain.KindValidation, "ERC721: transfer from incorrect owner")
	ErrNotOwnerOrApproved  = chain.NewRevert(chain.KindAuthorization, "ERC721: caller is not token owner or approved")
	ErrApprovalToOwner     = chain.NewRevert(chain.KindValidation, "ERC721: approval to current owner")
	ErrApproveToCaller     = chain.NewRevert(chain.KindValidation, "ERC721: approve to caller")
	ErrApproveUnauthorized = chain.NewRevert(chain.KindAuthorization, "ERC721: approve caller is not token owner or approved for all")
)

type operatorKey struct {
	owner    chain.Address
	operator chain.Address
}

// Ledger is the ownership registry of one collection.
type Ledger struct {
	self      chain.Address
	owners    map[uint64]chain.Address
	balances  map[chain.Address]uint64
	approvals map[uint64]chain.Address
	operators map[operatorKey]bool
}

// New creates an empty ledger owned by the collection at self.
func New(self chain.Address) *Ledger {
	return &Ledger{
		self:      self,
		owners:    make(map[uint64]chain.Address),
		balances:  make(map[chain.Address]uint64),
		approvals: make(map[uint64]chain.Address),
		operators: make(map[operatorKey]bool),
	}
}

func idAttr(id uint64) chain.Attr {
	return chain.A("tokenId", strconv.FormatUint(id, 10))
}

// Mint assigns a new token to to.
func (l *Ledger) Mint(tx *chain.Tx, to chain.Address, id uint64) error {
	if to.IsZero() {
		return ErrMintToZero
	}
	if _, ok := l.owners[id]; ok {
		return ErrAlreadyMinted
	}
	j := tx.Journal()
	chain.SetKey(j, &l.self, l.owners, id, to)
	chain.SetKey(j, &l.self, l.balances, to, l.balances[to]+1)
	tx.Emit("Transfer", chain.A("from", chain.ZeroAddress.String()), chain.A("to", to.String()), idAttr(id))
	return nil
}

// Burn removes a token. Authorization is the caller's responsibility.
func (l *Ledger) Burn(tx *chain.Tx, id uint64) error {
	owner, err := l.OwnerOf(id)
	if err != nil {
		return err
	}
	j := tx.Journal()
	chain.DeleteKey(j, &l.self, l.approvals, id)
	chain.DeleteKey(j, &l.self, l.owners, id)
	l.decrementBalance(j, owner)
	tx.Emit("Transfer", chain.A("from", owner.String()), chain.A("to", chain.ZeroAddress.String()), idAttr(id))
	return nil
}

func (l *Ledger) decrementBalance(j *chain.Journal, owner chain.Address) {
	if bal := l.balances[owner]; bal > 1 {
		chain.SetKey(j, &l.self, l.balances, owner, bal-1)
	} else {
		chain.DeleteKey(j, &l.self, l.balances, owner)
	}
}

// OwnerOf returns the owner of a live token.
func (l *Ledger) OwnerOf(id uint64) (chain.Address, error) {
	owner, ok := l.owners[id]
	if !ok {
		return chain.ZeroAddress, ErrNonexistentToken
	}
	return owner, nil
}

// Exists reports whether id is minted and not burned.
func (l *Ledger) Exists(id uint64) bool {
	_, ok := l.owners[id]
	return ok
}

func (l *Ledger) BalanceOf(owner chain.Address) uint64 {
	return l.balances[owner]
}

// Approve lets to transfer or burn id. Only the owner or an operator may approve.
func (l *Ledger) Approve(tx *chain.Tx, to chain.Address, id uint64) error {
	owner, err := l.OwnerOf(id)
	if err != nil {
		return err
	}
	if to == owner {
		return ErrApprovalToOwner
	}
	caller := tx.Sender()
	if caller != owner && !l.IsApprovedForAll(owner, caller) {
		return ErrApproveUnauthorized
	}
	if to.IsZero() {
		chain.DeleteKey(tx.Journal(), &l.self, l.approvals, id)
	} else {
		chain.SetKey(tx.Journal(), &l.self, l.approvals, id, to)
	}
	tx.Emit("Approval", chain.A("owner", owner.String()), chain.A("approved", to.String()), idAttr(id))
	return nil
}

// GetApproved returns the approved address for id, zero if none.
func (l *Ledger) GetApproved(id uint64) (chain.Address, error) {
	if !l.Exists(id) {
		return chain.ZeroAddress, ErrNonexistentToken
	}
	return l.approvals[id], nil
}

// SetApprovalForAll grants or revokes operator rights over all of the caller's tokens.
func (l *Ledger) SetApprovalForAll(tx *chain.Tx, operator chain.Address, approved bool) error {
	owner := tx.Sender()
	if operator == owner {
		return ErrApproveToCaller
	}
	key := operatorKey{owner: owner, operator: operator}
	if approved {
		chain.SetKey(tx.Journal(), &l.self, l.operators, key, true)
	} else {
		chain.DeleteKey(tx.Journal(), &l.self, l.operators, key)
	}
	tx.Emit("ApprovalForAll",
		chain.A("owner", owner.String()),
		chain.A("operator", operator.String()),
		chain.A("approved", strconv.FormatBool(approved)))
	return nil
}

func (l *Ledger) IsApprovedForAll(owner, operator chain.Address) bool {
	return l.operators[operatorKey{owner: owner, operator: operator}]
}

// IsApprovedOrOwner reports whether spender may move or burn id.
func (l *Ledger) IsApprovedOrOwner(spender chain.Address, id uint64) bool {
	owner, ok := l.owners[id]
	if !ok {
		return false
	}
	return spender == owner || l.approvals[id] == spender || l.IsApprovedForAll(owner, spender)
}

// TransferFrom moves id from from to to on behalf of the caller.
func (l *Ledger) TransferFrom(tx *chain.Tx, from, to chain.Address, id uint64) error {
	owner, err := l.OwnerOf(id)
	if err != nil {
		return err
	}
	if !l.IsApprovedOrOwner(tx.Sender(), id) {
		return ErrNotOwnerOrApproved
	}
	if owner != from {
		return ErrIncorrectOwner
	}
	if to.IsZero() {
		return ErrTransferToZero
	}
	j := tx.Journal()
	chain.DeleteKey(j, &l.self, l.approvals, id)
	l.decrementBalance(j, from)
	chain.SetKey(j, &l.self, l.balances, to, l.balances[to]+1)
	chain.SetKey(j, &l.self, l.owners, id, to)
	tx.Emit("Transfer", chain.A("from", from.String()), chain.A("to", to.String()), idAttr(id))
	return nil
}

// TokenOwner is one row of a ledger snapshot.
type TokenOwner struct {
	TokenID  uint64
	Owner    chain.Address
	Approved chain.Address
}

// Operator is one operator approval.
type Operator struct {
	Owner    chain.Address
	Operator chain.Address
}

// State is a serializable copy of the ledger.
type State struct {
	Tokens    []TokenOwner
	Operators []Operator
}

// Snapshot copies the ledger in a deterministic order.
func (l *Ledger) Snapshot() State {
	s := State{
		Tokens:    make([]TokenOwner, 0, len(l.owners)),
		Operators: make([]Operator, 0, len(l.operators)),
	}
	for id, owner := range l.owners {
		s.Tokens = append(s.Tokens, TokenOwner{TokenID: id, Owner: owner, Approved: l.approvals[id]})
	}
	sort.Slice(s.Tokens, func(i, k int) bool { return s.Tokens[i].TokenID < s.Tokens[k].TokenID })
	for key := range l.operators {
		s.Operators = append(s.Operators, Operator{Owner: key.owner, Operator: key.operator})
	}
	sort.Slice(s.Operators, func(i, k int) bool {
		if c := s.Operators[i].Owner.Compare(s.Operators[k].Owner); c != 0 {
			return c < 0
		}
		return s.Operators[i].Operator.Compare(s.Operators[k].Operator) < 0
	})
	return s
}

// Restore rebuilds a ledger from a snapshot.
func Restore(self chain.Address, s State) *Ledger {
	l := New(self)
	for _, t := range s.Tokens {
		l.owners[t.TokenID] = t.Owner
		l.balances[t.Owner]++
		if !t.Approved.IsZero() {
			l.approvals[t.TokenID] = t.Approved
		}
	}
	for _, op := range s.Operators {
		l.operators[operatorKey{owner: op.Owner, operator: op.Operator}] = true
	}
	return l
}
