package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxCallDepth bounds nested calls made from payment hooks.
const MaxCallDepth = 16

// Tx is the execution context of one call frame. Nested frames created by Call
// and by payment hooks share the journal, the accounts and the event buffer of
// the outermost transaction.
type Tx struct {
	ctx      context.Context
	id       string
	sender   Address
	self     Address
	value    uint64
	now      time.Time
	depth    int
	journal  *Journal
	accounts *Accounts
	events   *[]Event
}

func (t *Tx) Context() context.Context { return t.ctx }
func (t *Tx) ID() string               { return t.id }

// Sender is the immediate caller of this frame.
func (t *Tx) Sender() Address { return t.sender }

// Self is the account executing this frame.
func (t *Tx) Self() Address { return t.self }

// Value is the amount escrowed from Sender to Self for this frame.
func (t *Tx) Value() uint64 { return t.value }

func (t *Tx) Now() time.Time      { return t.now }
func (t *Tx) Unix() int64         { return t.now.Unix() }
func (t *Tx) Depth() int          { return t.depth }
func (t *Tx) Journal() *Journal   { return t.journal }
func (t *Tx) Accounts() *Accounts { return t.accounts }

func (t *Tx) BalanceOf(a Address) uint64 {
	return t.accounts.BalanceOf(a)
}

// Call opens a nested frame in which Self calls to, escrowing value.
func (t *Tx) Call(to Address, value uint64) (*Tx, error) {
	if t.depth+1 > MaxCallDepth {
		return nil, ErrCallDepth
	}
	if err := t.accounts.Debit(t.journal, t.self, value); err != nil {
		return nil, err
	}
	if err := t.accounts.Credit(t.journal, to, value); err != nil {
		return nil, err
	}
	return &Tx{
		ctx:      t.ctx,
		id:       t.id,
		sender:   t.self,
		self:     to,
		value:    value,
		now:      t.now,
		depth:    t.depth + 1,
		journal:  t.journal,
		accounts: t.accounts,
		events:   t.events,
	}, nil
}

// Transfer pays amount from Self to to, then runs to's payment hook. A failing
// hook fails the transfer.
func (t *Tx) Transfer(to Address, amount uint64) error {
	if to.IsZero() {
		return ErrZeroAddress
	}
	hook := t.accounts.receiver(to)
	if hook == nil {
		if err := t.accounts.Debit(t.journal, t.self, amount); err != nil {
			return err
		}
		return t.accounts.Credit(t.journal, to, amount)
	}

	frame, err := t.Call(to, amount)
	if err != nil {
		return err
	}
	if err := hook.OnReceive(frame, t.self, amount); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransferRejected, to, err)
	}
	return nil
}

// Emit buffers an event. Buffered events are dropped if the transaction reverts.
func (t *Tx) Emit(name string, attrs ...Attr) {
	*t.events = append(*t.events, Event{
		ID:      uuid.NewString(),
		TxID:    t.id,
		Name:    name,
		Emitter: t.self,
		Attrs:   attrs,
		Time:    t.now,
	})
	events := t.events
	t.journal.Append(nil, func() {
		*events = (*events)[:len(*events)-1]
	})
}

// NewAddress allocates the address of a new instance created by Self.
func (t *Tx) NewAddress() Address {
	return DeriveAddress(t.self, t.accounts.NextNonce(t.journal, t.self))
}
