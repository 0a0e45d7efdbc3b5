// Package chain is the execution environment contracts run in: accounts and
// value transfer, caller identity and clock, serialized atomic transactions
// with journaled revert, and the event log.
package chain

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/dixel/internal/log"
	"github.com/zjrosen/dixel/internal/pubsub"
)

// Clock supplies block time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock, truncated to seconds.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().Truncate(time.Second) }

// Call describes an externally submitted transaction.
type Call struct {
	From  Address
	To    Address
	Value uint64
}

// Receipt is the result of a committed transaction.
type Receipt struct {
	TxID   string
	Events []Event
	Dirty  []Address
}

// Runtime executes transactions one at a time.
type Runtime struct {
	mu       sync.Mutex
	accounts *Accounts
	clock    Clock
	broker   *pubsub.Broker[Event]
}

// Option configures a Runtime.
type Option func(*Runtime)

func WithClock(c Clock) Option {
	return func(r *Runtime) { r.clock = c }
}

func WithAccounts(a *Accounts) Option {
	return func(r *Runtime) { r.accounts = a }
}

func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		accounts: NewAccounts(),
		clock:    SystemClock{},
		broker:   pubsub.NewBroker[Event](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runtime) Accounts() *Accounts {
	return r.accounts
}

// Events returns the broker committed events are published on.
func (r *Runtime) Events() *pubsub.Broker[Event] {
	return r.broker
}

// Execute runs fn as one transaction. Value is escrowed from call.From to
// call.To before fn runs. If fn fails every change, including the escrow and
// buffered events, is reverted.
func (r *Runtime) Execute(ctx context.Context, call Call, fn func(tx *Tx) error) (*Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	journal := NewJournal()
	events := make([]Event, 0, 4)
	tx := &Tx{
		ctx:      ctx,
		id:       uuid.NewString(),
		sender:   call.From,
		self:     call.To,
		value:    call.Value,
		now:      r.clock.Now(),
		journal:  journal,
		accounts: r.accounts,
		events:   &events,
	}

	err := func() error {
		if err := r.accounts.Debit(journal, call.From, call.Value); err != nil {
			return err
		}
		if err := r.accounts.Credit(journal, call.To, call.Value); err != nil {
			return err
		}
		return fn(tx)
	}()
	if err != nil {
		journal.RevertTo(0)
		log.Debug(log.CatChain, "transaction reverted",
			"tx", tx.id,
			"from", call.From,
			"to", call.To,
			"reason", err)
		return nil, err
	}

	receipt := &Receipt{
		TxID:   tx.id,
		Events: events,
		Dirty:  journal.Dirty(),
	}
	for _, ev := range events {
		log.Info(log.CatChain, "event", "tx", tx.id, "emitter", ev.Emitter, "event", ev.String())
		r.broker.Publish(pubsub.CommittedEvent, ev)
	}
	return receipt, nil
}

// View runs fn while no transaction is executing.
func (r *Runtime) View(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// Now returns the runtime clock's time.
func (r *Runtime) Now() time.Time {
	return r.clock.Now()
}
