package chain

import (
	"math"
	"sort"
)

// Receiver runs when an account is paid. It executes inside the paying
// transaction and may call back into contracts; returning an error aborts the
// whole transaction.
type Receiver interface {
	OnReceive(tx *Tx, from Address, amount uint64) error
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(tx *Tx, from Address, amount uint64) error

func (f ReceiverFunc) OnReceive(tx *Tx, from Address, amount uint64) error {
	return f(tx, from, amount)
}

// Account is the persisted state of one address.
type Account struct {
	Address Address
	Balance uint64
	Nonce   uint64
}

// Accounts holds balances and creation nonces.
type Accounts struct {
	balances  map[Address]uint64
	nonces    map[Address]uint64
	receivers map[Address]Receiver
}

func NewAccounts() *Accounts {
	return &Accounts{
		balances:  make(map[Address]uint64),
		nonces:    make(map[Address]uint64),
		receivers: make(map[Address]Receiver),
	}
}

func (a *Accounts) BalanceOf(addr Address) uint64 {
	return a.balances[addr]
}

func (a *Accounts) NonceOf(addr Address) uint64 {
	return a.nonces[addr]
}

// SetReceiver installs a payment hook for addr. A nil receiver removes it.
func (a *Accounts) SetReceiver(addr Address, r Receiver) {
	if r == nil {
		delete(a.receivers, addr)
		return
	}
	a.receivers[addr] = r
}

func (a *Accounts) receiver(addr Address) Receiver {
	return a.receivers[addr]
}

// Credit adds amount to addr.
func (a *Accounts) Credit(j *Journal, addr Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	bal := a.balances[addr]
	if bal > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	a.setBalance(j, addr, bal+amount)
	return nil
}

// Debit removes amount from addr.
func (a *Accounts) Debit(j *Journal, addr Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	bal := a.balances[addr]
	if bal < amount {
		return ErrInsufficientBalance
	}
	a.setBalance(j, addr, bal-amount)
	return nil
}

func (a *Accounts) setBalance(j *Journal, addr Address, v uint64) {
	prev, had := a.balances[addr]
	if v == 0 {
		delete(a.balances, addr)
	} else {
		a.balances[addr] = v
	}
	key := addr
	j.Append(&key, func() {
		if had {
			a.balances[addr] = prev
		} else {
			delete(a.balances, addr)
		}
	})
}

// NextNonce returns addr's current nonce and increments it.
func (a *Accounts) NextNonce(j *Journal, addr Address) uint64 {
	n, had := a.nonces[addr]
	a.nonces[addr] = n + 1
	key := addr
	j.Append(&key, func() {
		if had {
			a.nonces[addr] = n
		} else {
			delete(a.nonces, addr)
		}
	})
	return n
}

// Snapshot lists every account with a balance or nonce, sorted by address.
func (a *Accounts) Snapshot() []Account {
	seen := make(map[Address]*Account)
	for addr, bal := range a.balances {
		seen[addr] = &Account{Address: addr, Balance: bal}
	}
	for addr, n := range a.nonces {
		acc, ok := seen[addr]
		if !ok {
			acc = &Account{Address: addr}
			seen[addr] = acc
		}
		acc.Nonce = n
	}
	out := make([]Account, 0, len(seen))
	for _, acc := range seen {
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].Address.Compare(out[k].Address) < 0
	})
	return out
}

// Restore replaces all balances and nonces. Receivers are kept.
func (a *Accounts) Restore(accounts []Account) {
	a.balances = make(map[Address]uint64, len(accounts))
	a.nonces = make(map[Address]uint64, len(accounts))
	for _, acc := range accounts {
		if acc.Balance > 0 {
			a.balances[acc.Address] = acc.Balance
		}
		if acc.Nonce > 0 {
			a.nonces[acc.Address] = acc.Nonce
		}
	}
}
