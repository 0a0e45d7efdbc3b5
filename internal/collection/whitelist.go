package collection

import (
	"strconv"

	"github.com/zjrosen/dixel/internal/chain"
)

// Whitelist is an ordered multiset of addresses. Each occurrence of an address
// is one unit of mint allowance.
type Whitelist struct {
	self    chain.Address
	entries []chain.Address
}

func newWhitelist(self chain.Address, entries []chain.Address) Whitelist {
	return Whitelist{self: self, entries: entries}
}

func (w *Whitelist) Len() int {
	return len(w.entries)
}

// At returns the entry at index.
func (w *Whitelist) At(index int) (chain.Address, bool) {
	if index < 0 || index >= len(w.entries) {
		return chain.ZeroAddress, false
	}
	return w.entries[index], true
}

// IndexOf returns the first position of addr, or -1.
func (w *Whitelist) IndexOf(addr chain.Address) int {
	for i, e := range w.entries {
		if e == addr {
			return i
		}
	}
	return -1
}

// Count returns the number of occurrences of addr.
func (w *Whitelist) Count(addr chain.Address) uint64 {
	var n uint64
	for _, e := range w.entries {
		if e == addr {
			n++
		}
	}
	return n
}

// Page returns entries in [offset, min(offset+limit, len)).
func (w *Whitelist) Page(offset, limit uint64) []chain.Address {
	return paginate(w.entries, offset, limit)
}

// All returns a copy of every entry.
func (w *Whitelist) All() []chain.Address {
	out := make([]chain.Address, len(w.entries))
	copy(out, w.entries)
	return out
}

func (w *Whitelist) push(j *chain.Journal, addr chain.Address) {
	n := len(w.entries)
	w.entries = append(w.entries, addr)
	j.Append(&w.self, func() { w.entries = w.entries[:n] })
}

// swapRemove moves the last entry into index and shrinks by one.
func (w *Whitelist) swapRemove(j *chain.Journal, index int) {
	n := len(w.entries)
	removed := w.entries[index]
	last := w.entries[n-1]
	w.entries[index] = last
	w.entries = w.entries[:n-1]
	j.Append(&w.self, func() {
		w.entries = append(w.entries, last)
		w.entries[index] = removed
	})
}

func (w *Whitelist) clear(j *chain.Journal) {
	prev := w.entries
	w.entries = nil
	j.Append(&w.self, func() { w.entries = prev })
}

func paginate[T any](items []T, offset, limit uint64) []T {
	n := uint64(len(items))
	if offset >= n {
		return []T{}
	}
	end := n
	if limit < n-offset {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}

// Paginate applies the offset/limit clipping rule shared by list queries.
func Paginate[T any](items []T, offset, limit uint64) []T {
	return paginate(items, offset, limit)
}

// AddWhitelist appends one allowance unit per address. Repeats are allowed.
func (c *Collection) AddWhitelist(tx *chain.Tx, addrs []chain.Address) error {
	if err := nonPayable(tx); err != nil {
		return err
	}
	if !c.initialized {
		return ErrNotInitialized
	}
	if err := c.ownable.OnlyOwner(tx); err != nil {
		return err
	}
	if !c.meta.WhitelistOnly {
		return ErrCollectionIsPublic
	}
	for _, addr := range addrs {
		if addr.IsZero() {
			return ErrWhitelistZeroAddress
		}
	}
	j := tx.Journal()
	for _, addr := range addrs {
		c.whitelist.push(j, addr)
	}
	tx.Emit("WhitelistAdded", chain.A("count", strconv.Itoa(len(addrs))))
	return nil
}

// RemoveWhitelist drops the entry at index, which must still hold expected.
func (c *Collection) RemoveWhitelist(tx *chain.Tx, index uint64, expected chain.Address) error {
	if err := nonPayable(tx); err != nil {
		return err
	}
	if !c.initialized {
		return ErrNotInitialized
	}
	if err := c.ownable.OnlyOwner(tx); err != nil {
		return err
	}
	if index >= uint64(c.whitelist.Len()) {
		return ErrInvalidWhitelistIndex
	}
	if entry, _ := c.whitelist.At(int(index)); entry != expected {
		return ErrInvalidWhitelistIndex
	}
	c.whitelist.swapRemove(tx.Journal(), int(index))
	tx.Emit("WhitelistRemoved",
		chain.A("index", strconv.FormatUint(index, 10)),
		chain.A("wallet", expected.String()))
	return nil
}

// GetWhitelistIndex returns the first slot holding addr.
func (c *Collection) GetWhitelistIndex(addr chain.Address) (uint64, error) {
	i := c.whitelist.IndexOf(addr)
	if i < 0 {
		return 0, ErrNotInWhitelist
	}
	return uint64(i), nil
}

func (c *Collection) GetWhitelistAllowanceLeft(addr chain.Address) uint64 {
	return c.whitelist.Count(addr)
}

func (c *Collection) GetWhitelistCount() uint64 {
	return uint64(c.whitelist.Len())
}

func (c *Collection) GetAllWhitelist(offset, limit uint64) []chain.Address {
	return c.whitelist.Page(offset, limit)
}

func (c *Collection) IsWhitelistWallet(addr chain.Address) bool {
	return c.whitelist.IndexOf(addr) >= 0
}
