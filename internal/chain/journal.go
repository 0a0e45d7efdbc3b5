package chain

import (
	"sort"
)

// journalEntry is one state modification that can be undone.
type journalEntry struct {
	account *Address
	undo    func()
}

// Journal records the modifications made by one transaction so they can be
// reverted when any step fails.
type Journal struct {
	entries []journalEntry
	dirties map[Address]int
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{dirties: make(map[Address]int)}
}

// Append records undo as the inverse of a change to account. account may be nil
// for changes that belong to no account.
func (j *Journal) Append(account *Address, undo func()) {
	j.entries = append(j.entries, journalEntry{account: account, undo: undo})
	if account != nil {
		j.dirties[*account]++
	}
}

// Snapshot returns a revision id for RevertTo.
func (j *Journal) Snapshot() int {
	return len(j.entries)
}

// RevertTo undoes every change made after snapshot, newest first.
func (j *Journal) RevertTo(snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].undo()

		if addr := j.entries[i].account; addr != nil {
			if j.dirties[*addr]--; j.dirties[*addr] == 0 {
				delete(j.dirties, *addr)
			}
		}
	}
	j.entries = j.entries[:snapshot]
}

// Len returns the number of recorded changes.
func (j *Journal) Len() int {
	return len(j.entries)
}

// Dirty returns the accounts with outstanding changes, sorted.
func (j *Journal) Dirty() []Address {
	out := make([]Address, 0, len(j.dirties))
	for addr := range j.dirties {
		out = append(out, addr)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].Compare(out[b]) < 0
	})
	return out
}

// Set assigns v to *ptr and journals the previous value.
func Set[T any](j *Journal, account *Address, ptr *T, v T) {
	prev := *ptr
	*ptr = v
	j.Append(account, func() { *ptr = prev })
}

// SetKey assigns m[k] = v and journals the previous entry.
func SetKey[K comparable, V any](j *Journal, account *Address, m map[K]V, k K, v V) {
	prev, had := m[k]
	m[k] = v
	j.Append(account, func() {
		if had {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

// DeleteKey removes m[k] and journals the previous entry.
func DeleteKey[K comparable, V any](j *Journal, account *Address, m map[K]V, k K) {
	prev, had := m[k]
	if !had {
		return
	}
	delete(m, k)
	j.Append(account, func() { m[k] = prev })
}
