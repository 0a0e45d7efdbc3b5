package engine

import (
	"context"
	"fmt"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/factory"
)

// World is everything a Store holds.
type World struct {
	Accounts        []chain.Account
	Implementations []collection.Implementation
	Factories       []factory.State
	Collections     []collection.State
	DefaultFactory  chain.Address
}

// Changes is the state touched by one committed transaction.
type Changes struct {
	Accounts        []chain.Account
	Implementations []collection.Implementation
	Factories       []factory.State
	Collections     []collection.State
	DefaultFactory  chain.Address
	Events          []chain.Event
}

// Empty reports whether there is nothing to write.
func (c Changes) Empty() bool {
	return len(c.Accounts) == 0 &&
		len(c.Implementations) == 0 &&
		len(c.Factories) == 0 &&
		len(c.Collections) == 0 &&
		len(c.Events) == 0
}

// EventFilter selects stored events. Zero values match everything.
type EventFilter struct {
	Emitter  chain.Address
	Name     string
	AfterSeq int64
	Limit    int
}

// StoredEvent is a committed event with its position in the history.
type StoredEvent struct {
	Seq int64
	chain.Event
}

// Store persists the world between processes. Apply must be atomic.
type Store interface {
	Load(ctx context.Context) (*World, error)
	Apply(ctx context.Context, changes Changes) error
	Events(ctx context.Context, filter EventFilter) ([]StoredEvent, error)
}

// CollectionNotFoundError is returned when no collection lives at an address.
type CollectionNotFoundError struct {
	Address chain.Address
}

func (e *CollectionNotFoundError) Error() string {
	return fmt.Sprintf("no collection at %s", e.Address)
}

// FactoryNotFoundError is returned when no factory lives at an address, or
// when no factory has been deployed yet.
type FactoryNotFoundError struct {
	Address chain.Address
}

func (e *FactoryNotFoundError) Error() string {
	if e.Address.IsZero() {
		return "no factory deployed"
	}
	return fmt.Sprintf("no factory at %s", e.Address)
}
