// Package engine hosts the dixel world: the transaction runtime, published
// implementations, factories and collections. It runs every operation as a
// traced transaction and writes what the transaction touched to the Store.
package engine

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/factory"
	"github.com/zjrosen/dixel/internal/log"
	"github.com/zjrosen/dixel/internal/pubsub"
	"github.com/zjrosen/dixel/internal/render"
	"github.com/zjrosen/dixel/internal/tracing"
)

// Engine is the in-process world.
type Engine struct {
	rt       *chain.Runtime
	store    Store
	tracer   trace.Tracer
	renderer render.Renderer

	impls          map[chain.Address]collection.Implementation
	factories      map[chain.Address]*factory.Factory
	collections    map[chain.Address]*collection.Collection
	defaultFactory chain.Address
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	store    Store
	tracer   trace.Tracer
	renderer render.Renderer
	clock    chain.Clock
}

// WithStore persists every committed transaction to s and loads the world from it.
func WithStore(s Store) Option {
	return func(o *options) { o.store = s }
}

func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithRenderer sets the image renderer handed to every collection.
func WithRenderer(r render.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

func WithClock(c chain.Clock) Option {
	return func(o *options) { o.clock = c }
}

// Open builds an engine, loading the world from the configured store.
func Open(ctx context.Context, opts ...Option) (*Engine, error) {
	o := options{
		tracer:   noop.NewTracerProvider().Tracer("noop"),
		renderer: render.Direct{},
		clock:    chain.SystemClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		store:       o.store,
		tracer:      o.tracer,
		renderer:    o.renderer,
		impls:       make(map[chain.Address]collection.Implementation),
		factories:   make(map[chain.Address]*factory.Factory),
		collections: make(map[chain.Address]*collection.Collection),
	}
	accounts := chain.NewAccounts()

	if e.store != nil {
		ctx, span := tracing.StartStore(ctx, e.tracer, "load")
		world, err := e.store.Load(ctx)
		tracing.End(span, err)
		if err != nil {
			return nil, fmt.Errorf("loading world: %w", err)
		}
		accounts.Restore(world.Accounts)
		e.hydrate(world)
		log.Info(log.CatDB, "world loaded",
			"accounts", len(world.Accounts),
			"factories", len(world.Factories),
			"collections", len(world.Collections))
	}

	e.rt = chain.NewRuntime(chain.WithClock(o.clock), chain.WithAccounts(accounts))
	return e, nil
}

func (e *Engine) hydrate(w *World) {
	for _, impl := range w.Implementations {
		e.impls[impl.Address] = impl
	}
	for _, s := range w.Factories {
		e.factories[s.Address] = factory.Reconstitute(s, e, e.collectionOptions()...)
	}
	for _, s := range w.Collections {
		e.collections[s.Address] = collection.Reconstitute(s, e.policyFor(s.Factory), e.collectionOptions()...)
	}
	e.defaultFactory = w.DefaultFactory
}

func (e *Engine) collectionOptions() []collection.Option {
	return []collection.Option{collection.WithRenderer(e.renderer)}
}

// policyFor returns the fee source of collections created by factoryAddr.
// Collections whose factory is unknown pay no platform fee.
func (e *Engine) policyFor(factoryAddr chain.Address) collection.FeePolicy {
	if f, ok := e.factories[factoryAddr]; ok {
		return f
	}
	return nil
}

// Register implements factory.Directory.
func (e *Engine) Register(j *chain.Journal, c *collection.Collection) {
	addr := c.Address()
	chain.SetKey(j, &addr, e.collections, addr, c)
}

// Implementation implements factory.Directory.
func (e *Engine) Implementation(addr chain.Address) (collection.Implementation, bool) {
	impl, ok := e.impls[addr]
	return impl, ok
}

// Events is the broker committed events are published on.
func (e *Engine) Events() *pubsub.Broker[chain.Event] {
	return e.rt.Events()
}

func (e *Engine) Runtime() *chain.Runtime {
	return e.rt
}

func (e *Engine) Balance(addr chain.Address) uint64 {
	return e.rt.Accounts().BalanceOf(addr)
}

// Collection returns the collection at addr.
func (e *Engine) Collection(addr chain.Address) (*collection.Collection, error) {
	c, ok := e.collections[addr]
	if !ok {
		return nil, &CollectionNotFoundError{Address: addr}
	}
	return c, nil
}

// Factory returns the factory at addr. The zero address selects the default factory.
func (e *Engine) Factory(addr chain.Address) (*factory.Factory, error) {
	if addr.IsZero() {
		addr = e.defaultFactory
	}
	f, ok := e.factories[addr]
	if !ok {
		return nil, &FactoryNotFoundError{Address: addr}
	}
	return f, nil
}

func (e *Engine) DefaultFactory() chain.Address {
	return e.defaultFactory
}

// Implementations lists published implementations by version.
func (e *Engine) Implementations() []collection.Implementation {
	out := make([]collection.Implementation, 0, len(e.impls))
	for _, impl := range e.impls {
		out = append(out, impl)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Version < out[k].Version })
	return out
}

// History reads committed events from the store.
func (e *Engine) History(ctx context.Context, filter EventFilter) ([]StoredEvent, error) {
	if e.store == nil {
		return nil, nil
	}
	ctx, span := tracing.StartStore(ctx, e.tracer, "events")
	events, err := e.store.Events(ctx, filter)
	tracing.End(span, err)
	return events, err
}

// transact runs fn as one traced transaction and persists its effects.
func (e *Engine) transact(ctx context.Context, op string, call chain.Call, fn func(tx *chain.Tx) error) (*chain.Receipt, error) {
	return tracing.Transaction(ctx, e.tracer, op, call, func(ctx context.Context) (*chain.Receipt, error) {
		receipt, err := e.rt.Execute(ctx, call, fn)
		if err != nil {
			log.Warn(log.CatChain, "operation reverted",
				"op", op,
				"from", call.From,
				"to", call.To,
				"reason", err)
			return nil, err
		}
		if err := e.persist(ctx, receipt); err != nil {
			return nil, err
		}
		log.Debug(log.CatChain, "operation committed", "op", op, "tx", receipt.TxID, "events", len(receipt.Events))
		return receipt, nil
	})
}

// persist writes the state of every account the receipt touched.
func (e *Engine) persist(ctx context.Context, receipt *chain.Receipt) error {
	if e.store == nil {
		return nil
	}
	changes := e.changesFor(receipt)
	if changes.Empty() {
		return nil
	}

	ctx, span := tracing.StartStore(ctx, e.tracer, "apply",
		attribute.Int(tracing.AttrStoreRows, len(changes.Accounts)+len(changes.Collections)+len(changes.Factories)))
	err := e.store.Apply(ctx, changes)
	tracing.End(span, err)
	if err != nil {
		log.ErrorErr(log.CatDB, "persisting transaction failed", err, "tx", receipt.TxID)
		return fmt.Errorf("persisting tx %s: %w", receipt.TxID, err)
	}
	return nil
}

func (e *Engine) changesFor(receipt *chain.Receipt) Changes {
	accounts := e.rt.Accounts()
	changes := Changes{
		DefaultFactory: e.defaultFactory,
		Events:         receipt.Events,
	}
	for _, addr := range receipt.Dirty {
		changes.Accounts = append(changes.Accounts, chain.Account{
			Address: addr,
			Balance: accounts.BalanceOf(addr),
			Nonce:   accounts.NonceOf(addr),
		})
		if impl, ok := e.impls[addr]; ok {
			changes.Implementations = append(changes.Implementations, impl)
		}
		if f, ok := e.factories[addr]; ok {
			changes.Factories = append(changes.Factories, f.Snapshot())
		}
		if c, ok := e.collections[addr]; ok {
			changes.Collections = append(changes.Collections, c.Snapshot())
		}
	}
	return changes
}
