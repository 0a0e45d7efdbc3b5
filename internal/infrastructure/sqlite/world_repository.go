package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/engine"
	"github.com/zjrosen/dixel/internal/factory"
	"github.com/zjrosen/dixel/internal/ledger"
)

const metaDefaultFactory = "default_factory"

// collectionColumns is the list of columns to select for collection queries.
const collectionColumns = `address, implementation, factory, initialized, owner, name, symbol, description,
	canvas, whitelist_only, hidden, max_supply, royalty_fraction, minting_begins_from, minting_cost,
	next_token_id, total_supply`

// worldRepository implements engine.Store using SQLite.
type worldRepository struct {
	db *sql.DB
}

func newWorldRepository(db *sql.DB) *worldRepository {
	return &worldRepository{db: db}
}

// Ensure worldRepository implements engine.Store.
var _ engine.Store = (*worldRepository)(nil)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanCollection(scanner interface{ Scan(...any) error }) (*CollectionModel, error) {
	var m CollectionModel
	err := scanner.Scan(
		&m.Address, &m.Implementation, &m.Factory, &m.Initialized, &m.Owner,
		&m.Name, &m.Symbol, &m.Description, &m.Canvas,
		&m.WhitelistOnly, &m.Hidden, &m.MaxSupply, &m.RoyaltyFraction, &m.MintingBeginsFrom, &m.MintingCost,
		&m.NextTokenID, &m.TotalSupply,
	)
	return &m, err
}

// Load reads the whole world.
func (r *worldRepository) Load(ctx context.Context) (*engine.World, error) {
	w := &engine.World{}
	var err error

	if w.Accounts, err = r.loadAccounts(ctx); err != nil {
		return nil, err
	}
	if w.Implementations, err = r.loadImplementations(ctx); err != nil {
		return nil, err
	}
	impls := make(map[chain.Address]collection.Implementation, len(w.Implementations))
	for _, impl := range w.Implementations {
		impls[impl.Address] = impl
	}
	if w.Factories, err = r.loadFactories(ctx, impls); err != nil {
		return nil, err
	}
	if w.Collections, err = r.loadCollections(ctx, impls); err != nil {
		return nil, err
	}

	var def string
	err = r.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaDefaultFactory).Scan(&def)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to read default factory: %w", err)
	default:
		if w.DefaultFactory, err = chain.ParseAddress(def); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (r *worldRepository) loadAccounts(ctx context.Context) ([]chain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT address, balance, nonce FROM accounts ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []chain.Account
	for rows.Next() {
		var addr, balance string
		var nonce int64
		if err := rows.Scan(&addr, &balance, &nonce); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		acc := chain.Account{Nonce: uint64(nonce)}
		if acc.Address, err = chain.ParseAddress(addr); err != nil {
			return nil, err
		}
		if acc.Balance, err = parseAmount(balance); err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return out, nil
}

func (r *worldRepository) loadImplementations(ctx context.Context) ([]collection.Implementation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT address, version, external_url FROM implementations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to load implementations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []collection.Implementation
	for rows.Next() {
		var addr string
		var version int64
		var impl collection.Implementation
		if err := rows.Scan(&addr, &version, &impl.ExternalURL); err != nil {
			return nil, fmt.Errorf("failed to scan implementation row: %w", err)
		}
		if impl.Address, err = chain.ParseAddress(addr); err != nil {
			return nil, err
		}
		impl.Version = uint64(version)
		out = append(out, impl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating implementation rows: %w", err)
	}
	return out, nil
}

func (r *worldRepository) loadFactories(ctx context.Context, impls map[chain.Address]collection.Implementation) ([]factory.State, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT address, owner, implementation, beneficiary, creation_fee, minting_fee FROM factories ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("failed to load factories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []factory.State
	index := make(map[string]int)
	for rows.Next() {
		var m FactoryModel
		if err := rows.Scan(&m.Address, &m.Owner, &m.Implementation, &m.Beneficiary, &m.CreationFee, &m.MintingFee); err != nil {
			return nil, fmt.Errorf("failed to scan factory row: %w", err)
		}
		s, err := m.toState(impls)
		if err != nil {
			return nil, err
		}
		index[m.Address] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating factory rows: %w", err)
	}
	_ = rows.Close()

	entries, err := r.db.QueryContext(ctx,
		`SELECT factory, collection FROM factory_collections ORDER BY factory, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load factory collections: %w", err)
	}
	defer func() { _ = entries.Close() }()
	for entries.Next() {
		var owner, addr string
		if err := entries.Scan(&owner, &addr); err != nil {
			return nil, fmt.Errorf("failed to scan factory collection row: %w", err)
		}
		i, ok := index[owner]
		if !ok {
			continue
		}
		a, err := chain.ParseAddress(addr)
		if err != nil {
			return nil, err
		}
		out[i].Collections = append(out[i].Collections, a)
	}
	if err := entries.Err(); err != nil {
		return nil, fmt.Errorf("error iterating factory collection rows: %w", err)
	}
	return out, nil
}

func (r *worldRepository) loadCollections(ctx context.Context, impls map[chain.Address]collection.Implementation) ([]collection.State, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+collectionColumns+` FROM collections ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []collection.State
	index := make(map[string]int)
	for rows.Next() {
		m, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection row: %w", err)
		}
		s, err := m.toState(impls)
		if err != nil {
			return nil, err
		}
		index[m.Address] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection rows: %w", err)
	}
	_ = rows.Close()

	if err := r.loadEditions(ctx, out, index); err != nil {
		return nil, err
	}
	if err := r.loadOperators(ctx, out, index); err != nil {
		return nil, err
	}
	if err := r.loadWhitelists(ctx, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *worldRepository) loadEditions(ctx context.Context, out []collection.State, index map[string]int) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT collection, token_id, palette, owner, approved FROM editions ORDER BY collection, token_id`)
	if err != nil {
		return fmt.Errorf("failed to load editions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var coll string
		var m EditionModel
		if err := rows.Scan(&coll, &m.TokenID, &m.Palette, &m.Owner, &m.Approved); err != nil {
			return fmt.Errorf("failed to scan edition row: %w", err)
		}
		i, ok := index[coll]
		if !ok {
			continue
		}
		edition, token, err := m.toDomain()
		if err != nil {
			return err
		}
		out[i].Editions = append(out[i].Editions, edition)
		out[i].Ledger.Tokens = append(out[i].Ledger.Tokens, token)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating edition rows: %w", err)
	}
	return nil
}

func (r *worldRepository) loadOperators(ctx context.Context, out []collection.State, index map[string]int) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT collection, owner, operator FROM operators ORDER BY collection, owner, operator`)
	if err != nil {
		return fmt.Errorf("failed to load operators: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var coll, owner, operator string
		if err := rows.Scan(&coll, &owner, &operator); err != nil {
			return fmt.Errorf("failed to scan operator row: %w", err)
		}
		i, ok := index[coll]
		if !ok {
			continue
		}
		var op ledger.Operator
		if op.Owner, err = chain.ParseAddress(owner); err != nil {
			return err
		}
		if op.Operator, err = chain.ParseAddress(operator); err != nil {
			return err
		}
		out[i].Ledger.Operators = append(out[i].Ledger.Operators, op)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating operator rows: %w", err)
	}
	return nil
}

func (r *worldRepository) loadWhitelists(ctx context.Context, out []collection.State, index map[string]int) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT collection, address FROM whitelist ORDER BY collection, position`)
	if err != nil {
		return fmt.Errorf("failed to load whitelists: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var coll, addr string
		if err := rows.Scan(&coll, &addr); err != nil {
			return fmt.Errorf("failed to scan whitelist row: %w", err)
		}
		i, ok := index[coll]
		if !ok {
			continue
		}
		a, err := chain.ParseAddress(addr)
		if err != nil {
			return err
		}
		out[i].Whitelist = append(out[i].Whitelist, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating whitelist rows: %w", err)
	}
	return nil
}

// Apply writes one transaction's changes atomically.
func (r *worldRepository) Apply(ctx context.Context, changes engine.Changes) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, acc := range changes.Accounts {
		if err := saveAccount(ctx, tx, acc); err != nil {
			return err
		}
	}
	for _, impl := range changes.Implementations {
		if err := saveImplementation(ctx, tx, impl); err != nil {
			return err
		}
	}
	for _, f := range changes.Factories {
		if err := saveFactory(ctx, tx, f); err != nil {
			return err
		}
	}
	for _, c := range changes.Collections {
		if err := saveCollection(ctx, tx, c); err != nil {
			return err
		}
	}
	for _, ev := range changes.Events {
		if err := saveEvent(ctx, tx, ev); err != nil {
			return err
		}
	}
	if !changes.DefaultFactory.IsZero() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			metaDefaultFactory, changes.DefaultFactory.String(),
		); err != nil {
			return fmt.Errorf("failed to save default factory: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func saveAccount(ctx context.Context, db execer, acc chain.Account) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO accounts (address, balance, nonce) VALUES (?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET balance = excluded.balance, nonce = excluded.nonce`,
		acc.Address.String(), formatAmount(acc.Balance), int64(acc.Nonce),
	)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", acc.Address, err)
	}
	return nil
}

func saveImplementation(ctx context.Context, db execer, impl collection.Implementation) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO implementations (address, version, external_url) VALUES (?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET external_url = excluded.external_url`,
		impl.Address.String(), int64(impl.Version), impl.ExternalURL,
	)
	if err != nil {
		return fmt.Errorf("failed to save implementation %s: %w", impl, err)
	}
	return nil
}

// saveFactory upserts the factory row and appends the index entries not yet
// stored. The index is append-only.
func saveFactory(ctx context.Context, db execer, s factory.State) error {
	m := toFactoryModel(s)
	_, err := db.ExecContext(ctx,
		`INSERT INTO factories (address, owner, implementation, beneficiary, creation_fee, minting_fee)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET
			owner = excluded.owner, implementation = excluded.implementation,
			beneficiary = excluded.beneficiary, creation_fee = excluded.creation_fee,
			minting_fee = excluded.minting_fee`,
		m.Address, m.Owner, m.Implementation, m.Beneficiary, m.CreationFee, m.MintingFee,
	)
	if err != nil {
		return fmt.Errorf("failed to save factory %s: %w", m.Address, err)
	}

	var stored int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM factory_collections WHERE factory = ?`, m.Address,
	).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count factory collections: %w", err)
	}
	for i := stored; i < len(s.Collections); i++ {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO factory_collections (factory, position, collection) VALUES (?, ?, ?)`,
			m.Address, i, s.Collections[i].String(),
		); err != nil {
			return fmt.Errorf("failed to save factory collection: %w", err)
		}
	}
	return nil
}

// saveCollection upserts the collection row and replaces its editions,
// operators and whitelist.
func saveCollection(ctx context.Context, db execer, s collection.State) error {
	m := toCollectionModel(s)
	_, err := db.ExecContext(ctx,
		`INSERT INTO collections (`+collectionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET
			initialized = excluded.initialized, owner = excluded.owner, description = excluded.description,
			whitelist_only = excluded.whitelist_only, hidden = excluded.hidden,
			royalty_fraction = excluded.royalty_fraction, minting_begins_from = excluded.minting_begins_from,
			minting_cost = excluded.minting_cost, next_token_id = excluded.next_token_id,
			total_supply = excluded.total_supply`,
		m.Address, m.Implementation, m.Factory, m.Initialized, m.Owner,
		m.Name, m.Symbol, m.Description, m.Canvas,
		m.WhitelistOnly, m.Hidden, m.MaxSupply, m.RoyaltyFraction, m.MintingBeginsFrom, m.MintingCost,
		m.NextTokenID, m.TotalSupply,
	)
	if err != nil {
		return fmt.Errorf("failed to save collection %s: %w", m.Address, err)
	}

	for _, table := range []string{"editions", "operators", "whitelist"} {
		if _, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE collection = ?`, m.Address); err != nil {
			return fmt.Errorf("failed to clear %s of %s: %w", table, m.Address, err)
		}
	}
	for _, e := range toEditionModels(s) {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO editions (collection, token_id, palette, owner, approved) VALUES (?, ?, ?, ?, ?)`,
			m.Address, e.TokenID, e.Palette, e.Owner, e.Approved,
		); err != nil {
			return fmt.Errorf("failed to save edition %d: %w", e.TokenID, err)
		}
	}
	for _, op := range s.Ledger.Operators {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO operators (collection, owner, operator) VALUES (?, ?, ?)`,
			m.Address, op.Owner.String(), op.Operator.String(),
		); err != nil {
			return fmt.Errorf("failed to save operator: %w", err)
		}
	}
	for i, addr := range s.Whitelist {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO whitelist (collection, position, address) VALUES (?, ?, ?)`,
			m.Address, i, addr.String(),
		); err != nil {
			return fmt.Errorf("failed to save whitelist entry: %w", err)
		}
	}
	return nil
}

func saveEvent(ctx context.Context, db execer, ev chain.Event) error {
	m, err := toEventModel(ev)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO events (id, tx_id, name, emitter, attrs, time) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.TxID, m.Name, m.Emitter, m.Attrs, m.Time,
	); err != nil {
		return fmt.Errorf("failed to save event %s: %w", m.Name, err)
	}
	return nil
}

// Events lists stored events matching filter, oldest first.
func (r *worldRepository) Events(ctx context.Context, filter engine.EventFilter) ([]engine.StoredEvent, error) {
	query := `SELECT seq, id, tx_id, name, emitter, attrs, time FROM events WHERE seq > ?`
	args := []any{filter.AfterSeq}

	if !filter.Emitter.IsZero() {
		query += ` AND emitter = ?`
		args = append(args, filter.Emitter.String())
	}
	if filter.Name != "" {
		query += ` AND name = ?`
		args = append(args, filter.Name)
	}

	query += ` ORDER BY seq`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []engine.StoredEvent
	for rows.Next() {
		var m EventModel
		if err := rows.Scan(&m.Seq, &m.ID, &m.TxID, &m.Name, &m.Emitter, &m.Attrs, &m.Time); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, engine.StoredEvent{Seq: m.Seq, Event: ev})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}
