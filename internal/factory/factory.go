// Package factory is the collection registry. It stamps out collection
// instances bound to the current implementation, keeps the append-only index
// of every collection it knows about and owns the platform fee policy that
// its collections consult on every mint.
package factory

import (
	"strconv"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/pixel"
)

// Directory is where instantiated collections live. Register must journal the
// new entry so a reverted creation leaves nothing behind.
type Directory interface {
	Register(j *chain.Journal, c *collection.Collection)
	Implementation(addr chain.Address) (collection.Implementation, bool)
}

// Factory is the registry of collections.
type Factory struct {
	address     chain.Address
	ownable     chain.Ownable
	impl        collection.Implementation
	collections []chain.Address
	beneficiary chain.Address
	creationFee uint64
	mintingFee  uint64

	directory      Directory
	collectionOpts []collection.Option
}

// Config holds the initial fee settings of a factory.
type Config struct {
	Owner       chain.Address
	Beneficiary chain.Address
	CreationFee uint64
	MintingFee  uint64
}

// New creates a factory at address. impl must already be published in dir.
func New(address chain.Address, impl collection.Implementation, cfg Config, dir Directory, opts ...collection.Option) (*Factory, error) {
	if cfg.Owner.IsZero() {
		return nil, chain.ErrZeroAddress
	}
	if cfg.Beneficiary.IsZero() {
		return nil, ErrZeroBeneficiary
	}
	if cfg.MintingFee > collection.FrictionBase {
		return nil, ErrInvalidMintingFee
	}
	if _, ok := dir.Implementation(impl.Address); !ok {
		return nil, ErrUnknownImplementation
	}
	return &Factory{
		address:        address,
		ownable:        chain.NewOwnable(cfg.Owner),
		impl:           impl,
		beneficiary:    cfg.Beneficiary,
		creationFee:    cfg.CreationFee,
		mintingFee:     cfg.MintingFee,
		directory:      dir,
		collectionOpts: opts,
	}, nil
}

// Create validates the arguments, instantiates a collection bound to the
// current implementation, initializes it with the caller as owner and pays the
// creation fee to the beneficiary.
func (f *Factory) Create(tx *chain.Tx, name, symbol, description string, meta collection.MetaParams, palette pixel.Palette, canvas pixel.Canvas) (chain.Address, error) {
	if err := collection.ValidateCreation(name, symbol, description, meta); err != nil {
		return chain.ZeroAddress, err
	}
	if err := collection.ValidateArtwork(&canvas, palette); err != nil {
		return chain.ZeroAddress, err
	}
	if tx.Value() != f.creationFee {
		return chain.ZeroAddress, ErrInvalidCreationFee
	}

	creator := tx.Sender()
	addr := tx.NewAddress()
	c := collection.New(addr, f.impl, f.address, f, f.collectionOpts...)
	f.directory.Register(tx.Journal(), c)

	frame, err := tx.Call(addr, 0)
	if err != nil {
		return chain.ZeroAddress, err
	}
	if err := c.Init(frame, creator, name, symbol, description, meta, palette, canvas); err != nil {
		return chain.ZeroAddress, err
	}

	f.appendCollection(tx.Journal(), addr)
	tx.Emit("CollectionCreated",
		chain.A("nftAddress", addr.String()),
		chain.A("name", name),
		chain.A("symbol", symbol))

	if f.creationFee > 0 {
		if err := tx.Transfer(f.beneficiary, f.creationFee); err != nil {
			return chain.ZeroAddress, err
		}
	}
	return addr, nil
}

func (f *Factory) appendCollection(j *chain.Journal, addr chain.Address) {
	n := len(f.collections)
	f.collections = append(f.collections, addr)
	j.Append(&f.address, func() { f.collections = f.collections[:n] })
}

// UpdateImplementation points future creations at a published implementation.
// Existing collections keep theirs.
func (f *Factory) UpdateImplementation(tx *chain.Tx, addr chain.Address) error {
	if err := f.ownable.OnlyOwner(tx); err != nil {
		return err
	}
	impl, ok := f.directory.Implementation(addr)
	if !ok {
		return ErrUnknownImplementation
	}
	chain.Set(tx.Journal(), &f.address, &f.impl, impl)
	tx.Emit("ImplementationUpdated",
		chain.A("implementation", addr.String()),
		chain.A("version", strconv.FormatUint(impl.Version, 10)))
	return nil
}

// AddCollection appends an externally created collection to the index.
func (f *Factory) AddCollection(tx *chain.Tx, addr chain.Address) error {
	if err := f.ownable.OnlyOwner(tx); err != nil {
		return err
	}
	if addr.IsZero() {
		return ErrInvalidCollection
	}
	f.appendCollection(tx.Journal(), addr)
	tx.Emit("CollectionAdded", chain.A("nftAddress", addr.String()))
	return nil
}

func (f *Factory) UpdateBeneficiary(tx *chain.Tx, addr chain.Address) error {
	if err := f.ownable.OnlyOwner(tx); err != nil {
		return err
	}
	if addr.IsZero() {
		return ErrZeroBeneficiary
	}
	chain.Set(tx.Journal(), &f.address, &f.beneficiary, addr)
	tx.Emit("BeneficiaryUpdated", chain.A("beneficiary", addr.String()))
	return nil
}

func (f *Factory) UpdateCreationFee(tx *chain.Tx, amount uint64) error {
	if err := f.ownable.OnlyOwner(tx); err != nil {
		return err
	}
	chain.Set(tx.Journal(), &f.address, &f.creationFee, amount)
	tx.Emit("CreationFeeUpdated", chain.A("creationFee", strconv.FormatUint(amount, 10)))
	return nil
}

// UpdateMintingFee sets the fraction of every mint, out of FrictionBase, paid
// to the beneficiary. Existing collections pick it up on their next mint.
func (f *Factory) UpdateMintingFee(tx *chain.Tx, fraction uint64) error {
	if err := f.ownable.OnlyOwner(tx); err != nil {
		return err
	}
	if fraction > collection.FrictionBase {
		return ErrInvalidMintingFee
	}
	chain.Set(tx.Journal(), &f.address, &f.mintingFee, fraction)
	tx.Emit("MintingFeeUpdated", chain.A("mintingFee", strconv.FormatUint(fraction, 10)))
	return nil
}

func (f *Factory) TransferOwnership(tx *chain.Tx, newOwner chain.Address) error {
	return f.ownable.TransferOwnership(tx, &f.address, newOwner)
}

// Collections returns the i-th registered collection.
func (f *Factory) Collections(i uint64) (chain.Address, error) {
	if i >= uint64(len(f.collections)) {
		return chain.ZeroAddress, ErrIndexOutOfRange
	}
	return f.collections[i], nil
}

func (f *Factory) CollectionCount() uint64 {
	return uint64(len(f.collections))
}

// GetCollections returns collections[offset:min(offset+limit, count)].
func (f *Factory) GetCollections(offset, limit uint64) []chain.Address {
	return collection.Paginate(f.collections, offset, limit)
}

func (f *Factory) Address() chain.Address                    { return f.address }
func (f *Factory) Owner() chain.Address                      { return f.ownable.Owner() }
func (f *Factory) Beneficiary() chain.Address                { return f.beneficiary }
func (f *Factory) CreationFee() uint64                       { return f.creationFee }
func (f *Factory) MintingFee() uint64                        { return f.mintingFee }
func (f *Factory) NFTImplementation() chain.Address          { return f.impl.Address }
func (f *Factory) Implementation() collection.Implementation { return f.impl }
func (f *Factory) MaxSupplyCap() uint64                      { return collection.MaxSupplyCap }
func (f *Factory) MaxRoyaltyCap() uint64                     { return collection.MaxRoyaltyCap }
func (f *Factory) FrictionBase() uint64                      { return collection.FrictionBase }
