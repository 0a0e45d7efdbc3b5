package engine

import (
	"context"
	"strconv"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/factory"
	"github.com/zjrosen/dixel/internal/log"
	"github.com/zjrosen/dixel/internal/pixel"
)

// DeployParams configures a new factory.
type DeployParams struct {
	Deployer    chain.Address
	Beneficiary chain.Address
	CreationFee uint64
	MintingFee  uint64
	ExternalURL string
}

// Deployment is the result of Deploy.
type Deployment struct {
	Factory        chain.Address
	Implementation collection.Implementation
}

// Deploy publishes a new implementation and a factory bound to it, and makes
// the factory the default one.
func (e *Engine) Deploy(ctx context.Context, p DeployParams) (Deployment, error) {
	var out Deployment
	call := chain.Call{From: p.Deployer, To: p.Deployer}
	_, err := e.transact(ctx, "deploy", call, func(tx *chain.Tx) error {
		impl := e.publish(tx, p.ExternalURL)

		addr := tx.NewAddress()
		f, err := factory.New(addr, impl, factory.Config{
			Owner:       p.Deployer,
			Beneficiary: p.Beneficiary,
			CreationFee: p.CreationFee,
			MintingFee:  p.MintingFee,
		}, e, e.collectionOptions()...)
		if err != nil {
			return err
		}
		chain.SetKey(tx.Journal(), &addr, e.factories, addr, f)
		chain.Set(tx.Journal(), nil, &e.defaultFactory, addr)

		frame, err := tx.Call(addr, 0)
		if err != nil {
			return err
		}
		frame.Emit("FactoryDeployed",
			chain.A("owner", p.Deployer.String()),
			chain.A("implementation", impl.Address.String()),
			chain.A("version", strconv.FormatUint(impl.Version, 10)))

		out = Deployment{Factory: addr, Implementation: impl}
		return nil
	})
	if err != nil {
		return Deployment{}, err
	}
	log.Info(log.CatFactory, "factory deployed", "factory", out.Factory, "implementation", out.Implementation)
	return out, nil
}

// PublishImplementation publishes the next implementation version. Factories
// pick it up through UpdateImplementation.
func (e *Engine) PublishImplementation(ctx context.Context, from chain.Address, externalURL string) (collection.Implementation, error) {
	var impl collection.Implementation
	_, err := e.transact(ctx, "publish-implementation", chain.Call{From: from, To: from}, func(tx *chain.Tx) error {
		impl = e.publish(tx, externalURL)
		return nil
	})
	return impl, err
}

func (e *Engine) publish(tx *chain.Tx, externalURL string) collection.Implementation {
	var version uint64
	for _, impl := range e.impls {
		version = max(version, impl.Version)
	}
	if externalURL == "" {
		externalURL = collection.DefaultExternalURL
	}
	addr := tx.NewAddress()
	impl := collection.Implementation{Address: addr, Version: version + 1, ExternalURL: externalURL}
	chain.SetKey(tx.Journal(), &addr, e.impls, addr, impl)
	return impl
}

// Faucet credits amount to addr out of thin air.
func (e *Engine) Faucet(ctx context.Context, addr chain.Address, amount uint64) error {
	if addr.IsZero() {
		return chain.ErrZeroAddress
	}
	_, err := e.transact(ctx, "faucet", chain.Call{From: addr, To: addr}, func(tx *chain.Tx) error {
		if err := tx.Accounts().Credit(tx.Journal(), addr, amount); err != nil {
			return err
		}
		tx.Emit("FaucetCredited", chain.A("amount", strconv.FormatUint(amount, 10)))
		return nil
	})
	return err
}

// CreateParams are the arguments of Create. A zero Factory selects the default.
type CreateParams struct {
	From        chain.Address
	Factory     chain.Address
	Value       uint64
	Name        string
	Symbol      string
	Description string
	Meta        collection.MetaParams
	Palette     pixel.Palette
	Canvas      pixel.Canvas
}

// Create creates a collection through a factory, paying Value as the creation fee.
func (e *Engine) Create(ctx context.Context, p CreateParams) (chain.Address, error) {
	f, err := e.Factory(p.Factory)
	if err != nil {
		return chain.ZeroAddress, err
	}
	var addr chain.Address
	call := chain.Call{From: p.From, To: f.Address(), Value: p.Value}
	_, err = e.transact(ctx, "create", call, func(tx *chain.Tx) error {
		var err error
		addr, err = f.Create(tx, p.Name, p.Symbol, p.Description, p.Meta, p.Palette, p.Canvas)
		return err
	})
	if err != nil {
		return chain.ZeroAddress, err
	}
	return addr, nil
}

// withFactory runs fn as a transaction addressed to the factory at addr.
func (e *Engine) withFactory(ctx context.Context, op string, from, addr chain.Address, fn func(tx *chain.Tx, f *factory.Factory) error) error {
	f, err := e.Factory(addr)
	if err != nil {
		return err
	}
	_, err = e.transact(ctx, op, chain.Call{From: from, To: f.Address()}, func(tx *chain.Tx) error {
		return fn(tx, f)
	})
	return err
}

func (e *Engine) UpdateImplementation(ctx context.Context, from, factoryAddr, impl chain.Address) error {
	return e.withFactory(ctx, "update-implementation", from, factoryAddr, func(tx *chain.Tx, f *factory.Factory) error {
		return f.UpdateImplementation(tx, impl)
	})
}

func (e *Engine) AddCollection(ctx context.Context, from, factoryAddr, coll chain.Address) error {
	return e.withFactory(ctx, "add-collection", from, factoryAddr, func(tx *chain.Tx, f *factory.Factory) error {
		return f.AddCollection(tx, coll)
	})
}

func (e *Engine) UpdateBeneficiary(ctx context.Context, from, factoryAddr, beneficiary chain.Address) error {
	return e.withFactory(ctx, "update-beneficiary", from, factoryAddr, func(tx *chain.Tx, f *factory.Factory) error {
		return f.UpdateBeneficiary(tx, beneficiary)
	})
}

func (e *Engine) UpdateCreationFee(ctx context.Context, from, factoryAddr chain.Address, amount uint64) error {
	return e.withFactory(ctx, "update-creation-fee", from, factoryAddr, func(tx *chain.Tx, f *factory.Factory) error {
		return f.UpdateCreationFee(tx, amount)
	})
}

func (e *Engine) UpdateMintingFee(ctx context.Context, from, factoryAddr chain.Address, fraction uint64) error {
	return e.withFactory(ctx, "update-minting-fee", from, factoryAddr, func(tx *chain.Tx, f *factory.Factory) error {
		return f.UpdateMintingFee(tx, fraction)
	})
}

func (e *Engine) TransferFactoryOwnership(ctx context.Context, from, factoryAddr, newOwner chain.Address) error {
	return e.withFactory(ctx, "transfer-factory-ownership", from, factoryAddr, func(tx *chain.Tx, f *factory.Factory) error {
		return f.TransferOwnership(tx, newOwner)
	})
}

// Migrate indexes every collection of source in target, skipping the ones
// target already lists. It runs as one transaction: either every collection
// is added or none is. Returns the number added.
func (e *Engine) Migrate(ctx context.Context, from, source, target chain.Address) (int, error) {
	src, err := e.Factory(source)
	if err != nil {
		return 0, err
	}
	added := 0
	err = e.withFactory(ctx, "migrate", from, target, func(tx *chain.Tx, dst *factory.Factory) error {
		if tx.Sender() != dst.Owner() {
			return chain.ErrNotOwner
		}
		known := make(map[chain.Address]bool, dst.CollectionCount())
		for _, addr := range dst.GetCollections(0, dst.CollectionCount()) {
			known[addr] = true
		}
		for _, addr := range src.GetCollections(0, src.CollectionCount()) {
			if known[addr] {
				continue
			}
			if err := dst.AddCollection(tx, addr); err != nil {
				return err
			}
			known[addr] = true
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Info(log.CatFactory, "collections migrated", "from", source, "to", target, "added", added)
	return added, nil
}

// withCollection runs fn as a transaction addressed to the collection at addr.
func (e *Engine) withCollection(ctx context.Context, op string, call chain.Call, fn func(tx *chain.Tx, c *collection.Collection) error) error {
	c, err := e.Collection(call.To)
	if err != nil {
		return err
	}
	_, err = e.transact(ctx, op, call, func(tx *chain.Tx) error {
		return fn(tx, c)
	})
	return err
}

// Mint mints an edition of coll to to, paying value.
func (e *Engine) Mint(ctx context.Context, from, coll chain.Address, value uint64, to chain.Address, palette pixel.Palette) (uint64, error) {
	var id uint64
	err := e.withCollection(ctx, "mint", chain.Call{From: from, To: coll, Value: value}, func(tx *chain.Tx, c *collection.Collection) error {
		var err error
		id, err = c.MintPublic(tx, to, palette)
		return err
	})
	return id, err
}

// MintPrivate mints using the caller's whitelist slot at index.
func (e *Engine) MintPrivate(ctx context.Context, from, coll chain.Address, value, index uint64, to chain.Address, palette pixel.Palette) (uint64, error) {
	var id uint64
	err := e.withCollection(ctx, "mint-private", chain.Call{From: from, To: coll, Value: value}, func(tx *chain.Tx, c *collection.Collection) error {
		var err error
		id, err = c.MintPrivate(tx, index, to, palette)
		return err
	})
	return id, err
}

func (e *Engine) Burn(ctx context.Context, from, coll chain.Address, id uint64) error {
	return e.withCollection(ctx, "burn", chain.Call{From: from, To: coll}, func(tx *chain.Tx, c *collection.Collection) error {
		return c.Burn(tx, id)
	})
}

// MetadataUpdate are the mutable collection settings.
type MetadataUpdate struct {
	WhitelistOnly     bool
	Hidden            bool
	RoyaltyFraction   uint64
	MintingBeginsFrom int64
	MintingCost       uint64
}

func (e *Engine) UpdateMetadata(ctx context.Context, from, coll chain.Address, u MetadataUpdate) error {
	return e.withCollection(ctx, "update-metadata", chain.Call{From: from, To: coll}, func(tx *chain.Tx, c *collection.Collection) error {
		return c.UpdateMetadata(tx, u.WhitelistOnly, u.Hidden, u.RoyaltyFraction, u.MintingBeginsFrom, u.MintingCost)
	})
}

func (e *Engine) UpdateDescription(ctx context.Context, from, coll chain.Address, description string) error {
	return e.withCollection(ctx, "update-description", chain.Call{From: from, To: coll}, func(tx *chain.Tx, c *collection.Collection) error {
		return c.UpdateDescription(tx, description)
	})
}

func (e *Engine) AddWhitelist(ctx context.Context, from, coll chain.Address, addrs []chain.Address) error {
	return e.withCollection(ctx, "add-whitelist", chain.Call{From: from, To: coll}, func(tx *chain.Tx, c *collection.Collection) error {
		return c.AddWhitelist(tx, addrs)
	})
}

func (e *Engine) RemoveWhitelist(ctx context.Context, from, coll chain.Address, index uint64, expected chain.Address) error {
	return e.withCollection(ctx, "remove-whitelist", chain.Call{From: from, To: coll}, func(tx *chain.Tx, c *collection.Collection) error {
		return c.RemoveWhitelist(tx, index, expected)
	})
}

func (e *Engine) Approve(ctx context.Context, from, coll, to chain.Address, id uint64) error {
	return e.withCollection(ctx, "approve", chain.Call{From: from, To: coll}, func(tx *chain.Tx, c *collection.Collection) error {
		return c.Approve(tx, to, id)
	})
}

func (e *Engine) SetApprovalForAll(ctx context.Context, from, coll, operator chain.Address, approved bool) error {
	return e.withCollection(ctx, "set-approval-for-all", chain.Call{From: from, To: coll}, func(tx *chain.Tx, c *collection.Collection) error {
		return c.SetApprovalForAll(tx, operator, approved)
	})
}

func (e *Engine) TransferFrom(ctx context.Context, from, coll, owner, to chain.Address, id uint64) error {
	return e.withCollection(ctx, "transfer", chain.Call{From: from, To: coll}, func(tx *chain.Tx, c *collection.Collection) error {
		return c.TransferFrom(tx, owner, to, id)
	})
}

func (e *Engine) TransferOwnership(ctx context.Context, from, coll, newOwner chain.Address) error {
	return e.withCollection(ctx, "transfer-ownership", chain.Call{From: from, To: coll}, func(tx *chain.Tx, c *collection.Collection) error {
		return c.TransferOwnership(tx, newOwner)
	})
}
