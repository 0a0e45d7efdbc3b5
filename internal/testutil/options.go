package testutil

import "github.com/zjrosen/dixel/internal/collection"

// factoryData holds the settings of the deployed factory.
type factoryData struct {
	deployer    string
	beneficiary string
	creationFee uint64
	mintingFee  uint64
	externalURL string
}

func defaultFactory() factoryData {
	return factoryData{
		deployer:    "deployer",
		beneficiary: "beneficiary",
		mintingFee:  500,
	}
}

// FactoryOption configures the factory during builder setup.
type FactoryOption func(*factoryData)

// Deployer sets the account that deploys and owns the factory.
func Deployer(label string) FactoryOption {
	return func(f *factoryData) { f.deployer = label }
}

// Beneficiary sets the account receiving platform fees.
func Beneficiary(label string) FactoryOption {
	return func(f *factoryData) { f.beneficiary = label }
}

// CreationFee sets the fee paid per created collection, in wei.
func CreationFee(wei uint64) FactoryOption {
	return func(f *factoryData) { f.creationFee = wei }
}

// MintingFee sets the platform share of every mint, out of 10000.
func MintingFee(fraction uint64) FactoryOption {
	return func(f *factoryData) { f.mintingFee = fraction }
}

// ExternalURL sets the site linked from documents.
func ExternalURL(url string) FactoryOption {
	return func(f *factoryData) { f.externalURL = url }
}

// collectionData holds everything needed to create a collection.
type collectionData struct {
	label       string
	owner       string
	artwork     string
	name        *string
	symbol      *string
	description *string
	meta        []func(*collection.MetaParams)
}

func defaultCollection(label string) collectionData {
	return collectionData{
		label:   label,
		owner:   "creator",
		artwork: "builtin:heart",
	}
}

// CollectionOption configures a collection during builder setup.
type CollectionOption func(*collectionData)

// Owner sets the creating account.
func Owner(label string) CollectionOption {
	return func(c *collectionData) { c.owner = label }
}

// Artwork selects the artwork file or builtin the collection starts from.
func Artwork(ref string) CollectionOption {
	return func(c *collectionData) { c.artwork = ref }
}

func Name(name string) CollectionOption {
	return func(c *collectionData) { c.name = &name }
}

func Symbol(symbol string) CollectionOption {
	return func(c *collectionData) { c.symbol = &symbol }
}

func Description(text string) CollectionOption {
	return func(c *collectionData) { c.description = &text }
}

func withMeta(fn func(*collection.MetaParams)) CollectionOption {
	return func(c *collectionData) { c.meta = append(c.meta, fn) }
}

func MaxSupply(n uint64) CollectionOption {
	return withMeta(func(m *collection.MetaParams) { m.MaxSupply = n })
}

// MintingCost sets the price of one edition, in wei.
func MintingCost(wei uint64) CollectionOption {
	return withMeta(func(m *collection.MetaParams) { m.MintingCost = wei })
}

// Royalty sets the royalty fraction, out of 10000.
func Royalty(fraction uint64) CollectionOption {
	return withMeta(func(m *collection.MetaParams) { m.RoyaltyFraction = fraction })
}

// MintingBeginsFrom sets the sale start in unix seconds.
func MintingBeginsFrom(unix int64) CollectionOption {
	return withMeta(func(m *collection.MetaParams) { m.MintingBeginsFrom = unix })
}

func WhitelistOnly() CollectionOption {
	return withMeta(func(m *collection.MetaParams) { m.WhitelistOnly = true })
}

func Hidden() CollectionOption {
	return withMeta(func(m *collection.MetaParams) { m.Hidden = true })
}

type whitelistData struct {
	collection string
	accounts   []string
}

type mintData struct {
	collection string
	to         string
	count      int
}
