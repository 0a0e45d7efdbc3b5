package presentation

import (
	"time"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/engine"
	"github.com/zjrosen/dixel/internal/factory"
)

// CollectionDTO represents a collection for presentation
type CollectionDTO struct {
	Address           string   `json:"address"`
	Name              string   `json:"name"`
	Symbol            string   `json:"symbol"`
	Description       string   `json:"description"`
	Owner             string   `json:"owner"`
	Factory           string   `json:"factory"`
	Version           uint64   `json:"version"`
	WhitelistOnly     bool     `json:"whitelist_only"`
	Hidden            bool     `json:"hidden"`
	MaxSupply         uint64   `json:"max_supply"`
	TotalSupply       uint64   `json:"total_supply"`
	NextTokenID       uint64   `json:"next_token_id"`
	RoyaltyFraction   uint64   `json:"royalty_fraction"`
	MintingBeginsFrom int64    `json:"minting_begins_from"`
	MintingCost       string   `json:"minting_cost"` // decimal wei
	CoverPalette      []string `json:"cover_palette"`
}

// FromCollection converts a collection to a DTO.
func FromCollection(c *collection.Collection) CollectionDTO {
	meta := c.MetaData()
	list := c.ListData()
	return CollectionDTO{
		Address:           c.Address().String(),
		Name:              meta.Name,
		Symbol:            meta.Symbol,
		Description:       meta.Description,
		Owner:             c.Owner().String(),
		Factory:           c.Factory().String(),
		Version:           c.Version(),
		WhitelistOnly:     meta.WhitelistOnly,
		Hidden:            meta.Hidden,
		MaxSupply:         meta.MaxSupply,
		TotalSupply:       meta.TotalSupply,
		NextTokenID:       meta.NextTokenID,
		RoyaltyFraction:   meta.RoyaltyFraction,
		MintingBeginsFrom: meta.MintingBeginsFrom,
		MintingCost:       formatWei(meta.MintingCost),
		CoverPalette:      list.CoverPalette.Strings(),
	}
}

// ListingDTO is one line of `dixel collections list`.
type ListingDTO struct {
	Index   uint64 `json:"index"`
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	Version uint64 `json:"version"`
	Hidden  bool   `json:"hidden"`
}

func FromListData(index uint64, l collection.ListData) ListingDTO {
	return ListingDTO{
		Index:   index,
		Address: l.Address.String(),
		Name:    l.Name,
		Symbol:  l.Symbol,
		Version: l.Version,
		Hidden:  l.Hidden,
	}
}

// FactoryDTO represents a factory and its fee settings.
type FactoryDTO struct {
	Address         string `json:"address"`
	Owner           string `json:"owner"`
	Implementation  string `json:"implementation"`
	Version         uint64 `json:"version"`
	Beneficiary     string `json:"beneficiary"`
	CreationFee     string `json:"creation_fee"`
	MintingFee      uint64 `json:"minting_fee"`
	CollectionCount uint64 `json:"collection_count"`
	Default         bool   `json:"default"`
}

func FromFactory(f *factory.Factory, isDefault bool) FactoryDTO {
	impl := f.Implementation()
	return FactoryDTO{
		Address:         f.Address().String(),
		Owner:           f.Owner().String(),
		Implementation:  impl.Address.String(),
		Version:         impl.Version,
		Beneficiary:     f.Beneficiary().String(),
		CreationFee:     formatWei(f.CreationFee()),
		MintingFee:      f.MintingFee(),
		CollectionCount: f.CollectionCount(),
		Default:         isDefault,
	}
}

// ImplementationDTO represents a published implementation.
type ImplementationDTO struct {
	Address     string `json:"address"`
	Version     uint64 `json:"version"`
	ExternalURL string `json:"external_url"`
}

func FromImplementation(i collection.Implementation) ImplementationDTO {
	return ImplementationDTO{
		Address:     i.Address.String(),
		Version:     i.Version,
		ExternalURL: i.ExternalURL,
	}
}

// EventDTO represents a persisted event.
type EventDTO struct {
	Seq     int64     `json:"seq"`
	ID      string    `json:"id"`
	TxID    string    `json:"tx_id"`
	Name    string    `json:"name"`
	Emitter string    `json:"emitter"`
	Attrs   []AttrDTO `json:"attrs"`
	Time    time.Time `json:"time"`
}

type AttrDTO struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func FromStoredEvent(ev engine.StoredEvent) EventDTO {
	attrs := make([]AttrDTO, len(ev.Attrs))
	for i, a := range ev.Attrs {
		attrs[i] = AttrDTO{Key: a.Key, Value: a.Value}
	}
	return EventDTO{
		Seq:     ev.Seq,
		ID:      ev.ID,
		TxID:    ev.TxID,
		Name:    ev.Name,
		Emitter: ev.Emitter.String(),
		Attrs:   attrs,
		Time:    ev.Time.UTC(),
	}
}

// WhitelistDTO is a page of whitelist entries.
type WhitelistDTO struct {
	Collection string   `json:"collection"`
	Count      uint64   `json:"count"`
	Offset     uint64   `json:"offset"`
	Entries    []string `json:"entries"`
}

func FromWhitelistPage(c *collection.Collection, offset uint64, page []chain.Address) WhitelistDTO {
	entries := make([]string, len(page))
	for i, a := range page {
		entries[i] = a.String()
	}
	return WhitelistDTO{
		Collection: c.Address().String(),
		Count:      c.GetWhitelistCount(),
		Offset:     offset,
		Entries:    entries,
	}
}
