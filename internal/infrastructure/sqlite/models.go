package sqlite

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/factory"
	"github.com/zjrosen/dixel/internal/ledger"
	"github.com/zjrosen/dixel/internal/pixel"
)

// CollectionModel is the row of the collections table. Amounts that may use
// the full uint64 range are stored as decimal text.
type CollectionModel struct {
	Address           string
	Implementation    string
	Factory           string
	Initialized       bool
	Owner             string
	Name              string
	Symbol            string
	Description       string
	Canvas            []byte // pixel.Canvas.Pack
	WhitelistOnly     bool
	Hidden            bool
	MaxSupply         int64
	RoyaltyFraction   int64
	MintingBeginsFrom int64
	MintingCost       string
	NextTokenID       int64
	TotalSupply       int64
}

// EditionModel is one live edition: its palette and its ledger entry.
type EditionModel struct {
	TokenID  int64
	Palette  []byte
	Owner    string
	Approved *string // nullable
}

type FactoryModel struct {
	Address        string
	Owner          string
	Implementation string
	Beneficiary    string
	CreationFee    string
	MintingFee     int64
}

// EventModel is the row of the events table. Attrs is a JSON array.
type EventModel struct {
	Seq     int64
	ID      string
	TxID    string
	Name    string
	Emitter string
	Attrs   string
	Time    int64
}

type attrModel struct {
	Key   string `json:"k"`
	Value string `json:"v"`
}

func toCollectionModel(s collection.State) *CollectionModel {
	return &CollectionModel{
		Address:           s.Address.String(),
		Implementation:    s.Implementation.Address.String(),
		Factory:           s.Factory.String(),
		Initialized:       s.Initialized,
		Owner:             s.Owner.String(),
		Name:              s.Name,
		Symbol:            s.Symbol,
		Description:       s.Description,
		Canvas:            s.Canvas.Pack(),
		WhitelistOnly:     s.Meta.WhitelistOnly,
		Hidden:            s.Meta.Hidden,
		MaxSupply:         int64(s.Meta.MaxSupply),
		RoyaltyFraction:   int64(s.Meta.RoyaltyFraction),
		MintingBeginsFrom: s.Meta.MintingBeginsFrom,
		MintingCost:       formatAmount(s.Meta.MintingCost),
		NextTokenID:       int64(s.NextTokenID),
		TotalSupply:       int64(s.TotalSupply),
	}
}

// toState converts the row back. impls resolves the implementation address.
func (m *CollectionModel) toState(impls map[chain.Address]collection.Implementation) (collection.State, error) {
	var s collection.State
	var err error
	if s.Address, err = chain.ParseAddress(m.Address); err != nil {
		return s, err
	}
	implAddr, err := chain.ParseAddress(m.Implementation)
	if err != nil {
		return s, err
	}
	impl, ok := impls[implAddr]
	if !ok {
		return s, fmt.Errorf("collection %s: unknown implementation %s", m.Address, m.Implementation)
	}
	if s.Factory, err = chain.ParseAddress(m.Factory); err != nil {
		return s, err
	}
	if s.Owner, err = chain.ParseAddress(m.Owner); err != nil {
		return s, err
	}
	if s.Canvas, err = pixel.Unpack(m.Canvas); err != nil {
		return s, fmt.Errorf("collection %s: %w", m.Address, err)
	}
	cost, err := parseAmount(m.MintingCost)
	if err != nil {
		return s, err
	}

	s.Implementation = impl
	s.Initialized = m.Initialized
	s.Name = m.Name
	s.Symbol = m.Symbol
	s.Description = m.Description
	s.Meta = collection.MetaParams{
		WhitelistOnly:     m.WhitelistOnly,
		Hidden:            m.Hidden,
		MaxSupply:         uint64(m.MaxSupply),
		RoyaltyFraction:   uint64(m.RoyaltyFraction),
		MintingBeginsFrom: m.MintingBeginsFrom,
		MintingCost:       cost,
	}
	s.NextTokenID = uint64(m.NextTokenID)
	s.TotalSupply = uint64(m.TotalSupply)
	s.Editions = []collection.Edition{}
	s.Whitelist = []chain.Address{}
	s.Ledger = ledger.State{Tokens: []ledger.TokenOwner{}, Operators: []ledger.Operator{}}
	return s, nil
}

// toEditionModels joins the palettes and the ledger entries of the live editions.
func toEditionModels(s collection.State) []EditionModel {
	owners := make(map[uint64]ledger.TokenOwner, len(s.Ledger.Tokens))
	for _, t := range s.Ledger.Tokens {
		owners[t.TokenID] = t
	}
	out := make([]EditionModel, 0, len(s.Editions))
	for _, e := range s.Editions {
		t, ok := owners[e.ID]
		if !ok {
			continue
		}
		m := EditionModel{
			TokenID: int64(e.ID),
			Palette: packPalette(e.Palette),
			Owner:   t.Owner.String(),
		}
		if !t.Approved.IsZero() {
			approved := t.Approved.String()
			m.Approved = &approved
		}
		out = append(out, m)
	}
	return out
}

func (m *EditionModel) toDomain() (collection.Edition, ledger.TokenOwner, error) {
	palette, err := unpackPalette(m.Palette)
	if err != nil {
		return collection.Edition{}, ledger.TokenOwner{}, fmt.Errorf("edition %d: %w", m.TokenID, err)
	}
	owner, err := chain.ParseAddress(m.Owner)
	if err != nil {
		return collection.Edition{}, ledger.TokenOwner{}, err
	}
	t := ledger.TokenOwner{TokenID: uint64(m.TokenID), Owner: owner}
	if m.Approved != nil {
		if t.Approved, err = chain.ParseAddress(*m.Approved); err != nil {
			return collection.Edition{}, ledger.TokenOwner{}, err
		}
	}
	return collection.Edition{ID: uint64(m.TokenID), Palette: palette, Exists: true}, t, nil
}

func toFactoryModel(s factory.State) *FactoryModel {
	return &FactoryModel{
		Address:        s.Address.String(),
		Owner:          s.Owner.String(),
		Implementation: s.Implementation.Address.String(),
		Beneficiary:    s.Beneficiary.String(),
		CreationFee:    formatAmount(s.CreationFee),
		MintingFee:     int64(s.MintingFee),
	}
}

func (m *FactoryModel) toState(impls map[chain.Address]collection.Implementation) (factory.State, error) {
	var s factory.State
	var err error
	if s.Address, err = chain.ParseAddress(m.Address); err != nil {
		return s, err
	}
	if s.Owner, err = chain.ParseAddress(m.Owner); err != nil {
		return s, err
	}
	if s.Beneficiary, err = chain.ParseAddress(m.Beneficiary); err != nil {
		return s, err
	}
	implAddr, err := chain.ParseAddress(m.Implementation)
	if err != nil {
		return s, err
	}
	impl, ok := impls[implAddr]
	if !ok {
		return s, fmt.Errorf("factory %s: unknown implementation %s", m.Address, m.Implementation)
	}
	if s.CreationFee, err = parseAmount(m.CreationFee); err != nil {
		return s, err
	}
	s.Implementation = impl
	s.MintingFee = uint64(m.MintingFee)
	s.Collections = []chain.Address{}
	return s, nil
}

func toEventModel(ev chain.Event) (*EventModel, error) {
	attrs := make([]attrModel, len(ev.Attrs))
	for i, a := range ev.Attrs {
		attrs[i] = attrModel{Key: a.Key, Value: a.Value}
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event attributes: %w", err)
	}
	return &EventModel{
		ID:      ev.ID,
		TxID:    ev.TxID,
		Name:    ev.Name,
		Emitter: ev.Emitter.String(),
		Attrs:   string(data),
		Time:    ev.Time.Unix(),
	}, nil
}

func (m *EventModel) toDomain() (chain.Event, error) {
	emitter, err := chain.ParseAddress(m.Emitter)
	if err != nil {
		return chain.Event{}, err
	}
	var attrs []attrModel
	if err := json.Unmarshal([]byte(m.Attrs), &attrs); err != nil {
		return chain.Event{}, fmt.Errorf("event %s: %w", m.ID, err)
	}
	ev := chain.Event{
		ID:      m.ID,
		TxID:    m.TxID,
		Name:    m.Name,
		Emitter: emitter,
		Time:    time.Unix(m.Time, 0),
	}
	for _, a := range attrs {
		ev.Attrs = append(ev.Attrs, chain.A(a.Key, a.Value))
	}
	return ev, nil
}

// packPalette stores each color as three bytes, RGB.
func packPalette(p pixel.Palette) []byte {
	out := make([]byte, 0, len(p)*3)
	for _, c := range p {
		r, g, b := c.Components()
		out = append(out, r, g, b)
	}
	return out
}

func unpackPalette(data []byte) (pixel.Palette, error) {
	var p pixel.Palette
	if len(data) != len(p)*3 {
		return p, fmt.Errorf("palette is %d bytes, want %d", len(data), len(p)*3)
	}
	for i := range p {
		p[i] = pixel.RGB(data[i*3], data[i*3+1], data[i*3+2])
	}
	return p, nil
}

func formatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stored amount %q: %w", s, err)
	}
	return v, nil
}
