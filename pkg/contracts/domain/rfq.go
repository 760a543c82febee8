package domain

import (
	"math"
	"strings"
	"time"
)

// Solicitation is one request-for-quotation event covering many line items.
// Immutable once loaded; deletion cascades to its items and bids.
type Solicitation struct {
	ID          string    `json:"rfq_id" db:"rfq_id" validate:"required"`
	Creator     string    `json:"creator,omitempty" db:"creator"`
	Station     string    `json:"station,omitempty" db:"station"`
	Project     string    `json:"project,omitempty" db:"project"`
	Date        time.Time `json:"rfq_date" db:"rfq_date"`
	SourceFile  string    `json:"source_file,omitempty" db:"source_file"`
	SheetName   string    `json:"sheet_name,omitempty" db:"sheet_name"`
	IsPotential bool      `json:"is_potential" db:"is_potential"`
	Notes       string    `json:"notes,omitempty" db:"notes"`
	LoadedAt    time.Time `json:"loaded_at,omitempty" db:"loaded_at"`
	ItemCount   int       `json:"item_count,omitempty" db:"-"`
	BidderCount int       `json:"bidder_count,omitempty" db:"-"`
}

// Item is one line item within a solicitation. ItemNumber is the
// submitter-visible number and is unique only within its solicitation.
type Item struct {
	ID             int64    `json:"id" db:"id"`
	SolicitationID string   `json:"rfq_id" db:"rfq_id" validate:"required"`
	ItemNumber     string   `json:"item_number" db:"item_number"`
	ItemType       string   `json:"item_type" db:"item_type"`
	Specification  string   `json:"specification" db:"specification"`
	Size           string   `json:"size,omitempty" db:"size"`
	Unit           string   `json:"unit,omitempty" db:"unit"`
	Quantity       *float64 `json:"quantity,omitempty" db:"quantity" validate:"omitempty,min=0"`
}

// Bidder is a named quoting entity. Names are canonicalized to upper case
// and unique across the whole system.
type Bidder struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name" validate:"required"`
}

// CanonicalBidderName normalizes a raw bidder name for identity comparison.
func CanonicalBidderName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Bid ties one item to one bidder within one solicitation. At most one bid
// exists per (item, bidder) pair. Unit and extended prices are independently
// sourced from the spreadsheet: either may be absent, and when both are
// present they may legitimately disagree with unit price times quantity.
type Bid struct {
	ID             int64    `json:"id" db:"id"`
	SolicitationID string   `json:"rfq_id" db:"rfq_id"`
	ItemID         int64    `json:"item_id" db:"item_id"`
	BidderID       int64    `json:"bidder_id,omitempty" db:"bidder_id"`
	Bidder         string   `json:"bidder" db:"bidder"`
	UnitPrice      *float64 `json:"unit_price,omitempty" db:"unit_price" validate:"omitempty,min=0"`
	ExtPrice       *float64 `json:"ext_price,omitempty" db:"ext_price" validate:"omitempty,min=0"`
}

// HasPrice reports whether the bid carries at least one price figure.
// A bid with neither price is "no quote" and is never persisted.
func (b Bid) HasPrice() bool {
	return b.UnitPrice != nil || b.ExtPrice != nil
}

// EffectiveCost returns the extended price when present, falling back to
// unit price times quantity. The boolean is false when no cost can be
// derived; callers must not treat that as zero.
func (b Bid) EffectiveCost(quantity *float64) (float64, bool) {
	if b.ExtPrice != nil {
		return *b.ExtPrice, true
	}
	if b.UnitPrice != nil {
		qty := 1.0
		if quantity != nil {
			qty = *quantity
		}
		return *b.UnitPrice * qty, true
	}
	return 0, false
}

// PriceConsistent reports whether extended price agrees with unit price
// times quantity within tolerance. Bids missing either operand are
// vacuously consistent: the two figures are independently reported and
// absence is not disagreement.
func (b Bid) PriceConsistent(quantity *float64, tolerance float64) bool {
	if b.UnitPrice == nil || b.ExtPrice == nil || quantity == nil {
		return true
	}
	return math.Abs(*b.UnitPrice**quantity-*b.ExtPrice) <= tolerance
}

// Float64 returns a pointer to v. Convenience for building records whose
// numeric fields distinguish absent from zero.
func Float64(v float64) *float64 {
	return &v
}
