package parsing

import (
	"errors"
	"fmt"
	"strings"
)

// Variant identifies one of the three known sheet layout conventions.
type Variant string

const (
	// VariantA is a stacked multi-row header: bidder names in the rows above
	// a separate column-header row, with a dedicated SIZE column and
	// per-bidder groups like DELIVERY / WEEKS / UNIT PRICE / TOTAL PRICE.
	VariantA Variant = "A"
	// VariantB is a single combined header row whose per-bidder columns
	// embed the bidder name as a prefix, e.g. WHITCO_UNIT_PRICE.
	VariantB Variant = "B"
	// VariantC is a two-row header: bidder names in the top row at each
	// group's starting column, field labels in the second row, and no
	// dedicated size column (size stays inside the specification text).
	VariantC Variant = "C"
)

// Classification and extraction failure modes. ErrUnknownLayout is fatal for
// the whole file: no row extraction is attempted on an unclassified grid.
var (
	ErrEmptyGrid     = errors.New("sheet grid is empty")
	ErrUnknownLayout = errors.New("no known layout signature matches")
)

// ParseError is a format-detection failure for one sheet.
type ParseError struct {
	Sheet string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sheet %q: %v", e.Sheet, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FieldColumns holds the column index of each solicitation-level field.
// A value of -1 means the layout does not carry that field.
type FieldColumns struct {
	ItemNumber  int
	Description int
	Size        int
	Unit        int
	Quantity    int
}

// BidderColumns is one bidder's column group. StartCol is the leftmost
// column the group claims; price columns are -1 when the group lacks them.
type BidderColumns struct {
	Name      string
	StartCol  int
	UnitPrice int
	ExtPrice  int
}

// Layout is a detected sheet layout: which variant the grid follows, where
// the header row sits, and where every field and bidder group lives.
type Layout struct {
	Variant   Variant
	HeaderRow int
	Fields    FieldColumns
	Bidders   []BidderColumns
}

// Header label synonym sets, all lower-cased for matching. Collected from
// the observed submitter conventions.
var (
	unitPriceSynonyms = map[string]bool{
		"unit price": true, "unit cost": true, "unit_price": true,
		"unit_cost": true, "unitprice": true,
	}
	extPriceSynonyms = map[string]bool{
		"total price": true, "ext. price": true, "ext price": true,
		"extended price": true, "ext. cost": true, "ext cost": true,
		"extended cost": true, "total_price": true, "ext_price": true,
		"ext_cost": true, "totalprice": true, "extprice": true,
	}
	itemNumSynonyms = map[string]bool{
		"item #": true, "item#": true, "item no": true, "item no.": true,
		"item number": true, "line no": true, "line no.": true,
	}
	descSynonyms = map[string]bool{"description": true, "desc": true}
	unitSynonyms = map[string]bool{
		"unit": true, "units": true, "unit of measure": true, "uom": true,
	}
	qtySynonyms = map[string]bool{
		"qty quoted": true, "qty": true, "quantity": true, "units quoted": true,
	}
	sizeSynonyms = map[string]bool{"size": true}
)

// normCell lower-cases and trims a cell value for synonym matching.
func normCell(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func matches(v string, synonyms map[string]bool) bool {
	return synonyms[normCell(v)]
}
