package parsing

import (
	"sort"
	"strconv"
	"strings"

	"rfqpulse/pkg/contracts/domain"
)

// ExtractedBid is one bidder's quotation for one extracted item, before the
// persistence layer has assigned identifiers. ItemIndex points into
// Result.Items. A nil price means the cell was absent or non-numeric; it is
// never defaulted to zero.
type ExtractedBid struct {
	ItemIndex int      `json:"item_index"`
	Bidder    string   `json:"bidder"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	ExtPrice  *float64 `json:"ext_price,omitempty"`
}

// Result is the complete normalized record set for one sheet. The parser
// never partially commits: callers get either a Result or an error.
type Result struct {
	Variant  Variant        `json:"format"`
	Sheet    string         `json:"sheet"`
	Bidders  []string       `json:"bidders"`
	Items    []domain.Item  `json:"items"`
	Bids     []ExtractedBid `json:"bids"`
	Warnings []string       `json:"warnings,omitempty"`
}

// DetectAndExtract classifies a raw cell grid and extracts its normalized
// item and bid records in one step. A classification failure is fatal for
// the grid; malformed individual rows are skipped and reported through
// Result.Warnings.
func DetectAndExtract(grid [][]string, sheet string) (*Result, error) {
	layout, warnings, err := DetectLayout(grid, sheet)
	if err != nil {
		return nil, err
	}
	result := ExtractRecords(grid, layout)
	result.Sheet = sheet
	result.Warnings = append(warnings, result.Warnings...)
	return result, nil
}

// ExtractRecords walks the data rows below the detected header region and
// emits one item per retained row plus one bid per bidder group that quoted
// it. A row whose item-number and description cells are both empty is a
// blank or spacer row and is skipped without complaint.
func ExtractRecords(grid [][]string, layout *Layout) *Result {
	result := &Result{Variant: layout.Variant}

	names := map[string]bool{}
	for _, g := range layout.Bidders {
		names[domain.CanonicalBidderName(g.Name)] = true
	}
	for n := range names {
		result.Bidders = append(result.Bidders, n)
	}
	sort.Strings(result.Bidders)

	for row := layout.HeaderRow + 1; row < len(grid); row++ {
		cells := grid[row]
		itemNumber := cellAt(cells, layout.Fields.ItemNumber)
		description := cellAt(cells, layout.Fields.Description)
		if itemNumber == "" && description == "" {
			continue
		}

		itemType, spec := SplitDescription(description)
		item := domain.Item{
			ItemNumber:    itemNumber,
			ItemType:      itemType,
			Specification: spec,
			Size:          cellAt(cells, layout.Fields.Size),
			Unit:          strings.ToUpper(cellAt(cells, layout.Fields.Unit)),
			Quantity:      parsePrice(cellAt(cells, layout.Fields.Quantity)),
		}
		result.Items = append(result.Items, item)
		itemIndex := len(result.Items) - 1

		for _, g := range layout.Bidders {
			bid := ExtractedBid{
				ItemIndex: itemIndex,
				Bidder:    domain.CanonicalBidderName(g.Name),
				UnitPrice: parsePrice(cellAt(cells, g.UnitPrice)),
				ExtPrice:  parsePrice(cellAt(cells, g.ExtPrice)),
			}
			if bid.UnitPrice == nil && bid.ExtPrice == nil {
				continue // bidder skipped this line
			}
			result.Bids = append(result.Bids, bid)
		}
	}

	return result
}

func cellAt(cells []string, col int) string {
	if col < 0 || col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}

// parsePrice parses a numeric cell, tolerating currency symbols and
// thousands separators. Non-numeric text such as "N/A" or "TBD" yields nil,
// never zero: an absent figure must stay distinguishable from a free item.
func parsePrice(cell string) *float64 {
	if cell == "" {
		return nil
	}
	cleaned := strings.TrimSpace(strings.NewReplacer(",", "", "$", "").Replace(cell))
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}
