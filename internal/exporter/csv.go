// Package exporter renders loaded solicitations as CSV for spreadsheet
// consumers. Output carries a UTF-8 BOM so Excel opens it correctly.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"rfqpulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter streams bid-matrix exports.
type CSVWriter struct {
	// IncludeBOM prepends the UTF-8 byte order mark. On by default through
	// NewCSVWriter; Excel misreads multibyte characters without it.
	IncludeBOM bool
}

// NewCSVWriter creates a CSV writer with Excel-friendly defaults.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{IncludeBOM: true}
}

// WriteBidMatrix writes one solicitation as a matrix: one row per item,
// fixed item columns followed by a unit/ext price pair per bidder. Bidders
// are ordered alphabetically so repeated exports of the same data diff
// cleanly. Absent prices are left as empty cells, never zero.
func (w *CSVWriter) WriteBidMatrix(out io.Writer, sol domain.Solicitation, items []domain.Item, bids []domain.Bid) error {
	if w.IncludeBOM {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	bidders := bidderNames(bids)
	byItem := make(map[int64]map[string]domain.Bid, len(items))
	for _, b := range bids {
		m, ok := byItem[b.ItemID]
		if !ok {
			m = make(map[string]domain.Bid)
			byItem[b.ItemID] = m
		}
		m[b.Bidder] = b
	}

	cw := csv.NewWriter(out)

	header := []string{"RFQ_ID", "ITEM_NUMBER", "ITEM_TYPE", "SPECIFICATION", "SIZE", "UNIT", "QUANTITY"}
	for _, name := range bidders {
		header = append(header, name+" UNIT_PRICE", name+" EXT_PRICE")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, item := range items {
		row := []string{
			sol.ID,
			item.ItemNumber,
			item.ItemType,
			item.Specification,
			item.Size,
			item.Unit,
			formatFloat(item.Quantity),
		}
		for _, name := range bidders {
			bid, ok := byItem[item.ID][name]
			if !ok {
				row = append(row, "", "")
				continue
			}
			row = append(row, formatFloat(bid.UnitPrice), formatFloat(bid.ExtPrice))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write item %s: %w", item.ItemNumber, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func bidderNames(bids []domain.Bid) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, b := range bids {
		if _, ok := seen[b.Bidder]; ok {
			continue
		}
		seen[b.Bidder] = struct{}{}
		names = append(names, b.Bidder)
	}
	sort.Strings(names)
	return names
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
