package parsing

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	// headerSearchDepth bounds how far down the grid the detector looks for
	// the column-header row.
	headerSearchDepth = 15
	// maxBidderNameLen rejects header-region strings too long to be a
	// company name or abbreviation.
	maxBidderNameLen = 50
	// bidderGroupRadius merges nearby candidate columns into one bidder
	// group; per-bidder groups span five or six columns, so two adjacent
	// candidate columns always belong to the same submitter.
	bidderGroupRadius = 2
)

var (
	phoneLikeRe  = regexp.MustCompile(`^[\d\s.\-()+]+$`)
	bidderColRe  = regexp.MustCompile(`(?i)^(.+?)_(UNIT.?PRICE|UNIT.?COST|TOTAL.?PRICE|EXT.?PRICE|EXT.?COST)$`)
	personNameRe = regexp.MustCompile(`^[A-Z][a-z]+(\s+[A-Z][a-zA-Z]*\.?)+$`)
)

// headerSkipWords are header-region strings that can never be bidder names.
var headerSkipWords = map[string]bool{
	"rfq": true, "none": true, "delivery": true, "weeks": true,
	"manufacturer": true, "comments": true, "vendor comments": true,
	"unit price": true, "total price": true,
}

// DetectLayout inspects a raw cell grid and classifies it into one of the
// three known layout variants, locating the header row, the solicitation
// field columns, and the per-bidder column groups. Unknown signatures are a
// hard failure: the returned error wraps ErrUnknownLayout and callers must
// not attempt extraction. The warnings slice carries non-fatal ambiguities
// (for example a grid with no bidder columns, which is how bid-less
// solicitations arrive).
func DetectLayout(grid [][]string, sheet string) (*Layout, []string, error) {
	if len(grid) == 0 {
		return nil, nil, &ParseError{Sheet: sheet, Err: ErrEmptyGrid}
	}

	headerRow, headerCols := findHeaderRow(grid)
	if headerRow < 0 {
		return nil, nil, &ParseError{Sheet: sheet, Err: fmt.Errorf("%w: no column-header row in first %d rows", ErrUnknownLayout, headerSearchDepth)}
	}

	var layout *Layout
	if hasBidderPrefixedColumns(headerCols) {
		layout = parseVariantB(headerRow, headerCols)
	} else {
		layout = parseStackedHeader(grid, headerRow, headerCols)
	}

	var warnings []string
	if layout.Fields.ItemNumber < 0 {
		warnings = append(warnings, "could not locate item-number column")
	}
	if layout.Fields.Description < 0 {
		warnings = append(warnings, "could not locate description column")
	}
	if layout.Fields.ItemNumber < 0 && layout.Fields.Description < 0 {
		// Neither anchor column resolved: the header row matched on
		// synonyms but the grid carries nothing extractable.
		return nil, nil, &ParseError{Sheet: sheet, Err: fmt.Errorf("%w: header row has no item or description column", ErrUnknownLayout)}
	}
	if len(layout.Bidders) == 0 {
		warnings = append(warnings, "no bidder columns detected; treating sheet as bid-less")
	}

	return layout, warnings, nil
}

// findHeaderRow returns the index and cells of the first row in the search
// window that contains both an item-number and a description label.
func findHeaderRow(grid [][]string) (int, []string) {
	limit := len(grid)
	if limit > headerSearchDepth {
		limit = headerSearchDepth
	}
	for i := 0; i < limit; i++ {
		var hasItem, hasDesc bool
		for _, cell := range grid[i] {
			if matches(cell, itemNumSynonyms) {
				hasItem = true
			}
			if matches(cell, descSynonyms) {
				hasDesc = true
			}
		}
		if hasItem && hasDesc {
			return i, grid[i]
		}
	}
	return -1, nil
}

// hasBidderPrefixedColumns reports whether any header label embeds a bidder
// name as a prefix of a price field, the variant B signature. Both
// underscore-joined (WHITCO_UNIT_PRICE) and space-joined (WHITCO EXT. PRICE)
// forms occur, including the "EXT> PRICE" typo.
func hasBidderPrefixedColumns(headerCols []string) bool {
	for _, h := range headerCols {
		s := strings.TrimSpace(h)
		if s == "" {
			continue
		}
		if bidderColRe.MatchString(s) {
			return true
		}
		words := strings.Fields(strings.ToLower(strings.ReplaceAll(s, ">", ".")))
		if len(words) >= 3 {
			lastTwo := strings.Join(words[len(words)-2:], " ")
			if unitPriceSynonyms[lastTwo] || extPriceSynonyms[lastTwo] {
				return true
			}
		}
	}
	return false
}

// parseVariantB maps a single combined header row. Bidder-prefixed labels
// become bidder groups; the remaining labels map the solicitation fields.
func parseVariantB(headerRow int, headerCols []string) *Layout {
	layout := &Layout{
		Variant:   VariantB,
		HeaderRow: headerRow,
		Fields:    FieldColumns{ItemNumber: -1, Description: -1, Size: -1, Unit: -1, Quantity: -1},
	}

	groups := map[string]*BidderColumns{}
	var order []string

	for col, h := range headerCols {
		s := strings.TrimSpace(h)
		if s == "" {
			continue
		}

		if name, field, ok := splitBidderLabel(s); ok {
			g, seen := groups[name]
			if !seen {
				g = &BidderColumns{Name: name, StartCol: col, UnitPrice: -1, ExtPrice: -1}
				groups[name] = g
				order = append(order, name)
			}
			if field == "unit_price" && g.UnitPrice < 0 {
				g.UnitPrice = col
			} else if field == "ext_price" && g.ExtPrice < 0 {
				g.ExtPrice = col
			}
			continue
		}

		assignField(&layout.Fields, s, col)
	}

	for _, name := range order {
		layout.Bidders = append(layout.Bidders, *groups[name])
	}
	return layout
}

// splitBidderLabel splits a combined BIDDER+field header label into the
// bidder name and the price role it carries.
func splitBidderLabel(label string) (name, field string, ok bool) {
	if m := bidderColRe.FindStringSubmatch(label); m != nil {
		name = strings.ToUpper(strings.Trim(m[1], "_ "))
		raw := strings.ToLower(m[2])
		if strings.Contains(raw, "unit") {
			return name, "unit_price", true
		}
		return name, "ext_price", true
	}

	words := strings.Fields(strings.ReplaceAll(label, ">", "."))
	if len(words) >= 3 {
		lastTwo := strings.ToLower(strings.Join(words[len(words)-2:], " "))
		rest := strings.ToUpper(strings.Join(words[:len(words)-2], " "))
		if unitPriceSynonyms[lastTwo] {
			return rest, "unit_price", true
		}
		if extPriceSynonyms[lastTwo] {
			return rest, "ext_price", true
		}
	}
	return "", "", false
}

// assignField maps one header label onto the solicitation field columns,
// first synonym match wins.
func assignField(fields *FieldColumns, label string, col int) {
	switch {
	case matches(label, itemNumSynonyms) && fields.ItemNumber < 0:
		fields.ItemNumber = col
	case matches(label, descSynonyms) && fields.Description < 0:
		fields.Description = col
	case matches(label, unitSynonyms) && fields.Unit < 0:
		fields.Unit = col
	case matches(label, qtySynonyms) && fields.Quantity < 0:
		fields.Quantity = col
	case matches(label, sizeSynonyms) && fields.Size < 0:
		fields.Size = col
	}
}

// parseStackedHeader handles variants A and C: bidder names sit in the rows
// above the column-header row, and price columns belong to the nearest
// bidder group on or to their left. Variant A carries a dedicated size
// column; variant C does not, which is also what tells them apart.
func parseStackedHeader(grid [][]string, headerRow int, headerCols []string) *Layout {
	layout := &Layout{
		HeaderRow: headerRow,
		Fields:    FieldColumns{ItemNumber: -1, Description: -1, Size: -1, Unit: -1, Quantity: -1},
	}

	type roleCol struct {
		col  int
		role string
	}
	var priceCols []roleCol

	for col, h := range headerCols {
		s := strings.TrimSpace(h)
		if s == "" {
			continue
		}
		switch {
		case unitPriceSynonyms[normCell(s)]:
			priceCols = append(priceCols, roleCol{col, "unit_price"})
		case extPriceSynonyms[normCell(s)]:
			priceCols = append(priceCols, roleCol{col, "ext_price"})
		default:
			assignField(&layout.Fields, s, col)
		}
	}

	if layout.Fields.Size >= 0 {
		layout.Variant = VariantA
	} else {
		layout.Variant = VariantC
	}

	starts := resolveBidderNames(grid, headerRow)
	groups := map[int]*BidderColumns{}
	for _, rc := range priceCols {
		ownerCol := -1
		for _, s := range starts {
			if s.col <= rc.col {
				ownerCol = s.col
			}
		}
		if ownerCol < 0 {
			continue
		}
		g, seen := groups[ownerCol]
		if !seen {
			var name string
			for _, s := range starts {
				if s.col == ownerCol {
					name = s.name
				}
			}
			g = &BidderColumns{Name: name, StartCol: ownerCol, UnitPrice: -1, ExtPrice: -1}
			groups[ownerCol] = g
		}
		if rc.role == "unit_price" && g.UnitPrice < 0 {
			g.UnitPrice = rc.col
		} else if rc.role == "ext_price" && g.ExtPrice < 0 {
			g.ExtPrice = rc.col
		}
	}

	cols := make([]int, 0, len(groups))
	for c := range groups {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	for _, c := range cols {
		layout.Bidders = append(layout.Bidders, *groups[c])
	}
	return layout
}

// bidderCandidate is one header-region string that could be a bidder name.
type bidderCandidate struct {
	row, col int
	name     string
	score    float64
}

type bidderStart struct {
	col  int
	name string
}

// resolveBidderNames scans the rows above the header for bidder-name
// candidates and disambiguates each column group. Company names and the
// contact people under them both look like candidates; the scorer prefers
// the company-abbreviation-like string, and ties go to the topmost row.
func resolveBidderNames(grid [][]string, headerRow int) []bidderStart {
	var candidates []bidderCandidate
	for row := 0; row < headerRow; row++ {
		for col, cell := range grid[row] {
			s := strings.TrimSpace(cell)
			if !plausibleBidderName(s) {
				continue
			}
			candidates = append(candidates, bidderCandidate{
				row:   row,
				col:   col,
				name:  strings.ToUpper(s),
				score: bidderNameScore(s),
			})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// Cluster candidates into column groups, then keep the best-scoring
	// candidate per group.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].col != candidates[j].col {
			return candidates[i].col < candidates[j].col
		}
		return candidates[i].row < candidates[j].row
	})

	var starts []bidderStart
	groupStart := -1
	groupEnd := -1
	var best bidderCandidate
	flush := func() {
		if groupStart >= 0 {
			starts = append(starts, bidderStart{col: groupStart, name: best.name})
		}
	}
	for _, c := range candidates {
		if groupStart < 0 || c.col-groupEnd > bidderGroupRadius {
			flush()
			groupStart, groupEnd, best = c.col, c.col, c
			continue
		}
		groupEnd = c.col
		if c.score > best.score || (c.score == best.score && c.row < best.row) {
			best = c
		}
	}
	flush()
	return starts
}

// plausibleBidderName filters out header-region strings that cannot be a
// bidder: empty cells, phone numbers, e-mail addresses, long addresses and
// known column keywords.
func plausibleBidderName(s string) bool {
	if s == "" || len(s) > maxBidderNameLen {
		return false
	}
	if headerSkipWords[strings.ToLower(s)] {
		return false
	}
	if phoneLikeRe.MatchString(s) {
		return false
	}
	if strings.Contains(s, "@") {
		return false
	}
	return len(strings.Fields(s)) <= 4
}

// bidderNameScore rates how company-abbreviation-like a candidate string
// is. Short strings, all-caps consonant-heavy tokens and the absence of a
// personal-name shape (two capitalized words with lowercase letters) all
// raise the score.
func bidderNameScore(s string) float64 {
	score := 40.0 / float64(len(s)+4)

	if s == strings.ToUpper(s) {
		score += 0.5
	}
	if personNameRe.MatchString(s) {
		score -= 1.0
	}

	var letters, consonants int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch unicode.ToLower(r) {
		case 'a', 'e', 'i', 'o', 'u':
		default:
			consonants++
		}
	}
	if letters > 0 && float64(consonants)/float64(letters) >= 0.6 {
		score += 0.3
	}
	return score
}
