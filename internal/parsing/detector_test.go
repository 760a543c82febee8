package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stackedGrid is a variant A sheet: bidder names (and their contact people)
// above a dedicated column-header row that includes a SIZE column.
func stackedGrid() [][]string {
	return [][]string{
		{"REQUEST FOR QUOTE", "", "", "", "", "", "", "", "", ""},
		{"", "", "", "", "", "EDGEN", "", "", "WHITCO", ""},
		{"", "", "", "", "", "Liana Biondolilo", "", "", "John Q. Smith", ""},
		{"ITEM #", "DESCRIPTION", "SIZE", "UNIT", "QTY QUOTED", "UNIT PRICE", "TOTAL PRICE", "", "UNIT PRICE", "TOTAL PRICE"},
		{"1", "PIPE, SMLS, SCH 40", "2\"", "FT", "100", "10.50", "1050.00", "", "11.00", "1100.00"},
		{"2", "GASKET SPL WND", "3\"", "EA", "20", "N/A", "", "", "4.25", "85.00"},
		{"", "", "", "", "", "", "", "", "", ""},
		{"3", "FLANGE, WN, 150#", "4\"", "EA", "", "33.10", "", "", "", ""},
	}
}

// prefixedGrid is a variant B sheet: one combined header row whose price
// columns embed the bidder name.
func prefixedGrid() [][]string {
	return [][]string{
		{"RFQ ME0003", "", "", "", "", "", "", ""},
		{"ITEM #", "DESCRIPTION", "SIZE", "UNIT", "QTY", "WHITCO_UNIT_PRICE", "WHITCO_TOTAL_PRICE", "MRC GLOBAL UNIT PRICE"},
		{"1", "PIPE, SMLS, NPS 2", "2\"", "FT", "50", "$1,234.50", "61725.00", "1300"},
	}
}

// twoRowGrid is a variant C sheet: bidder names in the row directly above
// the field labels and no dedicated size column.
func twoRowGrid() [][]string {
	return [][]string{
		{"", "", "", "", "SUNBELT", "", "", "EDGEN", ""},
		{"ITEM NO.", "DESCRIPTION", "QTY", "UNIT", "UNIT PRICE", "EXT. PRICE", "", "UNIT PRICE", "EXT. PRICE"},
		{"1", "VALVE, GATE, 150#", "4", "EA", "410.00", "1640.00", "", "395.00", "1580.00"},
	}
}

func TestDetectLayoutVariantA(t *testing.T) {
	layout, warnings, err := DetectLayout(stackedGrid(), "Sheet1")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, VariantA, layout.Variant)
	assert.Equal(t, 3, layout.HeaderRow)
	assert.Equal(t, 0, layout.Fields.ItemNumber)
	assert.Equal(t, 1, layout.Fields.Description)
	assert.Equal(t, 2, layout.Fields.Size)
	assert.Equal(t, 3, layout.Fields.Unit)
	assert.Equal(t, 4, layout.Fields.Quantity)

	require.Len(t, layout.Bidders, 2)
	assert.Equal(t, "EDGEN", layout.Bidders[0].Name)
	assert.Equal(t, 5, layout.Bidders[0].UnitPrice)
	assert.Equal(t, 6, layout.Bidders[0].ExtPrice)
	assert.Equal(t, "WHITCO", layout.Bidders[1].Name)
	assert.Equal(t, 8, layout.Bidders[1].UnitPrice)
	assert.Equal(t, 9, layout.Bidders[1].ExtPrice)
}

func TestDetectLayoutVariantB(t *testing.T) {
	layout, warnings, err := DetectLayout(prefixedGrid(), "Sheet1")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, VariantB, layout.Variant)
	assert.Equal(t, 1, layout.HeaderRow)

	require.Len(t, layout.Bidders, 2)
	assert.Equal(t, "WHITCO", layout.Bidders[0].Name)
	assert.Equal(t, 5, layout.Bidders[0].UnitPrice)
	assert.Equal(t, 6, layout.Bidders[0].ExtPrice)
	assert.Equal(t, "MRC GLOBAL", layout.Bidders[1].Name)
	assert.Equal(t, 7, layout.Bidders[1].UnitPrice)
	assert.Equal(t, -1, layout.Bidders[1].ExtPrice)
}

func TestDetectLayoutVariantC(t *testing.T) {
	layout, warnings, err := DetectLayout(twoRowGrid(), "Sheet1")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, VariantC, layout.Variant)
	assert.Equal(t, -1, layout.Fields.Size, "variant C has no size column")

	require.Len(t, layout.Bidders, 2)
	assert.Equal(t, "SUNBELT", layout.Bidders[0].Name)
	assert.Equal(t, "EDGEN", layout.Bidders[1].Name)
}

func TestDetectLayoutBidderNameBeatsContactPerson(t *testing.T) {
	// The contact person sits directly under the company abbreviation in the
	// same column group; the short all-caps abbreviation must win.
	layout, _, err := DetectLayout(stackedGrid(), "Sheet1")
	require.NoError(t, err)

	names := make([]string, 0, len(layout.Bidders))
	for _, b := range layout.Bidders {
		names = append(names, b.Name)
	}
	assert.NotContains(t, names, "LIANA BIONDOLILO")
	assert.NotContains(t, names, "JOHN Q. SMITH")
	assert.Contains(t, names, "EDGEN")
}

func TestDetectLayoutUnknownSignature(t *testing.T) {
	grid := [][]string{
		{"quarterly totals", "east", "west"},
		{"Q1", "100", "200"},
		{"Q2", "150", "250"},
	}
	_, _, err := DetectLayout(grid, "Sheet1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownLayout)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "Sheet1", parseErr.Sheet)
}

func TestDetectLayoutEmptyGrid(t *testing.T) {
	_, _, err := DetectLayout(nil, "Sheet1")
	assert.ErrorIs(t, err, ErrEmptyGrid)
}

func TestDetectLayoutBidlessSheet(t *testing.T) {
	grid := [][]string{
		{"ITEM #", "DESCRIPTION", "SIZE", "UNIT", "QTY"},
		{"1", "PIPE, SMLS", "2\"", "FT", "100"},
	}
	layout, warnings, err := DetectLayout(grid, "Sheet1")
	require.NoError(t, err, "bid-less sheets are valid, not a detection failure")
	assert.Empty(t, layout.Bidders)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "bid-less")
}

func TestBidderNameScore(t *testing.T) {
	abbrev := bidderNameScore("EDGEN")
	person := bidderNameScore("Liana Biondolilo")
	assert.Greater(t, abbrev, person)

	// Longer all-caps company names still beat person names.
	assert.Greater(t, bidderNameScore("MRC GLOBAL"), bidderNameScore("Robert Paulson"))
}

func TestPlausibleBidderName(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"EDGEN", true},
		{"MRC GLOBAL", true},
		{"", false},
		{"713-555-0142", false},
		{"sales@edgen.example.com", false},
		{"unit price", false},
		{"delivery", false},
		{"one two three four five", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, plausibleBidderName(tt.input), "input %q", tt.input)
	}
}
