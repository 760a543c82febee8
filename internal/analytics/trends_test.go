package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func trendQuotes() []Quote {
	return []Quote{
		{SolicitationID: "R3", Date: day(2025, 6, 1), ItemType: "PIPE", Specification: "SMLS, SCH 40", Bidder: "EDGEN", UnitPrice: 12},
		{SolicitationID: "R1", Date: day(2024, 1, 15), ItemType: "PIPE", Specification: "SMLS, SCH 40", Bidder: "EDGEN", UnitPrice: 10},
		{SolicitationID: "R2", Date: day(2024, 8, 1), ItemType: "GASKET", Specification: "SPL WND", Bidder: "WHITCO", UnitPrice: 4},
		{SolicitationID: "R2", Date: day(2024, 8, 1), ItemType: "PIPE", Specification: "ERW, SCH 80", Bidder: "WHITCO", UnitPrice: 13},
	}
}

func TestPriceTrendsOrdering(t *testing.T) {
	out := PriceTrends(trendQuotes(), TrendFilter{})
	require.Len(t, out, 4)

	// Date ascending, then item type, then specification.
	assert.Equal(t, "R1", out[0].SolicitationID)
	assert.Equal(t, "GASKET", out[1].ItemType)
	assert.Equal(t, "PIPE", out[2].ItemType)
	assert.Equal(t, "R3", out[3].SolicitationID)
}

func TestPriceTrendsTypeFilter(t *testing.T) {
	out := PriceTrends(trendQuotes(), TrendFilter{ItemType: "pipe"})
	require.Len(t, out, 3)
	for _, q := range out {
		assert.Equal(t, "PIPE", q.ItemType)
	}
}

func TestPriceTrendsDescriptionFilter(t *testing.T) {
	out := PriceTrends(trendQuotes(), TrendFilter{DescriptionLike: "sch 40"})
	require.Len(t, out, 2)
	for _, q := range out {
		assert.Contains(t, q.Specification, "SCH 40")
	}
}

func TestBidderPatterns(t *testing.T) {
	patterns := BidderPatterns(trendQuotes())
	require.Len(t, patterns, 3)

	// Ordered by item type, then ascending average unit price.
	assert.Equal(t, "GASKET", patterns[0].ItemType)

	edgen := patterns[1]
	whitco := patterns[2]
	assert.Equal(t, "EDGEN", edgen.Bidder)
	assert.Equal(t, 2, edgen.BidCount)
	assert.InDelta(t, 11.0, edgen.AvgUnitPrice, 1e-9)
	assert.InDelta(t, 10.0, edgen.MinUnitPrice, 1e-9)
	assert.InDelta(t, 10.0, edgen.MarketMin, 1e-9)
	assert.InDelta(t, 10.0, edgen.VsMarketMinPct, 1e-9)

	assert.Equal(t, "WHITCO", whitco.Bidder)
	assert.InDelta(t, 10.0, whitco.MarketMin, 1e-9)
	assert.InDelta(t, 30.0, whitco.VsMarketMinPct, 1e-9)
}

func TestBidderPatternsSkipsNonPositivePrices(t *testing.T) {
	patterns := BidderPatterns([]Quote{
		{ItemType: "PIPE", Bidder: "EDGEN", UnitPrice: 0},
		{ItemType: "PIPE", Bidder: "EDGEN", UnitPrice: -5},
	})
	assert.Empty(t, patterns)
}
