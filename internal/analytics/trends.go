package analytics

import (
	"sort"
	"strings"
	"time"
)

// Quote is one priced historical quotation joined across solicitation, item
// and bid. The persistence collaborator supplies these; trend, pattern and
// estimation analyses consume them.
type Quote struct {
	SolicitationID string    `json:"rfq_id"`
	Station        string    `json:"station,omitempty"`
	Date           time.Time `json:"rfq_date"`
	ItemType       string    `json:"item_type"`
	Specification  string    `json:"specification"`
	Size           string    `json:"size,omitempty"`
	Unit           string    `json:"unit,omitempty"`
	Quantity       *float64  `json:"quantity,omitempty"`
	Bidder         string    `json:"bidder"`
	UnitPrice      float64   `json:"unit_price"`
	ExtPrice       *float64  `json:"ext_price,omitempty"`
}

// TrendFilter narrows the trend aggregation. Zero values match everything.
type TrendFilter struct {
	ItemType        string
	DescriptionLike string
}

// PriceTrends aggregates unit prices across all solicitations, ordered by
// solicitation date then item type then specification, exposing price
// movement over time. Pure grouping, no optimization.
func PriceTrends(quotes []Quote, filter TrendFilter) []Quote {
	wantType := strings.ToUpper(strings.TrimSpace(filter.ItemType))
	wantLike := strings.ToUpper(strings.TrimSpace(filter.DescriptionLike))

	out := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		if wantType != "" && q.ItemType != wantType {
			continue
		}
		if wantLike != "" &&
			!strings.Contains(strings.ToUpper(q.Specification), wantLike) &&
			!strings.Contains(q.ItemType, wantLike) {
			continue
		}
		out = append(out, q)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].ItemType != out[j].ItemType {
			return out[i].ItemType < out[j].ItemType
		}
		return out[i].Specification < out[j].Specification
	})
	return out
}

// BidderPattern is one bidder's pricing tendency for one item type,
// measured against the cheapest quote anyone made for that type.
type BidderPattern struct {
	ItemType        string  `json:"item_type"`
	Bidder          string  `json:"bidder"`
	BidCount        int     `json:"bid_count"`
	AvgUnitPrice    float64 `json:"avg_unit_price"`
	MinUnitPrice    float64 `json:"min_unit_price"`
	MarketMin       float64 `json:"market_min"`
	VsMarketMinPct  float64 `json:"vs_market_min_pct"`
}

// BidderPatterns aggregates unit prices by item type and bidder across all
// solicitations, reporting each bidder's average against the market minimum
// for the type. Ordered by item type, then ascending average price.
func BidderPatterns(quotes []Quote) []BidderPattern {
	type key struct{ itemType, bidder string }
	type acc struct {
		count int
		sum   float64
		min   float64
	}

	groups := map[key]*acc{}
	marketMin := map[string]float64{}

	for _, q := range quotes {
		if q.UnitPrice <= 0 {
			continue
		}
		k := key{q.ItemType, q.Bidder}
		a, seen := groups[k]
		if !seen {
			a = &acc{min: q.UnitPrice}
			groups[k] = a
		}
		a.count++
		a.sum += q.UnitPrice
		if q.UnitPrice < a.min {
			a.min = q.UnitPrice
		}
		if m, ok := marketMin[q.ItemType]; !ok || q.UnitPrice < m {
			marketMin[q.ItemType] = q.UnitPrice
		}
	}

	patterns := make([]BidderPattern, 0, len(groups))
	for k, a := range groups {
		p := BidderPattern{
			ItemType:     k.itemType,
			Bidder:       k.bidder,
			BidCount:     a.count,
			AvgUnitPrice: a.sum / float64(a.count),
			MinUnitPrice: a.min,
			MarketMin:    marketMin[k.itemType],
		}
		if p.MarketMin > 0 {
			p.VsMarketMinPct = (p.AvgUnitPrice - p.MarketMin) / p.MarketMin * 100
		}
		patterns = append(patterns, p)
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].ItemType != patterns[j].ItemType {
			return patterns[i].ItemType < patterns[j].ItemType
		}
		return patterns[i].AvgUnitPrice < patterns[j].AvgUnitPrice
	})
	return patterns
}
