package analytics

import (
	"math"
	"sort"

	"rfqpulse/pkg/contracts/domain"
)

// VarianceState classifies how an item's price-spread figure came out.
type VarianceState string

const (
	// VarianceOK means the coefficient of variation was computed.
	VarianceOK VarianceState = "ok"
	// VarianceUndefined marks a zero-mean item: the CV has no meaning there
	// and must not be misread as a real figure.
	VarianceUndefined VarianceState = "undefined"
	// VarianceInsufficient marks an item with fewer than two priced bids.
	VarianceInsufficient VarianceState = "insufficient_data"
)

// ItemVariance is the price-spread report for one item.
type ItemVariance struct {
	Item     domain.Item   `json:"item"`
	State    VarianceState `json:"state"`
	BidCount int           `json:"bid_count"`
	Min      float64       `json:"min_price,omitempty"`
	Max      float64       `json:"max_price,omitempty"`
	Mean     float64       `json:"mean_price,omitempty"`
	StdDev   float64       `json:"stdev,omitempty"`
	CV       *float64      `json:"cv,omitempty"`
	Bidders  []string      `json:"bidders,omitempty"`
	Prices   []float64     `json:"prices,omitempty"`
}

// PriceVariance computes the population coefficient of variation of unit
// prices for every item, ordered by descending CV so the most
// price-divergent items surface first. Items that cannot produce a CV are
// still reported, carrying an explicit state instead of a numeric sentinel.
func PriceVariance(items []domain.Item, bids []domain.Bid) []ItemVariance {
	byItem := groupBidsByItem(bids)

	results := make([]ItemVariance, 0, len(items))
	for _, item := range items {
		iv := ItemVariance{Item: item}
		for _, bid := range byItem[item.ID] {
			if bid.UnitPrice == nil {
				continue
			}
			iv.Prices = append(iv.Prices, *bid.UnitPrice)
			iv.Bidders = append(iv.Bidders, bid.Bidder)
		}
		iv.BidCount = len(iv.Prices)

		if iv.BidCount < 2 {
			iv.State = VarianceInsufficient
			results = append(results, iv)
			continue
		}

		iv.Min, iv.Max = iv.Prices[0], iv.Prices[0]
		var sum float64
		for _, p := range iv.Prices {
			sum += p
			iv.Min = math.Min(iv.Min, p)
			iv.Max = math.Max(iv.Max, p)
		}
		iv.Mean = sum / float64(iv.BidCount)

		var sqDiff float64
		for _, p := range iv.Prices {
			sqDiff += (p - iv.Mean) * (p - iv.Mean)
		}
		iv.StdDev = math.Sqrt(sqDiff / float64(iv.BidCount))

		if iv.Mean == 0 {
			iv.State = VarianceUndefined
		} else {
			iv.State = VarianceOK
			iv.CV = domain.Float64(iv.StdDev / iv.Mean)
		}
		results = append(results, iv)
	}

	sort.SliceStable(results, func(i, j int) bool {
		ci, cj := results[i].CV, results[j].CV
		switch {
		case ci != nil && cj != nil:
			return *ci > *cj
		case ci != nil:
			return true
		default:
			return false
		}
	})
	return results
}
