package analytics

import (
	"fmt"
	"math"
	"math/bits"
	"sort"

	"rfqpulse/pkg/contracts/domain"
)

// MaxSubsetBidders bounds the coalition enumeration. The search space grows
// as 2^n, so the bound is a hard precondition checked before any work
// starts, not a performance hint.
const MaxSubsetBidders = 20

// SubsetSpaceError reports a request whose bidder count exceeds the
// enumeration bound.
type SubsetSpaceError struct {
	Bidders int
	Limit   int
}

func (e *SubsetSpaceError) Error() string {
	return fmt.Sprintf("subset enumeration rejected: %d bidders exceeds the limit of %d", e.Bidders, e.Limit)
}

// SubsetAward is one item's disposition under a particular coalition.
type SubsetAward struct {
	ItemNumber string             `json:"item_number"`
	AwardedTo  string             `json:"awarded_to,omitempty"`
	Cost       *float64           `json:"cost,omitempty"`
	Covered    bool               `json:"covered"`
	Quotes     map[string]float64 `json:"quotes,omitempty"`
}

// SubsetResult is the best coalition of size K. Uncovered items contribute
// nothing to the total and are listed explicitly: a total that silently
// omitted them would understate the true cost.
type SubsetResult struct {
	K                  int           `json:"k"`
	Bidders            []string      `json:"bidders"`
	TotalCost          float64       `json:"total_cost"`
	CoveredItems       int           `json:"covered_items"`
	UncoveredItems     []string      `json:"uncovered_items,omitempty"`
	SavingsVsSinglePct *float64      `json:"savings_vs_k1_pct,omitempty"`
	SavingsVsPrevPct   *float64      `json:"savings_vs_prev_pct,omitempty"`
	Awards             []SubsetAward `json:"awards"`
}

// OptimizeSubsets enumerates every bidder coalition of every size for one
// solicitation and reports, for each size k, the coalition minimizing total
// cost when every item goes to its cheapest member. Ties break on fewest
// uncovered items, then lexicographically on the sorted bidder names.
func OptimizeSubsets(items []domain.Item, bids []domain.Bid) ([]SubsetResult, error) {
	bidders := distinctBidders(bids)
	n := len(bidders)
	if n == 0 {
		return nil, nil
	}
	if n > MaxSubsetBidders {
		return nil, &SubsetSpaceError{Bidders: n, Limit: MaxSubsetBidders}
	}

	bidderIdx := make(map[string]int, n)
	for i, b := range bidders {
		bidderIdx[b] = i
	}

	// costs[i][j] is bidder j's effective cost for item i, NaN when the
	// bidder did not price it.
	costs := make([][]float64, len(items))
	itemIdx := make(map[int64]int, len(items))
	for i, item := range items {
		itemIdx[item.ID] = i
		costs[i] = make([]float64, n)
		for j := range costs[i] {
			costs[i][j] = math.NaN()
		}
	}
	for _, bid := range bids {
		i, ok := itemIdx[bid.ItemID]
		if !ok {
			continue
		}
		cost, ok := bid.EffectiveCost(items[i].Quantity)
		if !ok || cost < 0 {
			continue
		}
		costs[i][bidderIdx[bid.Bidder]] = cost
	}

	type best struct {
		mask      uint32
		cost      float64
		uncovered int
		found     bool
	}
	bestByK := make([]best, n+1)

	for mask := uint32(1); mask < uint32(1)<<n; mask++ {
		k := bits.OnesCount32(mask)
		total := 0.0
		uncovered := 0
		for i := range items {
			itemMin := math.NaN()
			for j := 0; j < n; j++ {
				if mask&(1<<j) == 0 {
					continue
				}
				c := costs[i][j]
				if math.IsNaN(c) {
					continue
				}
				if math.IsNaN(itemMin) || c < itemMin {
					itemMin = c
				}
			}
			if math.IsNaN(itemMin) {
				uncovered++
			} else {
				total += itemMin
			}
		}

		b := &bestByK[k]
		if !b.found || betterSubset(total, uncovered, mask, b.cost, b.uncovered, b.mask) {
			*b = best{mask: mask, cost: total, uncovered: uncovered, found: true}
		}
	}

	results := make([]SubsetResult, 0, n)
	var baseline float64
	for k := 1; k <= n; k++ {
		b := bestByK[k]
		res := SubsetResult{
			K:            k,
			TotalCost:    b.cost,
			CoveredItems: len(items) - b.uncovered,
		}
		for j := 0; j < n; j++ {
			if b.mask&(1<<j) != 0 {
				res.Bidders = append(res.Bidders, bidders[j])
			}
		}

		for i, item := range items {
			award := SubsetAward{ItemNumber: item.ItemNumber}
			for j := 0; j < n; j++ {
				if b.mask&(1<<j) == 0 || math.IsNaN(costs[i][j]) {
					continue
				}
				if award.Quotes == nil {
					award.Quotes = map[string]float64{}
				}
				award.Quotes[bidders[j]] = costs[i][j]
				if award.Cost == nil || costs[i][j] < *award.Cost {
					award.Cost = domain.Float64(costs[i][j])
					award.AwardedTo = bidders[j]
				}
			}
			award.Covered = award.Cost != nil
			if !award.Covered {
				res.UncoveredItems = append(res.UncoveredItems, item.ItemNumber)
			}
			res.Awards = append(res.Awards, award)
		}

		if k == 1 {
			baseline = b.cost
		} else {
			if baseline > 0 {
				res.SavingsVsSinglePct = domain.Float64((baseline - b.cost) / baseline * 100)
			}
			prev := results[len(results)-1].TotalCost
			if prev > 0 {
				res.SavingsVsPrevPct = domain.Float64((prev - b.cost) / prev * 100)
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// betterSubset applies the tie-break order: lowest cost, then fewest
// uncovered items, then lexicographically smallest sorted member list.
// Bidder indices are assigned in sorted name order, so the mask with the
// lowest set bit at the first difference is the lexicographically smaller
// coalition.
func betterSubset(cost float64, uncovered int, mask uint32, bestCost float64, bestUncovered int, bestMask uint32) bool {
	if cost != bestCost {
		return cost < bestCost
	}
	if uncovered != bestUncovered {
		return uncovered < bestUncovered
	}
	diff := mask ^ bestMask
	if diff == 0 {
		return false
	}
	return mask&(diff&-diff) != 0
}

func distinctBidders(bids []domain.Bid) []string {
	seen := map[string]bool{}
	var names []string
	for _, bid := range bids {
		if !seen[bid.Bidder] {
			seen[bid.Bidder] = true
			names = append(names, bid.Bidder)
		}
	}
	sort.Strings(names)
	return names
}
