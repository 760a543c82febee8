package analytics

import (
	"sort"

	"rfqpulse/pkg/contracts/domain"
)

// ItemQuote is one bidder's quote on one item, costed for comparison. Cost
// is nil when neither price could produce a figure.
type ItemQuote struct {
	Bidder    string   `json:"bidder"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	ExtPrice  *float64 `json:"ext_price,omitempty"`
	Cost      *float64 `json:"cost,omitempty"`
}

// ItemAward is the cheapest way to award a single item across all bidders,
// together with the full quote matrix for that item.
type ItemAward struct {
	Item        domain.Item `json:"item"`
	Bidder      string      `json:"bidder,omitempty"`
	Cost        *float64    `json:"cost,omitempty"`
	Unawardable bool        `json:"unawardable"`
	Quotes      []ItemQuote `json:"quotes,omitempty"`
}

// BidderTotal is one bidder's aggregate position in a solicitation.
// Complete means the bidder priced every item.
type BidderTotal struct {
	Bidder   string  `json:"bidder"`
	Total    float64 `json:"total"`
	ItemsBid int     `json:"items_bid"`
	Complete bool    `json:"complete"`
}

// AwardScenario compares the two classic award strategies for one
// solicitation: cherry-picking the cheapest bidder per item, and awarding
// everything to the cheapest bidder that quoted every line.
type AwardScenario struct {
	SolicitationID    string       `json:"rfq_id"`
	Items             []ItemAward  `json:"items"`
	BestPossibleTotal float64      `json:"best_possible_total"`
	UnawardableItems  []string     `json:"unawardable_items,omitempty"`
	BidderTotals      []BidderTotal `json:"bidder_totals"`
	LowestCompleteBid *BidderTotal `json:"lowest_complete_bid,omitempty"`
}

// AwardScenarios computes the award scenario analysis for one
// solicitation's items and bids. Items nobody priced are excluded from the
// best-possible total and flagged unawardable rather than silently dropped.
func AwardScenarios(solicitationID string, items []domain.Item, bids []domain.Bid) *AwardScenario {
	scenario := &AwardScenario{SolicitationID: solicitationID}

	byItem := groupBidsByItem(bids)

	for _, item := range items {
		award := ItemAward{Item: item, Unawardable: true}
		for _, bid := range byItem[item.ID] {
			quote := ItemQuote{Bidder: bid.Bidder, UnitPrice: bid.UnitPrice, ExtPrice: bid.ExtPrice}
			if cost, ok := bid.EffectiveCost(item.Quantity); ok {
				quote.Cost = domain.Float64(cost)
				if award.Cost == nil || cost < *award.Cost {
					award.Cost = domain.Float64(cost)
					award.Bidder = bid.Bidder
					award.Unawardable = false
				}
			}
			award.Quotes = append(award.Quotes, quote)
		}
		sort.Slice(award.Quotes, func(i, j int) bool {
			return award.Quotes[i].Bidder < award.Quotes[j].Bidder
		})
		if award.Unawardable {
			scenario.UnawardableItems = append(scenario.UnawardableItems, item.ItemNumber)
		} else {
			scenario.BestPossibleTotal += *award.Cost
		}
		scenario.Items = append(scenario.Items, award)
	}

	// Per-bidder totals over the items each bidder actually priced.
	totals := map[string]*BidderTotal{}
	for _, item := range items {
		for _, bid := range byItem[item.ID] {
			cost, ok := bid.EffectiveCost(item.Quantity)
			if !ok {
				continue
			}
			t, seen := totals[bid.Bidder]
			if !seen {
				t = &BidderTotal{Bidder: bid.Bidder}
				totals[bid.Bidder] = t
			}
			t.Total += cost
			t.ItemsBid++
		}
	}
	for _, t := range totals {
		t.Complete = t.ItemsBid == len(items)
		scenario.BidderTotals = append(scenario.BidderTotals, *t)
	}
	sort.Slice(scenario.BidderTotals, func(i, j int) bool {
		return scenario.BidderTotals[i].Total < scenario.BidderTotals[j].Total
	})

	for i := range scenario.BidderTotals {
		if scenario.BidderTotals[i].Complete {
			complete := scenario.BidderTotals[i]
			scenario.LowestCompleteBid = &complete
			break
		}
	}

	return scenario
}

func groupBidsByItem(bids []domain.Bid) map[int64][]domain.Bid {
	byItem := make(map[int64][]domain.Bid)
	for _, bid := range bids {
		byItem[bid.ItemID] = append(byItem[bid.ItemID], bid)
	}
	return byItem
}
