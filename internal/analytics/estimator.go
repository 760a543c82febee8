package analytics

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"rfqpulse/pkg/contracts/domain"
)

// Confidence classifies how trustworthy an estimate is, derived from the
// best match score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
	// ConfidenceNone marks an item with no usable history anywhere. Such
	// items get an explicit no-estimate result, never a fabricated price.
	ConfidenceNone Confidence = "NONE"
)

// EstimatorConfig holds the tunable scoring parameters. The thresholds are
// a design choice, not a protocol contract.
type EstimatorConfig struct {
	HighThreshold   float64 // best score at or above this is HIGH
	MediumThreshold float64 // best score at or above this is MEDIUM
	CandidateFloor  float64 // candidates scoring below this are discarded
	SizeBonus       float64 // added on exact size match, capped at 1.0
	MaxMatchDetail  int     // match rows retained per item for display
}

// DefaultEstimatorConfig returns the calibrated defaults.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		HighThreshold:   0.55,
		MediumThreshold: 0.30,
		CandidateFloor:  0.25,
		SizeBonus:       0.20,
		MaxMatchDetail:  8,
	}
}

// MatchDetail is one scored historical quotation backing an estimate.
type MatchDetail struct {
	SolicitationID string    `json:"rfq_id"`
	Date           time.Time `json:"rfq_date"`
	Bidder         string    `json:"bidder"`
	Specification  string    `json:"specification"`
	Size           string    `json:"size,omitempty"`
	UnitPrice      float64   `json:"unit_price"`
	Score          float64   `json:"match_score"`
}

// ItemEstimate is the historical price estimate for one bid-less item.
type ItemEstimate struct {
	Item        domain.Item   `json:"item"`
	Confidence  Confidence    `json:"confidence"`
	MatchScore  float64       `json:"match_score"`
	Matches     []MatchDetail `json:"matches,omitempty"`
	UnitMin     *float64      `json:"est_unit_min,omitempty"`
	UnitMean    *float64      `json:"est_unit_mean,omitempty"`
	UnitMax     *float64      `json:"est_unit_max,omitempty"`
	ExtMean     *float64      `json:"est_ext_mean,omitempty"`
	BiddersSeen []string      `json:"bidders_seen,omitempty"`
	SourceIDs   []string      `json:"source_rfqs,omitempty"`
	LatestQuote *time.Time    `json:"latest_quote,omitempty"`
}

// EstimateReport is the full estimation result for one bid-less
// solicitation.
type EstimateReport struct {
	SolicitationID string             `json:"rfq_id"`
	Items          []ItemEstimate     `json:"estimates"`
	Covered        int                `json:"covered"`
	Uncovered      int                `json:"uncovered"`
	ConfidenceDist map[Confidence]int `json:"confidence_dist"`
	TotalLow       float64            `json:"total_est_low"`
	TotalMean      float64            `json:"total_est_mean"`
	TotalHigh      float64            `json:"total_est_high"`
}

var (
	specTokenSplitRe = regexp.MustCompile(`[\s,/()\-]+`)
	specStopwords    = map[string]bool{
		"AND": true, "OR": true, "THE": true, "TO": true,
		"OF": true, "IN": true, "WITH": true,
	}
)

// TokenizeSpec splits a specification string into its normalized token set.
//
//	"SMLS, NPS 2, SCH XS/80 (0.218 WT)" ->
//	  {SMLS NPS SCH XS 80 0.218 WT}
func TokenizeSpec(spec string) map[string]bool {
	tokens := map[string]bool{}
	for _, t := range specTokenSplitRe.Split(strings.ToUpper(spec), -1) {
		if len(t) < 2 || specStopwords[t] {
			continue
		}
		tokens[t] = true
	}
	return tokens
}

// Jaccard returns the similarity of two token sets: intersection size over
// union size. Either set being empty scores zero.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// EstimatePrices estimates pricing for every item of a bid-less
// solicitation from historical quotations. The item type is a hard filter;
// type matches are ranked by spec-token Jaccard similarity plus an exact
// size-match bonus. Items with no type match anywhere yield an explicit
// no-estimate entry.
func EstimatePrices(solicitationID string, items []domain.Item, history []Quote, cfg EstimatorConfig) *EstimateReport {
	report := &EstimateReport{
		SolicitationID: solicitationID,
		ConfidenceDist: map[Confidence]int{},
	}

	historyByType := map[string][]Quote{}
	for _, q := range history {
		if q.UnitPrice <= 0 {
			continue
		}
		historyByType[q.ItemType] = append(historyByType[q.ItemType], q)
	}

	for _, item := range items {
		est := estimateItem(item, historyByType[item.ItemType], cfg)
		report.ConfidenceDist[est.Confidence]++
		if est.Confidence == ConfidenceNone {
			report.Uncovered++
		} else {
			report.Covered++
			if item.Quantity != nil {
				qty := *item.Quantity
				report.TotalLow += *est.UnitMin * qty
				report.TotalMean += *est.UnitMean * qty
				report.TotalHigh += *est.UnitMax * qty
			}
		}
		report.Items = append(report.Items, est)
	}

	return report
}

func estimateItem(item domain.Item, candidates []Quote, cfg EstimatorConfig) ItemEstimate {
	est := ItemEstimate{Item: item, Confidence: ConfidenceNone}
	if len(candidates) == 0 {
		return est
	}

	itemTokens := TokenizeSpec(item.Specification)
	itemSize := strings.ToUpper(strings.TrimSpace(item.Size))

	type scored struct {
		score float64
		quote Quote
	}
	var matched []scored
	for _, c := range candidates {
		score := Jaccard(itemTokens, TokenizeSpec(c.Specification))
		candSize := strings.ToUpper(strings.TrimSpace(c.Size))
		if itemSize != "" && candSize != "" && itemSize == candSize {
			score = math.Min(1.0, score+cfg.SizeBonus)
		}
		if score >= cfg.CandidateFloor {
			matched = append(matched, scored{score, c})
		}
	}
	if len(matched) == 0 {
		return est
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	est.MatchScore = matched[0].score
	switch {
	case est.MatchScore >= cfg.HighThreshold:
		est.Confidence = ConfidenceHigh
	case est.MatchScore >= cfg.MediumThreshold:
		est.Confidence = ConfidenceMedium
	default:
		est.Confidence = ConfidenceLow
	}

	// One quotation per (solicitation, bidder, spec): the same line quoted
	// twice must not double-weight the estimate.
	type dedupKey struct{ id, bidder, spec string }
	seen := map[dedupKey]bool{}
	bidders := map[string]bool{}
	sources := map[string]bool{}
	var weightSum, weightedPrice float64
	var latest time.Time

	for _, m := range matched {
		k := dedupKey{m.quote.SolicitationID, m.quote.Bidder, m.quote.Specification}
		if seen[k] {
			continue
		}
		seen[k] = true

		p := m.quote.UnitPrice
		if est.UnitMin == nil || p < *est.UnitMin {
			est.UnitMin = domain.Float64(p)
		}
		if est.UnitMax == nil || p > *est.UnitMax {
			est.UnitMax = domain.Float64(p)
		}
		weightSum += m.score
		weightedPrice += p * m.score
		bidders[m.quote.Bidder] = true
		sources[m.quote.SolicitationID] = true
		if m.quote.Date.After(latest) {
			latest = m.quote.Date
		}

		if len(est.Matches) < cfg.MaxMatchDetail {
			est.Matches = append(est.Matches, MatchDetail{
				SolicitationID: m.quote.SolicitationID,
				Date:           m.quote.Date,
				Bidder:         m.quote.Bidder,
				Specification:  m.quote.Specification,
				Size:           m.quote.Size,
				UnitPrice:      p,
				Score:          m.score,
			})
		}
	}

	est.UnitMean = domain.Float64(weightedPrice / weightSum)
	if item.Quantity != nil {
		est.ExtMean = domain.Float64(*est.UnitMean * *item.Quantity)
	}
	if !latest.IsZero() {
		est.LatestQuote = &latest
	}
	for b := range bidders {
		est.BiddersSeen = append(est.BiddersSeen, b)
	}
	sort.Strings(est.BiddersSeen)
	for s := range sources {
		est.SourceIDs = append(est.SourceIDs, s)
	}
	sort.Strings(est.SourceIDs)

	return est
}
