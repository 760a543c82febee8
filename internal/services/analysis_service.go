package services

import (
	"context"
	"log/slog"

	"rfqpulse/internal/analytics"
	"rfqpulse/internal/store"
	"rfqpulse/pkg/contracts/domain"
)

// AnalysisService runs the analytics over loaded solicitations. All analyses
// read the store and compute in memory; nothing here writes.
type AnalysisService struct {
	store  *store.Store
	logger *slog.Logger
	estCfg analytics.EstimatorConfig
}

// NewAnalysisService creates the analysis service with the given estimator
// tuning.
func NewAnalysisService(st *store.Store, estCfg analytics.EstimatorConfig, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{store: st, logger: logger, estCfg: estCfg}
}

// Awards computes the award scenario comparison for one solicitation.
func (s *AnalysisService) Awards(ctx context.Context, id string) (*analytics.AwardScenario, error) {
	items, bids, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return analytics.AwardScenarios(id, items, bids), nil
}

// Variance computes per-item price dispersion for one solicitation, ordered
// by descending coefficient of variation.
func (s *AnalysisService) Variance(ctx context.Context, id string) ([]analytics.ItemVariance, error) {
	items, bids, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return analytics.PriceVariance(items, bids), nil
}

// Subsets enumerates the optimal bidder subsets of every size for one
// solicitation. Fails fast when the bidder count exceeds the enumeration
// bound.
func (s *AnalysisService) Subsets(ctx context.Context, id string) ([]analytics.SubsetResult, error) {
	items, bids, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	results, err := analytics.OptimizeSubsets(items, bids)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "subset optimization complete",
		slog.String("rfq_id", id),
		slog.Int("coalition_sizes", len(results)))
	return results, nil
}

// Trends returns the filtered price history across all concrete
// solicitations, ordered by date.
func (s *AnalysisService) Trends(ctx context.Context, filter analytics.TrendFilter) ([]analytics.Quote, error) {
	quotes, err := s.store.Quotes(ctx, "")
	if err != nil {
		return nil, err
	}
	return analytics.PriceTrends(quotes, filter), nil
}

// Patterns aggregates bidder behaviour per item type across all concrete
// solicitations.
func (s *AnalysisService) Patterns(ctx context.Context) ([]analytics.BidderPattern, error) {
	quotes, err := s.store.Quotes(ctx, "")
	if err != nil {
		return nil, err
	}
	return analytics.BidderPatterns(quotes), nil
}

// Estimates prices the items of one solicitation from the quote history of
// every other solicitation. Intended for potential RFQs that have no bids
// yet, but works on any loaded solicitation.
func (s *AnalysisService) Estimates(ctx context.Context, id string) (*analytics.EstimateReport, error) {
	items, err := s.store.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.store.Quotes(ctx, id)
	if err != nil {
		return nil, err
	}
	report := analytics.EstimatePrices(id, items, history, s.estCfg)
	s.logger.InfoContext(ctx, "estimation complete",
		slog.String("rfq_id", id),
		slog.Int("covered", report.Covered),
		slog.Int("uncovered", report.Uncovered))
	return report, nil
}

func (s *AnalysisService) load(ctx context.Context, id string) ([]domain.Item, []domain.Bid, error) {
	items, err := s.store.Items(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	bids, err := s.store.Bids(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return items, bids, nil
}
