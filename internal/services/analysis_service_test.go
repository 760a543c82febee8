package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfqpulse/internal/analytics"
	"rfqpulse/internal/parsing"
	"rfqpulse/internal/store"
	"rfqpulse/pkg/contracts/domain"
)

func newAnalysisFixture(t *testing.T) (*AnalysisService, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewAnalysisService(st, analytics.DefaultEstimatorConfig(), slog.Default()), st
}

func loadFixtureRFQ(t *testing.T, st *store.Store, id string, date time.Time, potential bool) {
	t.Helper()
	sol := domain.Solicitation{ID: id, Date: date, IsPotential: potential}
	result := &parsing.Result{
		Bidders: []string{"EDGEN", "WHITCO"},
		Items: []domain.Item{
			{ItemNumber: "1", ItemType: "PIPE", Specification: "SMLS, SCH 40", Quantity: domain.Float64(10)},
			{ItemNumber: "2", ItemType: "GASKET", Specification: "SPL WND", Quantity: domain.Float64(5)},
		},
		Bids: []parsing.ExtractedBid{
			{ItemIndex: 0, Bidder: "EDGEN", UnitPrice: domain.Float64(10), ExtPrice: domain.Float64(100)},
			{ItemIndex: 0, Bidder: "WHITCO", UnitPrice: domain.Float64(12), ExtPrice: domain.Float64(120)},
			{ItemIndex: 1, Bidder: "EDGEN", UnitPrice: domain.Float64(4), ExtPrice: domain.Float64(20)},
		},
	}
	require.NoError(t, st.LoadResult(context.Background(), sol, result))
}

func TestAnalysisAwards(t *testing.T) {
	svc, st := newAnalysisFixture(t)
	loadFixtureRFQ(t, st, "ME0001", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), false)

	scenario, err := svc.Awards(context.Background(), "ME0001")
	require.NoError(t, err)
	assert.InDelta(t, 120.0, scenario.BestPossibleTotal, 1e-9)
	require.NotNil(t, scenario.LowestCompleteBid)
	assert.Equal(t, "EDGEN", scenario.LowestCompleteBid.Bidder)
}

func TestAnalysisVarianceAndSubsets(t *testing.T) {
	svc, st := newAnalysisFixture(t)
	loadFixtureRFQ(t, st, "ME0001", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), false)

	variance, err := svc.Variance(context.Background(), "ME0001")
	require.NoError(t, err)
	require.Len(t, variance, 2)

	subsets, err := svc.Subsets(context.Background(), "ME0001")
	require.NoError(t, err)
	require.Len(t, subsets, 2)
	assert.Equal(t, []string{"EDGEN"}, subsets[0].Bidders)
}

func TestAnalysisEstimatesUseOtherRFQsOnly(t *testing.T) {
	svc, st := newAnalysisFixture(t)
	loadFixtureRFQ(t, st, "ME0001", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), false)
	// The target is potential and bid-less in spirit; its own rows must not
	// feed its history.
	loadFixtureRFQ(t, st, "ME0002", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true)

	report, err := svc.Estimates(context.Background(), "ME0002")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Covered)
	for _, est := range report.Items {
		for _, m := range est.Matches {
			assert.Equal(t, "ME0001", m.SolicitationID)
		}
	}
}

func TestAnalysisTrendsAndPatterns(t *testing.T) {
	svc, st := newAnalysisFixture(t)
	loadFixtureRFQ(t, st, "ME0001", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), false)
	loadFixtureRFQ(t, st, "ME0002", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), false)

	trends, err := svc.Trends(context.Background(), analytics.TrendFilter{ItemType: "PIPE"})
	require.NoError(t, err)
	require.Len(t, trends, 4)
	assert.True(t, trends[0].Date.Before(trends[len(trends)-1].Date) ||
		trends[0].Date.Equal(trends[len(trends)-1].Date))

	patterns, err := svc.Patterns(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, patterns)
	assert.Equal(t, "GASKET", patterns[0].ItemType)
}
