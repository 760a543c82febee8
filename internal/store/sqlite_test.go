package store

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfqpulse/internal/parsing"
	"rfqpulse/pkg/contracts/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult() *parsing.Result {
	return &parsing.Result{
		Variant: parsing.VariantA,
		Sheet:   "Quotes",
		Bidders: []string{"EDGEN", "WHITCO"},
		Items: []domain.Item{
			{ItemNumber: "1", ItemType: "PIPE", Specification: "SMLS, SCH 40", Size: "2\"", Unit: "FT", Quantity: domain.Float64(100)},
			{ItemNumber: "2", ItemType: "GASKET", Specification: "SPL WND"},
			{ItemNumber: "10", ItemType: "FLANGE", Specification: "WN, 150#"},
		},
		Bids: []parsing.ExtractedBid{
			{ItemIndex: 0, Bidder: "EDGEN", UnitPrice: domain.Float64(10.5), ExtPrice: domain.Float64(1050)},
			{ItemIndex: 0, Bidder: "WHITCO", UnitPrice: domain.Float64(11)},
			{ItemIndex: 1, Bidder: "WHITCO", UnitPrice: domain.Float64(4.25), ExtPrice: domain.Float64(85)},
		},
	}
}

func sampleSolicitation(id string) domain.Solicitation {
	return domain.Solicitation{
		ID:         id,
		Creator:    "AUDUBON",
		Station:    "St105",
		Date:       time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC),
		SourceFile: "St105_" + id + "_AUDUBON_11-10-2025.xlsx",
		SheetName:  "Quotes",
	}
}

func TestLoadResultAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.LoadResult(ctx, sampleSolicitation("ME0003"), sampleResult()))

	sol, err := s.Get(ctx, "ME0003")
	require.NoError(t, err)
	assert.Equal(t, "AUDUBON", sol.Creator)
	assert.Equal(t, "St105", sol.Station)
	assert.Equal(t, time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC), sol.Date)
	assert.False(t, sol.IsPotential)

	exists, err := s.Exists(ctx, "ME0003")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "NOPE")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestItemsNumericOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.LoadResult(ctx, sampleSolicitation("ME0003"), sampleResult()))

	items, err := s.Items(ctx, "ME0003")
	require.NoError(t, err)
	require.Len(t, items, 3)

	// "10" sorts after "2" numerically, not lexically.
	assert.Equal(t, "1", items[0].ItemNumber)
	assert.Equal(t, "2", items[1].ItemNumber)
	assert.Equal(t, "10", items[2].ItemNumber)

	require.NotNil(t, items[0].Quantity)
	assert.Equal(t, 100.0, *items[0].Quantity)
	assert.Nil(t, items[1].Quantity)
}

func TestBidsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.LoadResult(ctx, sampleSolicitation("ME0003"), sampleResult()))

	bids, err := s.Bids(ctx, "ME0003")
	require.NoError(t, err)
	require.Len(t, bids, 3)

	var whitcoItem1 *domain.Bid
	for i := range bids {
		if bids[i].Bidder == "WHITCO" && bids[i].UnitPrice != nil && *bids[i].UnitPrice == 11 {
			whitcoItem1 = &bids[i]
		}
	}
	require.NotNil(t, whitcoItem1)
	assert.Nil(t, whitcoItem1.ExtPrice, "absent extended price stays absent")
}

func TestLoadResultReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.LoadResult(ctx, sampleSolicitation("ME0003"), sampleResult()))

	smaller := &parsing.Result{
		Items: []domain.Item{{ItemNumber: "1", ItemType: "VALVE", Specification: "GATE"}},
	}
	require.NoError(t, s.LoadResult(ctx, sampleSolicitation("ME0003"), smaller))

	items, err := s.Items(ctx, "ME0003")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "VALVE", items[0].ItemType)

	bids, err := s.Bids(ctx, "ME0003")
	require.NoError(t, err)
	assert.Empty(t, bids, "old bids cascade away on replace")
}

func TestDeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.LoadResult(ctx, sampleSolicitation("ME0003"), sampleResult()))
	require.NoError(t, s.Delete(ctx, "ME0003"))

	exists, err := s.Exists(ctx, "ME0003")
	require.NoError(t, err)
	assert.False(t, exists)

	items, err := s.Items(ctx, "ME0003")
	require.NoError(t, err)
	assert.Empty(t, items)

	bids, err := s.Bids(ctx, "ME0003")
	require.NoError(t, err)
	assert.Empty(t, bids)
}

func TestListCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.LoadResult(ctx, sampleSolicitation("ME0003"), sampleResult()))

	older := sampleSolicitation("ME0001")
	older.Date = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.LoadResult(ctx, older, sampleResult()))

	sols, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, sols, 2)

	// Newest first.
	assert.Equal(t, "ME0003", sols[0].ID)
	assert.Equal(t, 3, sols[0].ItemCount)
	assert.Equal(t, 2, sols[0].BidderCount)
}

func TestBiddersDeduplicatedAcrossLoads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.LoadResult(ctx, sampleSolicitation("ME0001"), sampleResult()))
	require.NoError(t, s.LoadResult(ctx, sampleSolicitation("ME0002"), sampleResult()))

	names, err := s.Bidders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EDGEN", "WHITCO"}, names)
}

func TestQuotesExcludesPotentialAndSelf(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.LoadResult(ctx, sampleSolicitation("ME0001"), sampleResult()))

	potential := sampleSolicitation("ME0002")
	potential.IsPotential = true
	require.NoError(t, s.LoadResult(ctx, potential, sampleResult()))

	require.NoError(t, s.LoadResult(ctx, sampleSolicitation("ME0003"), sampleResult()))

	quotes, err := s.Quotes(ctx, "ME0003")
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, q := range quotes {
		ids[q.SolicitationID] = true
		assert.Positive(t, q.UnitPrice)
	}
	assert.True(t, ids["ME0001"])
	assert.False(t, ids["ME0002"], "potential solicitations never feed history")
	assert.False(t, ids["ME0003"], "a solicitation is never its own history")
}

func TestQuotesCarriesJoinedFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.LoadResult(ctx, sampleSolicitation("ME0001"), sampleResult()))

	quotes, err := s.Quotes(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, quotes)

	q := quotes[0]
	assert.Equal(t, "St105", q.Station)
	assert.Equal(t, time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC), q.Date)
	assert.NotEmpty(t, q.ItemType)
	assert.NotEmpty(t, q.Bidder)
}
