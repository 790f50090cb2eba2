package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"COEAnalytics/internal/domain/models"
)

func bid(year int, month time.Month, class string, no int, premium float64) models.BidRecord {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return models.BidRecord{
		PeriodLabel: d.Format("2006-01"),
		PeriodDate:  d,
		Category:    class,
		BiddingNo:   no,
		Quota:       100,
		Premium:     premium,
	}
}

func TestMemoryBidStore_SaveReplacesByKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBidStore()
	require.NoError(t, s.SaveBatch(ctx, []models.BidRecord{
		bid(2021, time.January, "Category A", 1, 50000),
		bid(2021, time.January, "Category A", 2, 51000),
		bid(2021, time.January, "Category B", 1, 60000),
	}))
	require.NoError(t, s.SaveBatch(ctx, []models.BidRecord{bid(2021, time.January, "Category A", 1, 49000)}))

	assert.Equal(t, 3, s.Len())
	all, err := s.Snapshot(ctx, models.RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, 49000.0, all[0].Premium)
}

func TestMemoryBidStore_SnapshotFilterAndCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBidStore()
	require.NoError(t, s.SaveBatch(ctx, []models.BidRecord{
		bid(2019, time.March, "Category A", 1, 1),
		bid(2021, time.March, "Category A", 1, 2),
		bid(2021, time.April, "Category C", 1, 3),
	}))

	from := 2020
	got, err := s.Snapshot(ctx, models.RecordFilter{Category: "Category A", YearStart: &from})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Premium)

	got[0].Premium = 999
	again, err := s.Snapshot(ctx, models.RecordFilter{Category: "Category A", YearStart: &from})
	require.NoError(t, err)
	assert.Equal(t, 2.0, again[0].Premium)

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Category A", "Category C"}, cats)
}

func TestMemoryBidStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryBidStore().Snapshot(ctx, models.RecordFilter{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshotWhere(t *testing.T) {
	where, args := snapshotWhere(models.RecordFilter{Category: "all"})
	assert.Empty(t, where)
	assert.Empty(t, args)

	from, to := 2018, 2022
	where, args = snapshotWhere(models.RecordFilter{Category: " Category B ", YearStart: &from, YearEnd: &to})
	assert.Equal(t, " WHERE vehicle_class = ? AND toYear(month_dt) >= ? AND toYear(month_dt) <= ?", where)
	assert.Equal(t, []any{"Category B", 2018, 2022}, args)
}

func TestBidSchema(t *testing.T) {
	stmts := BidSchema("coe", "coe_bids")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], "coe.coe_bids")
	assert.Contains(t, stmts[1], "ReplacingMergeTree")
	assert.Regexp(t, `bidding_no\s+UInt32`, stmts[1])
}

func TestBidArgs_KeepsLargeRoundNumbers(t *testing.T) {
	low, high := models.BidRecord{BiddingNo: 0}, models.BidRecord{BiddingNo: 256}
	assert.Equal(t, uint32(256), bidArgs(high)[3])
	assert.NotEqual(t, bidArgs(low)[3], bidArgs(high)[3])
}
