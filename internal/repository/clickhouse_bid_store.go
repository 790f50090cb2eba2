package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"COEAnalytics/internal/domain/models"
	"COEAnalytics/internal/domain/repository"
)

// BidSchema returns the DDL for the bids table. ReplacingMergeTree keyed on
// (vehicle_class, month_dt, bidding_no) collapses re-ingested rounds.
func BidSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	month          String,
	month_dt       Date,
	vehicle_class  LowCardinality(String),
	bidding_no     UInt32,
	quota          UInt32,
	bids_success   UInt32,
	bids_received  UInt32,
	premium        Float64,
	ingested_at    DateTime64(3) DEFAULT now64()
) ENGINE = ReplacingMergeTree(ingested_at)
ORDER BY (vehicle_class, month_dt, bidding_no)`, database, table),
	}
}

// ClickHouseBidStore implements RecordStore on a ClickHouse table.
type ClickHouseBidStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseBidStore creates a store over db.table. table must be fully qualified.
func NewClickHouseBidStore(db *sql.DB, table string) repository.RecordStore {
	return &ClickHouseBidStore{db: db, table: table}
}

// SaveBatch inserts records using multi-row VALUES in chunks.
func (s *ClickHouseBidStore) SaveBatch(ctx context.Context, records []models.BidRecord) error {
	const chunkSize = 2000
	for start := 0; start < len(records); start += chunkSize {
		end := min(start+chunkSize, len(records))

		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*8)
		for _, r := range records[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, bidArgs(r)...)
		}
		q := fmt.Sprintf("INSERT INTO %s (month, month_dt, vehicle_class, bidding_no, quota, bids_success, bids_received, premium) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert bids: %w", err)
		}
	}
	return nil
}

// bidArgs orders r's columns as in the INSERT. Counts are UInt32 so any
// round number the normalizer accepts keeps its own ReplacingMergeTree key.
func bidArgs(r models.BidRecord) []any {
	return []any{
		r.PeriodLabel,
		r.PeriodDate,
		r.Category,
		uint32(r.BiddingNo),
		uint32(r.Quota),
		uint32(r.BidsSuccessful),
		uint32(r.BidsReceived),
		r.Premium,
	}
}

// Snapshot reads the deduplicated table with the filter pushed down.
func (s *ClickHouseBidStore) Snapshot(ctx context.Context, f models.RecordFilter) ([]models.BidRecord, error) {
	where, args := snapshotWhere(f)
	q := fmt.Sprintf("SELECT month, month_dt, vehicle_class, bidding_no, quota, bids_success, bids_received, premium FROM %s FINAL%s ORDER BY month_dt, bidding_no, vehicle_class",
		s.table, where)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query bids: %w", err)
	}
	defer rows.Close()

	var out []models.BidRecord
	for rows.Next() {
		var (
			r                                       models.BidRecord
			monthDt                                 time.Time
			biddingNo, quota, success, bidsReceived uint32
		)
		if err := rows.Scan(&r.PeriodLabel, &monthDt, &r.Category, &biddingNo, &quota, &success, &bidsReceived, &r.Premium); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		r.PeriodDate = time.Date(monthDt.Year(), monthDt.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.BiddingNo = int(biddingNo)
		r.Quota = int(quota)
		r.BidsSuccessful = int(success)
		r.BidsReceived = int(bidsReceived)
		out = append(out, r)
	}
	return out, rows.Err()
}

func snapshotWhere(f models.RecordFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !models.IsAllCategories(f.Category) {
		conds = append(conds, "vehicle_class = ?")
		args = append(args, strings.TrimSpace(f.Category))
	}
	if f.YearStart != nil {
		conds = append(conds, "toYear(month_dt) >= ?")
		args = append(args, *f.YearStart)
	}
	if f.YearEnd != nil {
		conds = append(conds, "toYear(month_dt) <= ?")
		args = append(args, *f.YearEnd)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Categories lists distinct vehicle classes in ascending order.
func (s *ClickHouseBidStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT vehicle_class FROM %s ORDER BY vehicle_class", s.table))
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *ClickHouseBidStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseBidStore) Close() error {
	return nil // pool is owned by pkg/clickhouse.Client
}
