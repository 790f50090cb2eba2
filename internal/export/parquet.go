// Package export writes normalized records to columnar snapshot files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"COEAnalytics/internal/domain/models"
)

// BidRow is the Parquet layout of one record.
type BidRow struct {
	Month        string  `parquet:"month"`
	MonthDate    string  `parquet:"month_dt"`
	VehicleClass string  `parquet:"vehicle_class,dict"`
	BiddingNo    int64   `parquet:"bidding_no"`
	Quota        int64   `parquet:"quota"`
	BidsSuccess  int64   `parquet:"bids_success"`
	BidsReceived int64   `parquet:"bids_received"`
	Premium      float64 `parquet:"premium"`
}

func toRow(r models.BidRecord) BidRow {
	return BidRow{
		Month:        r.PeriodLabel,
		MonthDate:    r.PeriodDate.Format(time.DateOnly),
		VehicleClass: r.Category,
		BiddingNo:    int64(r.BiddingNo),
		Quota:        int64(r.Quota),
		BidsSuccess:  int64(r.BidsSuccessful),
		BidsReceived: int64(r.BidsReceived),
		Premium:      r.Premium,
	}
}

// WriteParquet writes records to path, creating parent directories.
func WriteParquet(path string, records []models.BidRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	rows := make([]BidRow, len(records))
	for i, r := range records {
		rows[i] = toRow(r)
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}

// ReadParquet loads a snapshot written by WriteParquet.
func ReadParquet(path string) ([]models.BidRecord, error) {
	rows, err := parquet.ReadFile[BidRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	out := make([]models.BidRecord, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse(time.DateOnly, r.MonthDate)
		if err != nil {
			return nil, fmt.Errorf("read parquet %s: month_dt %q: %w", path, r.MonthDate, err)
		}
		out = append(out, models.BidRecord{
			PeriodLabel:    r.Month,
			PeriodDate:     d,
			Category:       r.VehicleClass,
			BiddingNo:      int(r.BiddingNo),
			Quota:          int(r.Quota),
			BidsSuccessful: int(r.BidsSuccess),
			BidsReceived:   int(r.BidsReceived),
			Premium:        r.Premium,
		})
	}
	return out, nil
}
