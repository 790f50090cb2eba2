package models

import (
	"strconv"
	"strings"
	"time"
)

// AllCategories disables the category predicate when used as a filter value.
const AllCategories = "ALL"

// RawRow is one loosely typed input row as read from a CSV file, a Kafka
// message or an HTTP body. Keys follow the upstream column names.
type RawRow map[string]any

// RawBatch is the unit of ingestion carried over Kafka and POST /api/ingest.
type RawBatch struct {
	BatchID string   `json:"batch_id"`
	Source  string   `json:"source,omitempty"`
	Rows    []RawRow `json:"rows" validate:"required,min=1"`
}

// BidRecord is one bidding round for one vehicle category.
type BidRecord struct {
	PeriodLabel    string    `json:"month"`
	PeriodDate     time.Time `json:"month_dt"`
	Category       string    `json:"vehicle_class"`
	BiddingNo      int       `json:"bidding_no"`
	Quota          int       `json:"quota"`
	BidsReceived   int       `json:"bids_received"`
	BidsSuccessful int       `json:"bids_success"`
	Premium        float64   `json:"premium"`
}

// Year returns the calendar year of the bidding period.
func (r BidRecord) Year() int { return r.PeriodDate.Year() }

// Key identifies a round; re-ingesting the same key replaces the record.
func (r BidRecord) Key() string {
	return r.Category + "|" + r.PeriodLabel + "|" + strconv.Itoa(r.BiddingNo)
}

// RecordFilter selects records by category and an inclusive year range.
// Nil bounds impose no constraint.
type RecordFilter struct {
	Category  string
	YearStart *int
	YearEnd   *int
}

// IsAllCategories reports whether c disables category filtering.
func IsAllCategories(c string) bool {
	c = strings.TrimSpace(c)
	return c == "" || strings.EqualFold(c, AllCategories)
}

// Match reports whether r passes the filter. Range validity is checked by callers.
func (f RecordFilter) Match(r BidRecord) bool {
	if !IsAllCategories(f.Category) && r.Category != strings.TrimSpace(f.Category) {
		return false
	}
	y := r.Year()
	if f.YearStart != nil && y < *f.YearStart {
		return false
	}
	if f.YearEnd != nil && y > *f.YearEnd {
		return false
	}
	return true
}
