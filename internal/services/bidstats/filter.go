package bidstats

import "COEAnalytics/internal/domain/models"

// ValidateRange fails with *InvalidRangeError when both bounds are set and
// the end precedes the start. Callers run it before touching any store.
func ValidateRange(f models.RecordFilter) error {
	if f.YearStart != nil && f.YearEnd != nil && *f.YearEnd < *f.YearStart {
		return &InvalidRangeError{Start: *f.YearStart, End: *f.YearEnd}
	}
	return nil
}

// Filter returns the records matching f in input order.
func Filter(records []models.BidRecord, f models.RecordFilter) ([]models.BidRecord, error) {
	if err := ValidateRange(f); err != nil {
		return nil, err
	}
	out := make([]models.BidRecord, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
