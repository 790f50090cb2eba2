package bidstats

import (
	"sort"

	"COEAnalytics/internal/domain/models"
)

// Defaults are the configured fallbacks for unset query options.
type Defaults struct {
	Category string
	Window   int
	Axis     models.Axis
	Stat     models.Stat
}

// QueryOptions enumerates every option of an aggregate query.
type QueryOptions struct {
	// Category selects one vehicle class; "ALL" or empty selects all.
	Category string
	// YearStart and YearEnd bound the calendar year inclusively when set.
	YearStart *int
	YearEnd   *int
	// Axis groups by calendar year or by calendar month across years.
	Axis models.Axis
	// Stat reduces each group with mean or median.
	Stat models.Stat
	// Window is the trailing moving-average length in points.
	Window int
	// IncludeQuota also reduces quota per group.
	IncludeQuota bool
	// WithPctChange annotates points with period-over-period change.
	WithPctChange bool
}

// Filter returns the record filter part of the options.
func (o QueryOptions) Filter() models.RecordFilter {
	return models.RecordFilter{Category: o.Category, YearStart: o.YearStart, YearEnd: o.YearEnd}
}

// Resolve fills unset fields from d. A zero window is unset; negative
// windows are kept so Validate can reject them.
func (o QueryOptions) Resolve(d Defaults) QueryOptions {
	if o.Category == "" {
		o.Category = d.Category
	}
	if o.Axis == "" {
		o.Axis = d.Axis
	}
	if o.Stat == "" {
		o.Stat = d.Stat
	}
	if o.Window == 0 {
		o.Window = d.Window
	}
	return o
}

// Validate checks every option without looking at any data.
func (o QueryOptions) Validate() error {
	if err := ValidateRange(o.Filter()); err != nil {
		return err
	}
	if o.Window < 1 {
		return &InvalidWindowError{Window: o.Window}
	}
	if o.Axis != models.AxisYear && o.Axis != models.AxisMonth {
		return &InvalidOptionError{Option: "axis", Value: string(o.Axis)}
	}
	if o.Stat != models.StatMean && o.Stat != models.StatMedian {
		return &InvalidOptionError{Option: "aggregation", Value: string(o.Stat)}
	}
	return nil
}

// AggregateQuery filters, groups and smooths records.
func AggregateQuery(records []models.BidRecord, opts QueryOptions) (models.Series, error) {
	if err := opts.Validate(); err != nil {
		return models.Series{}, err
	}
	subset, err := Filter(records, opts.Filter())
	if err != nil {
		return models.Series{}, err
	}
	points, err := Aggregate(subset, opts.Axis, opts.Stat, opts.IncludeQuota)
	if err != nil {
		return models.Series{}, err
	}
	smoothed, err := Smooth(points, opts.Window, opts.WithPctChange)
	if err != nil {
		return models.Series{}, err
	}
	return models.Series{
		Axis:          opts.Axis,
		Stat:          opts.Stat,
		Window:        opts.Window,
		IncludeQuota:  opts.IncludeQuota,
		WithPctChange: opts.WithPctChange,
		Points:        smoothed,
	}, nil
}

// RatioQuery returns quota, premium and demand ratio for each matching record.
func RatioQuery(records []models.BidRecord, f models.RecordFilter) ([]models.RatioPoint, error) {
	subset, err := Filter(records, f)
	if err != nil {
		return nil, err
	}
	return Ratios(subset), nil
}

// AnalysisQuery returns the premium distribution and quota/premium scatter.
func AnalysisQuery(records []models.BidRecord, f models.RecordFilter) (models.Analysis, error) {
	subset, err := Filter(records, f)
	if err != nil {
		return models.Analysis{}, err
	}
	dist := make([]float64, len(subset))
	for i, r := range subset {
		dist[i] = r.Premium
	}
	return models.Analysis{
		Distribution: dist,
		Scatter:      Ratios(subset),
		Count:        len(subset),
	}, nil
}

// TimeseriesQuery returns matching rounds in chronological order with their
// moving average, ratios and premium change.
func TimeseriesQuery(records []models.BidRecord, f models.RecordFilter, window int) ([]models.TimeseriesPoint, error) {
	if window < 1 {
		return nil, &InvalidWindowError{Window: window}
	}
	subset, err := Filter(records, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(subset, func(i, j int) bool {
		a, b := subset[i], subset[j]
		if !a.PeriodDate.Equal(b.PeriodDate) {
			return a.PeriodDate.Before(b.PeriodDate)
		}
		return a.BiddingNo < b.BiddingNo
	})

	premiums := make([]models.Number, len(subset))
	for i, r := range subset {
		premiums[i] = models.Some(r.Premium)
	}
	ma, err := MovingAverage(premiums, window)
	if err != nil {
		return nil, err
	}
	pct := PctChange(premiums)

	out := make([]models.TimeseriesPoint, len(subset))
	for i, r := range subset {
		out[i] = models.TimeseriesPoint{
			PeriodLabel:  r.PeriodLabel,
			BiddingNo:    r.BiddingNo,
			Category:     r.Category,
			Quota:        r.Quota,
			BidsReceived: r.BidsReceived,
			Premium:      r.Premium,
			MovingAvg:    ma[i],
			DemandRatio:  DemandRatio(r),
			SuccessRate:  SuccessRate(r),
			PctChange:    pct[i],
		}
	}
	return out, nil
}

// Categories returns the distinct categories of records, sorted.
func Categories(records []models.BidRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
