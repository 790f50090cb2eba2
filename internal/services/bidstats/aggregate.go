package bidstats

import (
	"sort"
	"time"

	"COEAnalytics/internal/domain/models"
)

// Aggregate groups subset along axis and reduces premium, and quota when
// includeQuota is set, with stat.
//
// The year axis yields only observed years in ascending order. The month axis
// always yields January..December; months without records carry absent
// statistics.
func Aggregate(subset []models.BidRecord, axis models.Axis, stat models.Stat, includeQuota bool) ([]models.AggregatedPoint, error) {
	if stat != models.StatMean && stat != models.StatMedian {
		return nil, &InvalidOptionError{Option: "aggregation", Value: string(stat)}
	}
	switch axis {
	case models.AxisYear:
		return aggregateByYear(subset, stat, includeQuota), nil
	case models.AxisMonth:
		return aggregateByMonth(subset, stat, includeQuota), nil
	default:
		return nil, &InvalidOptionError{Option: "axis", Value: string(axis)}
	}
}

func aggregateByYear(subset []models.BidRecord, stat models.Stat, includeQuota bool) []models.AggregatedPoint {
	groups := make(map[int][]models.BidRecord)
	for _, r := range subset {
		groups[r.Year()] = append(groups[r.Year()], r)
	}
	years := make([]int, 0, len(groups))
	for y := range groups {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]models.AggregatedPoint, 0, len(years))
	for _, y := range years {
		out = append(out, reduceGroup(models.YearKey(y), groups[y], stat, includeQuota))
	}
	return out
}

func aggregateByMonth(subset []models.BidRecord, stat models.Stat, includeQuota bool) []models.AggregatedPoint {
	var groups [12][]models.BidRecord
	for _, r := range subset {
		m := r.PeriodDate.Month() - 1
		groups[m] = append(groups[m], r)
	}
	out := make([]models.AggregatedPoint, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, reduceGroup(models.MonthKey(m), groups[m-1], stat, includeQuota))
	}
	return out
}

func reduceGroup(key models.GroupKey, group []models.BidRecord, stat models.Stat, includeQuota bool) models.AggregatedPoint {
	p := models.AggregatedPoint{Key: key, Count: len(group)}
	premiums := make([]float64, len(group))
	for i, r := range group {
		premiums[i] = r.Premium
	}
	p.Premium = reduce(premiums, stat)
	if includeQuota {
		quotas := make([]float64, len(group))
		for i, r := range group {
			quotas[i] = float64(r.Quota)
		}
		p.Quota = reduce(quotas, stat)
	}
	return p
}

// reduce returns the mean or median of values; absent for an empty slice.
func reduce(values []float64, stat models.Stat) models.Number {
	if len(values) == 0 {
		return models.Absent()
	}
	if stat == models.StatMedian {
		return median(values)
	}
	return mean(values)
}

func mean(values []float64) models.Number {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return models.Some(sum / float64(len(values)))
}

func median(values []float64) models.Number {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return models.Some(sorted[n/2])
	}
	return models.Some((sorted[n/2-1] + sorted[n/2]) / 2)
}
