package bidstats

import (
	"math"

	"COEAnalytics/internal/domain/models"
)

// MovingAverage computes a strict trailing mean. Position i is defined only
// when i >= window-1 and every value in [i-window+1, i] is defined.
func MovingAverage(values []models.Number, window int) ([]models.Number, error) {
	if window < 1 {
		return nil, &InvalidWindowError{Window: window}
	}
	out := make([]models.Number, len(values))
	run := 0 // consecutive defined values ending at i
	for i, v := range values {
		if !v.Valid {
			run = 0
			continue
		}
		run++
		if run < window {
			continue
		}
		// each window is summed on its own so one huge value cannot
		// poison or swamp later windows
		out[i] = windowMean(values[i-window+1 : i+1])
	}
	return out, nil
}

// windowMean averages defined values, scaling first when the plain sum
// overflows.
func windowMean(vals []models.Number) models.Number {
	n := float64(len(vals))
	var sum float64
	for _, v := range vals {
		sum += v.Value
	}
	if !math.IsInf(sum, 0) {
		return models.Some(sum / n)
	}
	sum = 0
	for _, v := range vals {
		sum += v.Value / n
	}
	return models.Some(sum)
}

// PctChange returns (v[i]-v[i-1])/v[i-1]*100. Position 0, positions next to
// an absent value and positions whose prior value is 0 are absent.
func PctChange(values []models.Number) []models.Number {
	out := make([]models.Number, len(values))
	for i := 1; i < len(values); i++ {
		prev, cur := values[i-1], values[i]
		if !prev.Valid || !cur.Valid || prev.Value == 0 {
			continue
		}
		out[i] = models.Some((cur.Value - prev.Value) / prev.Value * 100)
	}
	return out
}

// Smooth annotates points with the trailing moving average of their premium
// statistic and, when withPct is set, its percentage change.
func Smooth(points []models.AggregatedPoint, window int, withPct bool) ([]models.SmoothedPoint, error) {
	premiums := make([]models.Number, len(points))
	for i, p := range points {
		premiums[i] = p.Premium
	}
	ma, err := MovingAverage(premiums, window)
	if err != nil {
		return nil, err
	}
	var pct []models.Number
	if withPct {
		pct = PctChange(premiums)
	}

	out := make([]models.SmoothedPoint, len(points))
	for i, p := range points {
		out[i] = models.SmoothedPoint{AggregatedPoint: p, MovingAvg: ma[i]}
		if withPct {
			out[i].PctChange = pct[i]
		}
	}
	return out, nil
}
