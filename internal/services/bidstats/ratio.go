package bidstats

import "COEAnalytics/internal/domain/models"

// DemandRatio is bids received over quota; absent when quota is 0.
func DemandRatio(r models.BidRecord) models.Number {
	if r.Quota <= 0 {
		return models.Absent()
	}
	return models.Some(float64(r.BidsReceived) / float64(r.Quota))
}

// SuccessRate is successful bids over bids received; absent when no bids
// were received.
func SuccessRate(r models.BidRecord) models.Number {
	if r.BidsReceived <= 0 {
		return models.Absent()
	}
	return models.Some(float64(r.BidsSuccessful) / float64(r.BidsReceived))
}

// Ratios maps each record to its ratio point, keeping order.
func Ratios(records []models.BidRecord) []models.RatioPoint {
	out := make([]models.RatioPoint, len(records))
	for i, r := range records {
		out[i] = models.RatioPoint{
			PeriodLabel: r.PeriodLabel,
			Category:    r.Category,
			Quota:       r.Quota,
			Premium:     r.Premium,
			DemandRatio: DemandRatio(r),
		}
	}
	return out
}
