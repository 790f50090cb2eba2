package bidstats

import (
	"time"

	"COEAnalytics/internal/domain/models"
)

func rec(year int, month time.Month, class string, quota int, premium float64) models.BidRecord {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return models.BidRecord{
		PeriodLabel:    d.Format("2006-01"),
		PeriodDate:     d,
		Category:       class,
		BiddingNo:      1,
		Quota:          quota,
		BidsReceived:   quota + quota/2,
		BidsSuccessful: quota,
		Premium:        premium,
	}
}

func intp(v int) *int { return &v }

func numbers(vals ...float64) []models.Number {
	out := make([]models.Number, len(vals))
	for i, v := range vals {
		out[i] = models.Some(v)
	}
	return out
}

func sampleRecords() []models.BidRecord {
	return []models.BidRecord{
		rec(2021, time.January, "Category A", 100, 50000),
		rec(2021, time.February, "Category A", 100, 55000),
		rec(2021, time.March, "Category A", 100, 60000),
	}
}
