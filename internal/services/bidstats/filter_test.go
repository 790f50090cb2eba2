package bidstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"COEAnalytics/internal/domain/models"
)

func TestFilter(t *testing.T) {
	records := []models.BidRecord{
		rec(2022, time.May, "Category B", 10, 1),
		rec(2019, time.January, "Category A", 10, 2),
		rec(2020, time.June, "Category A", 10, 3),
		rec(2021, time.March, "Category B", 10, 4),
	}

	tests := []struct {
		name string
		f    models.RecordFilter
		want []float64
	}{
		{"all upper", models.RecordFilter{Category: "ALL"}, []float64{1, 2, 3, 4}},
		{"all lower", models.RecordFilter{Category: "all"}, []float64{1, 2, 3, 4}},
		{"empty category", models.RecordFilter{}, []float64{1, 2, 3, 4}},
		{"single category", models.RecordFilter{Category: "Category A"}, []float64{2, 3}},
		{"start only", models.RecordFilter{YearStart: intp(2021)}, []float64{1, 4}},
		{"end only", models.RecordFilter{YearEnd: intp(2020)}, []float64{2, 3}},
		{"inclusive range", models.RecordFilter{Category: "Category B", YearStart: intp(2021), YearEnd: intp(2022)}, []float64{1, 4}},
		{"same year", models.RecordFilter{YearStart: intp(2020), YearEnd: intp(2020)}, []float64{3}},
		{"no match", models.RecordFilter{Category: "Category E"}, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(records, tt.f)
			require.NoError(t, err)
			premiums := make([]float64, 0, len(got))
			for _, r := range got {
				premiums = append(premiums, r.Premium)
			}
			assert.Equal(t, tt.want, premiums)
		})
	}
}

func TestFilter_InvertedRange(t *testing.T) {
	got, err := Filter(sampleRecords(), models.RecordFilter{YearStart: intp(2022), YearEnd: intp(2021)})
	require.Error(t, err)
	assert.Nil(t, got)

	var re *InvalidRangeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 2022, re.Start)
	assert.Equal(t, 2021, re.End)
	assert.True(t, IsClientError(err))
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	before := append([]models.BidRecord(nil), records...)
	_, err := Filter(records, models.RecordFilter{Category: "Category A"})
	require.NoError(t, err)
	assert.Equal(t, before, records)
}
