package bidstats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"COEAnalytics/internal/domain/models"
)

func rawRow(month, class string, quota, success, received, premium any) models.RawRow {
	return models.RawRow{
		FieldMonth:        month,
		FieldCategory:     class,
		FieldBiddingNo:    "1",
		FieldQuota:        quota,
		FieldBidsSuccess:  success,
		FieldBidsReceived: received,
		FieldPremium:      premium,
	}
}

func TestNormalize_CommaFormattedValues(t *testing.T) {
	res, err := Normalize([]models.RawRow{
		rawRow("2021-03", "Category A", "1,234", "1,200", "1,876", "52,001"),
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Empty(t, res.Dropped)

	r := res.Records[0]
	assert.Equal(t, "2021-03", r.PeriodLabel)
	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), r.PeriodDate)
	assert.Equal(t, "Category A", r.Category)
	assert.Equal(t, 1, r.BiddingNo)
	assert.Equal(t, 1234, r.Quota)
	assert.Equal(t, 1200, r.BidsSuccessful)
	assert.Equal(t, 1876, r.BidsReceived)
	assert.Equal(t, 52001.0, r.Premium)
}

func TestNormalize_TypedInputs(t *testing.T) {
	res, err := Normalize([]models.RawRow{
		{
			FieldMonth:        time.Date(2020, 7, 15, 10, 0, 0, 0, time.UTC),
			FieldCategory:     "Category B",
			FieldQuota:        float64(500),
			FieldBidsSuccess:  int64(480),
			FieldBidsReceived: json.Number("700"),
			FieldPremium:      72000.5,
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	r := res.Records[0]
	assert.Equal(t, "2020-07", r.PeriodLabel)
	assert.Equal(t, 1, r.PeriodDate.Day())
	assert.Equal(t, 0, r.BiddingNo)
	assert.Equal(t, 500, r.Quota)
	assert.Equal(t, 480, r.BidsSuccessful)
	assert.Equal(t, 700, r.BidsReceived)
	assert.InDelta(t, 72000.5, r.Premium, 1e-9)
}

func TestNormalize_DropsUnparsableRows(t *testing.T) {
	tests := []struct {
		name  string
		row   models.RawRow
		field string
	}{
		{"bad month", rawRow("March", "Category A", "1", "1", "1", "1"), FieldMonth},
		{"empty category", rawRow("2021-01", "  ", "1", "1", "1", "1"), FieldCategory},
		{"text quota", rawRow("2021-01", "Category A", "n/a", "1", "1", "1"), FieldQuota},
		{"fractional quota", rawRow("2021-01", "Category A", "10.5", "1", "1", "1"), FieldQuota},
		{"negative bids", rawRow("2021-01", "Category A", "1", "-1", "1", "1"), FieldBidsSuccess},
		{"nil received", rawRow("2021-01", "Category A", "1", "1", nil, "1"), FieldBidsReceived},
		{"empty premium", rawRow("2021-01", "Category A", "1", "1", "1", ""), FieldPremium},
		{"negative premium", rawRow("2021-01", "Category A", "1", "1", "1", "-5"), FieldPremium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := rawRow("2021-02", "Category A", "100", "90", "150", "50000")
			res, err := Normalize([]models.RawRow{tt.row, good})
			require.NoError(t, err)
			require.Len(t, res.Records, 1, "bad row must be excluded, not zero-filled")
			assert.Equal(t, "2021-02", res.Records[0].PeriodLabel)
			require.Len(t, res.Dropped, 1)
			assert.Equal(t, 0, res.Dropped[0].Row)
			assert.Equal(t, tt.field, res.Dropped[0].Field)
		})
	}
}

func TestNormalize_UnparsableBiddingNo(t *testing.T) {
	row := rawRow("2021-01", "Category A", "1", "1", "1", "1")
	row[FieldBiddingNo] = "first"
	res, err := Normalize([]models.RawRow{row})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, FieldBiddingNo, res.Dropped[0].Field)
}

func TestNormalize_MissingFieldIsSchemaError(t *testing.T) {
	row := rawRow("2021-01", "Category A", "1", "1", "1", "1")
	delete(row, FieldPremium)

	res, err := Normalize([]models.RawRow{rawRow("2021-02", "Category A", "1", "1", "1", "1"), row})
	require.Error(t, err)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Row)
	assert.Equal(t, FieldPremium, se.Field)
	assert.Empty(t, res.Records)
}

func TestNormalize_PreservesInputOrder(t *testing.T) {
	res, err := Normalize([]models.RawRow{
		rawRow("2022-05", "Category C", "1", "1", "1", "3"),
		rawRow("2019-01", "Category A", "1", "1", "1", "1"),
		rawRow("2020-09", "Category B", "1", "1", "1", "2"),
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Equal(t, []string{"2022-05", "2019-01", "2020-09"},
		[]string{res.Records[0].PeriodLabel, res.Records[1].PeriodLabel, res.Records[2].PeriodLabel})
}
