package bidstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"COEAnalytics/internal/domain/models"
)

func TestMovingAverage_WarmUp(t *testing.T) {
	values := numbers(10, 20, 30, 40, 50, 60)
	for window := 1; window <= len(values)+1; window++ {
		ma, err := MovingAverage(values, window)
		require.NoError(t, err)
		require.Len(t, ma, len(values))
		for i, v := range ma {
			if i < window-1 {
				assert.False(t, v.Valid, "window=%d i=%d", window, i)
				continue
			}
			require.True(t, v.Valid, "window=%d i=%d", window, i)
			var sum float64
			for j := i - window + 1; j <= i; j++ {
				sum += values[j].Value
			}
			assert.InDelta(t, sum/float64(window), v.Value, 1e-9)
		}
	}
}

func TestMovingAverage_GapBreaksWindow(t *testing.T) {
	values := []models.Number{
		models.Some(1), models.Some(2), models.Absent(), models.Some(4), models.Some(5), models.Some(6),
	}
	ma, err := MovingAverage(values, 2)
	require.NoError(t, err)

	assert.False(t, ma[0].Valid)
	assert.Equal(t, models.Some(1.5), ma[1])
	assert.False(t, ma[2].Valid, "absent point itself")
	assert.False(t, ma[3].Valid, "window spans the gap")
	assert.Equal(t, models.Some(4.5), ma[4])
	assert.Equal(t, models.Some(5.5), ma[5])
}

func TestMovingAverage_InvalidWindow(t *testing.T) {
	for _, w := range []int{0, -3} {
		_, err := MovingAverage(numbers(1, 2), w)
		var we *InvalidWindowError
		require.ErrorAs(t, err, &we)
		assert.Equal(t, w, we.Window)
		assert.True(t, IsClientError(err))
	}
}

func TestPctChange(t *testing.T) {
	values := []models.Number{
		models.Some(100), models.Some(110), models.Some(0), models.Some(50), models.Absent(), models.Some(20), models.Some(10),
	}
	pct := PctChange(values)
	require.Len(t, pct, len(values))

	assert.False(t, pct[0].Valid, "no prior point")
	assert.InDelta(t, 10, pct[1].Value, 1e-9)
	assert.InDelta(t, -100, pct[2].Value, 1e-9)
	assert.False(t, pct[3].Valid, "prior value is zero")
	assert.False(t, pct[4].Valid, "current absent")
	assert.False(t, pct[5].Valid, "prior absent")
	assert.InDelta(t, -50, pct[6].Value, 1e-9)
}

func TestSmooth_SingleYear(t *testing.T) {
	points, err := Aggregate(sampleRecords(), models.AxisYear, models.StatMean, false)
	require.NoError(t, err)
	smoothed, err := Smooth(points, 2, true)
	require.NoError(t, err)

	require.Len(t, smoothed, 1)
	assert.Equal(t, 2021, smoothed[0].Key.Value)
	assert.Equal(t, models.Some(55000), smoothed[0].Premium)
	assert.False(t, smoothed[0].MovingAvg.Valid)
	assert.False(t, smoothed[0].PctChange.Valid)
}

func TestSmooth_MonthAxisGaps(t *testing.T) {
	points, err := Aggregate(sampleRecords(), models.AxisMonth, models.StatMean, false)
	require.NoError(t, err)
	smoothed, err := Smooth(points, 2, false)
	require.NoError(t, err)

	require.Len(t, smoothed, 12)
	assert.False(t, smoothed[0].MovingAvg.Valid)
	assert.Equal(t, models.Some(52500), smoothed[1].MovingAvg)
	assert.Equal(t, models.Some(57500), smoothed[2].MovingAvg)
	for i := 3; i < 12; i++ {
		assert.False(t, smoothed[i].MovingAvg.Valid)
		assert.False(t, smoothed[i].PctChange.Valid)
	}
}

func TestMovingAverage_ExtremeValuesStayLocal(t *testing.T) {
	ma, err := MovingAverage(numbers(1e308, 1e308, 10, 20, 30), 2)
	require.NoError(t, err)
	assert.Equal(t, models.Some(1e308), ma[1], "overflowing sum is rescaled")
	assert.Equal(t, models.Some(15), ma[3])
	assert.Equal(t, models.Some(25), ma[4])

	ma, err = MovingAverage(numbers(1e17, 3, 5), 2)
	require.NoError(t, err)
	assert.Equal(t, models.Some(4), ma[2], "small values are not swamped by an earlier large one")
}
