package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordIngest("kafka", 10, 2)
	r.RecordIngest("kafka", 5, 0)
	r.RecordError("store_save")
	r.RecordCacheResult("premium", true)
	r.RecordCacheResult("premium", false)
	r.RecordCacheResult("premium", false)
	r.RecordLatency("query_premium", 0.02)

	assert.Equal(t, 15.0, testutil.ToFloat64(r.rowsIngested.WithLabelValues("kafka", "accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.rowsIngested.WithLabelValues("kafka", "dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("store_save")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheResults.WithLabelValues("premium", "miss")))

	n, err := testutil.GatherAndCount(reg, "coe_operation_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}
