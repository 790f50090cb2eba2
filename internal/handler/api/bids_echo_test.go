package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"COEAnalytics/internal/domain/models"
	domrepo "COEAnalytics/internal/domain/repository"
	"COEAnalytics/internal/repository"
	"COEAnalytics/internal/services/bidstats"
	"COEAnalytics/internal/usecase"
	"COEAnalytics/pkg/cache"
	xlogger "COEAnalytics/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordIngest(string, int, int)  {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordCacheResult(string, bool) {}
func (nopMetrics) RecordLatency(string, float64)  {}

type downStore struct{ *repository.MemoryBidStore }

func (downStore) Health(context.Context) error { return errors.New("dial tcp: refused") }

func (downStore) Snapshot(context.Context, models.RecordFilter) ([]models.BidRecord, error) {
	return nil, errors.New("dial tcp: refused")
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

var testDefaults = bidstats.Defaults{Category: models.AllCategories, Window: 2, Axis: models.AxisYear, Stat: models.StatMean}

func newTestEcho(t *testing.T, store domrepo.RecordStore) *echo.Echo {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })

	ingest := usecase.NewIngestUseCase(store, mc, nopMetrics{}, xlogger.Nop())
	query := usecase.NewQueryUseCase(store, testDefaults, nopMetrics{},
		usecase.WithQueryCache(mc, time.Minute),
		usecase.WithQueryGeneration(ingest.Generation()))
	e := echo.New()
	NewBidsEchoHandler(xlogger.Nop(), query, ingest, store).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

const sampleIngest = `{"rows":[
	{"month":"2021-01","vehicle_class":"Category A","bidding_no":1,"quota":100,"bids_success":100,"bids_received":150,"premium":"50,000"},
	{"month":"2021-02","vehicle_class":"Category A","bidding_no":1,"quota":100,"bids_success":100,"bids_received":150,"premium":55000},
	{"month":"2021-03","vehicle_class":"Category A","bidding_no":1,"quota":100,"bids_success":100,"bids_received":150,"premium":60000}
]}`

func seeded(t *testing.T) *echo.Echo {
	t.Helper()
	e := newTestEcho(t, repository.NewMemoryBidStore())
	rec, env := do(e, http.MethodPost, "/api/ingest", sampleIngest)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep usecase.IngestReport
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	require.Equal(t, 3, rep.Accepted)
	require.Equal(t, "api", rep.Source)
	return e
}

func TestPremium_YearAxis(t *testing.T) {
	e := seeded(t)
	rec, env := do(e, http.MethodGet, "/api/premium?vehicle_class=ALL&window=2&x_axis_mode=Year&aggregation=mean", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		VehicleClass string            `json:"vehicle_class"`
		Window       int               `json:"window"`
		XAxisMode    string            `json:"x_axis_mode"`
		Data         []json.RawMessage `json:"data"`
		Count        int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "ALL", res.VehicleClass)
	assert.Equal(t, "Year", res.XAxisMode)
	require.Equal(t, 1, res.Count)
	assert.JSONEq(t, `{"x_axis":2021,"x_label":"2021","premium":55000,"moving_avg":null,"pct_change":null}`, string(res.Data[0]))
}

func TestPremium_MonthAxisHasTwelvePoints(t *testing.T) {
	e := seeded(t)
	rec, env := do(e, http.MethodGet, "/api/premium?vehicle_class=Category%20A&window=1&x_axis_mode=month", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res usecase.PremiumResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Data, 12)
	assert.Equal(t, models.Some(60000), res.Data[2].Premium)
	assert.False(t, res.Data[3].Premium.Valid)
	assert.NotContains(t, rec.Body.String(), "NaN")
}

func TestPremium_AcceptsEveryAxisSpelling(t *testing.T) {
	e := seeded(t)
	for mode, want := range map[string]string{
		"Year":       "Year",
		"year":       "Year",
		"Month":      "Month",
		"MONTH":      "Month",
		"MonthName":  "Month",
		"month_name": "Month",
	} {
		rec, env := do(e, http.MethodGet, "/api/premium?x_axis_mode="+mode, "")
		require.Equal(t, http.StatusOK, rec.Code, mode)

		var res struct {
			XAxisMode string `json:"x_axis_mode"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.Equal(t, want, res.XAxisMode, mode)
	}
}

func TestPremium_BadRequests(t *testing.T) {
	e := seeded(t)
	for _, target := range []string{
		"/api/premium?start_year=2023&end_year=2020",
		"/api/premium?window=-1",
		"/api/premium?window=500",
		"/api/premium?x_axis_mode=Quarter",
		"/api/premium?aggregation=max",
		"/api/premium?window=six",
		"/api/timeseries?window=-3",
		"/api/analysis?start_year=2022&end_year=2021",
	} {
		rec, env := do(e, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, http.StatusBadRequest, env.Status, target)
	}
}

func TestSeasonality(t *testing.T) {
	e := seeded(t)
	rec, env := do(e, http.MethodGet, "/api/seasonality?vehicle_class=Category%20A", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res usecase.SeasonalityResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Equal(t, 12, res.Count)
	assert.Equal(t, "January", res.Data[0].MonthName)
	assert.Equal(t, models.Some(100), res.Data[0].Quota)
}

func TestAnalysisTimeseriesCategories(t *testing.T) {
	e := seeded(t)

	rec, env := do(e, http.MethodGet, "/api/analysis?start_year=2021&end_year=2021", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var a usecase.AnalysisResult
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, 3, a.Count)

	rec, env = do(e, http.MethodGet, "/api/timeseries?vehicle_class=Category%20A&window=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ts usecase.TimeseriesResult
	require.NoError(t, json.Unmarshal(env.Data, &ts))
	require.Len(t, ts.Data, 3)
	assert.Equal(t, models.Some(57500), ts.Data[2].MovingAvg)

	rec, env = do(e, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Category A"]`, string(env.Data))
}

func TestIngest_Rejections(t *testing.T) {
	e := newTestEcho(t, repository.NewMemoryBidStore())

	rec, _ := do(e, http.MethodPost, "/api/ingest", `{"rows":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := do(e, http.MethodPost, "/api/ingest", `{"rows":[{"month":"2021-01"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "missing required field")
}

func TestStoreFailures(t *testing.T) {
	e := newTestEcho(t, downStore{repository.NewMemoryBidStore()})

	rec, env := do(e, http.MethodGet, "/api/premium", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, string(env.Data), "refused")

	rec, _ = do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthz(t *testing.T) {
	e := newTestEcho(t, repository.NewMemoryBidStore())
	rec, env := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}
