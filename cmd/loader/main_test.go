package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"COEAnalytics/internal/domain/models"
	"COEAnalytics/pkg/config"
	applogger "COEAnalytics/pkg/logger"
)

func loaderConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
environment: test
store:
  backend: memory
cache:
  backend: memory
`))
	require.NoError(t, err)
	return cfg
}

func TestBuildSink_StoreRequiresClickHouse(t *testing.T) {
	sink, closeFn, err := buildSink(loaderConfig(t), applogger.Nop(), "store", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clickhouse")
	assert.Nil(t, sink)
	assert.Nil(t, closeFn)
}

func TestBuildSink_UnknownMode(t *testing.T) {
	_, _, err := buildSink(loaderConfig(t), applogger.Nop(), "stdout", "")
	require.Error(t, err)
}

func TestBuildSink_APIPostsBatch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	sink, closeFn, err := buildSink(loaderConfig(t), applogger.Nop(), "api", srv.URL+"/")
	require.NoError(t, err)
	defer closeFn()

	err = sink(context.Background(), models.RawBatch{BatchID: "run-0001", Rows: []models.RawRow{{"month": "2021-01"}}})
	require.NoError(t, err)
	assert.Equal(t, "/api/ingest", gotPath)
}
