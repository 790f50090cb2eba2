package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"COEAnalytics/internal/domain/models"
	"COEAnalytics/internal/repository"
)

const loadCSV = "month,bidding_no,vehicle_class,quota,bids_success,bids_received,premium\n" +
	"2021-01,1,Category A,\"1,000\",900,\"1,500\",\"50,000\"\n" +
	"2021-01,1,Category B,800,700,1200,60000\n" +
	"2021-02,1,Category A,1000,950,1400,\n"

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bids.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_BatchesIntoSink(t *testing.T) {
	path := writeCSV(t, loadCSV)
	uc := NewLoadUseCase(nil, 2, nil)

	var got []models.RawBatch
	rep, err := uc.Load(context.Background(), path, "loader", func(_ context.Context, b models.RawBatch) error {
		got = append(got, b)
		return nil
	}, true)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Rows)
	assert.Equal(t, 2, rep.Batches)
	require.Len(t, got, 2)
	assert.True(t, strings.HasPrefix(got[0].BatchID, rep.RunID))
	assert.NotEqual(t, got[0].BatchID, got[1].BatchID)
	assert.Equal(t, "loader", got[1].Source)

	assert.Len(t, rep.Records, 2)
	assert.Equal(t, 1, rep.Dropped)
	assert.Equal(t, 50000.0, rep.Records[0].Premium)
}

func TestLoad_IntoStore(t *testing.T) {
	store := repository.NewMemoryBidStore()
	ingest := NewIngestUseCase(store, nil, &fakeMetrics{}, nil)
	uc := NewLoadUseCase(nil, 10, nil)

	rep, err := uc.Load(context.Background(), writeCSV(t, loadCSV), "loader", func(ctx context.Context, b models.RawBatch) error {
		_, err := ingest.Ingest(ctx, b)
		return err
	}, false)
	require.NoError(t, err)
	assert.Empty(t, rep.Records, "no snapshot requested")
	assert.Equal(t, 2, store.Len())
}

func TestLoad_SinkFailureStops(t *testing.T) {
	boom := errors.New("broker down")
	calls := 0
	uc := NewLoadUseCase(nil, 1, nil)

	rep, err := uc.Load(context.Background(), writeCSV(t, loadCSV), "loader", func(context.Context, models.RawBatch) error {
		calls++
		return boom
	}, false)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, rep.Batches)
}

func TestLoad_SchemaErrorWithSnapshot(t *testing.T) {
	path := writeCSV(t, "month,vehicle_class,premium\n2021-01,Category A,1\n")
	uc := NewLoadUseCase(nil, 10, nil)

	_, err := uc.Load(context.Background(), path, "loader", func(context.Context, models.RawBatch) error { return nil }, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
}

func TestLoad_MissingSource(t *testing.T) {
	uc := NewLoadUseCase(nil, 10, nil)
	_, err := uc.Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), "loader", nil, false)
	require.Error(t, err)
}
