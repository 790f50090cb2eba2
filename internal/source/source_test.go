package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"COEAnalytics/internal/domain/models"
	"COEAnalytics/internal/services/bidstats"
)

const sampleCSV = "\ufeffmonth,bidding_no,vehicle_class,quota,bids_success,bids_received,premium\n" +
	"2021-01,1,Category A,\"1,000\",900,\"1,500\",\"50,000\"\n" +
	"2021-01,1,Category B,800,700,1200,60000\n" +
	"2021-02,1,Category A,1000,950,1400,\n"

func TestReadCSV_Batches(t *testing.T) {
	var batches [][]models.RawRow
	n, err := ReadCSV(strings.NewReader(sampleCSV), 2, func(rows []models.RawRow) error {
		batches = append(batches, rows)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Equal(t, "2021-01", batches[0][0]["month"])
	assert.Equal(t, "50,000", batches[0][0]["premium"])
	assert.Equal(t, "", batches[1][0]["premium"])
}

func TestReadCSV_ShortRowDroppedNotRejected(t *testing.T) {
	in := "month,bidding_no,vehicle_class,quota,bids_success,bids_received,premium\n" +
		"2021-01,1,Category A,100,90,150,50000\n" +
		"2021-02,1,Category A,100\n"

	var rows []models.RawRow
	_, err := ReadCSV(strings.NewReader(in), 10, func(b []models.RawRow) error {
		rows = append(rows, b...)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[1]["premium"])
	assert.Len(t, rows[1], 7)

	res, err := bidstats.Normalize(rows)
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Len(t, res.Dropped, 1)
}

func TestReadCSV_EmptyAndCallbackError(t *testing.T) {
	n, err := ReadCSV(strings.NewReader(""), 10, func([]models.RawRow) error { return nil })
	require.NoError(t, err)
	assert.Zero(t, n)

	boom := errors.New("boom")
	_, err = ReadCSV(strings.NewReader(sampleCSV), 1, func([]models.RawRow) error { return boom })
	assert.ErrorIs(t, err, boom)
}

type fakeS3 struct {
	bucket, key string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = aws.ToString(in.Bucket), aws.ToString(in.Key)
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(sampleCSV))}, nil
}

func TestOpener(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "coe.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	fake := &fakeS3{}
	o := NewOpener(WithS3(fake))

	for _, uri := range []string{path, "file://" + path, srv.URL + "/coe.csv", "s3://raw-bucket/exports/coe.csv"} {
		rc, err := o.Open(ctx, uri)
		require.NoError(t, err, uri)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		assert.Equal(t, sampleCSV, string(b), uri)
	}
	assert.Equal(t, "raw-bucket", fake.bucket)
	assert.Equal(t, "exports/coe.csv", fake.key)

	_, err := NewOpener().Open(ctx, "s3://b/k")
	assert.Error(t, err)
	_, err = o.Open(ctx, "s3://bucket-only")
	assert.Error(t, err)
}
