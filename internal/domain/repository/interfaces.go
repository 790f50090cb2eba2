package repository

import (
	"context"

	"COEAnalytics/internal/domain/models"
)

// RecordStore holds normalized bidding records. Snapshot returns a
// point-in-time copy the caller may keep.
type RecordStore interface {
	Snapshot(ctx context.Context, f models.RecordFilter) ([]models.BidRecord, error)
	SaveBatch(ctx context.Context, records []models.BidRecord) error
	Categories(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error
	Close() error
}

// RowPublisher ships raw batches to the ingestion topic.
type RowPublisher interface {
	PublishBatch(ctx context.Context, batch models.RawBatch) error
	Close() error
}

type Metrics interface {
	RecordIngest(source string, accepted, dropped int)
	RecordError(kind string)
	RecordCacheResult(endpoint string, hit bool)
	RecordLatency(op string, seconds float64)
}
