package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"COEAnalytics/internal/domain/models"
	domrepo "COEAnalytics/internal/domain/repository"
	"COEAnalytics/internal/services/bidstats"
	"COEAnalytics/pkg/cache"
	applogger "COEAnalytics/pkg/logger"
)

// QueryCachePrefix namespaces every cached query response.
const QueryCachePrefix = "coe:"

const maxReportedReasons = 20

// IngestReport summarizes one ingested batch.
type IngestReport struct {
	BatchID  string   `json:"batch_id"`
	Source   string   `json:"source,omitempty"`
	Accepted int      `json:"accepted"`
	Dropped  int      `json:"dropped"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Generation counts stored batches. A query computed while it moved must not
// be cached.
type Generation struct {
	n atomic.Uint64
}

// Current returns the number of stored batches; a nil Generation is always 0.
func (g *Generation) Current() uint64 {
	if g == nil {
		return 0
	}
	return g.n.Load()
}

func (g *Generation) bump() { g.n.Add(1) }

// IngestUseCase normalizes raw rows, persists them and invalidates cached queries.
type IngestUseCase struct {
	store   domrepo.RecordStore
	cache   cache.Service
	metrics domrepo.Metrics
	log     *applogger.Logger
	gen     Generation
}

func NewIngestUseCase(store domrepo.RecordStore, c cache.Service, metrics domrepo.Metrics, log *applogger.Logger) *IngestUseCase {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &IngestUseCase{store: store, cache: c, metrics: metrics, log: log}
}

// Generation is advanced after every stored batch, before cache invalidation.
func (uc *IngestUseCase) Generation() *Generation { return &uc.gen }

// Ingest stores every row that normalizes cleanly. A batch with a missing
// column is rejected as a whole with *bidstats.SchemaError.
func (uc *IngestUseCase) Ingest(ctx context.Context, batch models.RawBatch) (*IngestReport, error) {
	if batch.BatchID == "" {
		batch.BatchID = uuid.NewString()
	}
	if batch.Source == "" {
		batch.Source = "api"
	}
	start := time.Now()

	res, err := bidstats.Normalize(batch.Rows)
	if err != nil {
		uc.metrics.RecordError("ingest_schema")
		return nil, fmt.Errorf("batch %s: %w", batch.BatchID, err)
	}

	if len(res.Records) > 0 {
		if err := uc.store.SaveBatch(ctx, res.Records); err != nil {
			uc.metrics.RecordError("ingest_store")
			return nil, fmt.Errorf("save batch %s: %w", batch.BatchID, err)
		}
		// bump before invalidating so in-flight queries drop their result
		uc.gen.bump()
		if err := uc.cache.DeleteByPattern(ctx, cache.BuildPattern(QueryCachePrefix)); err != nil {
			uc.log.Warn("ingest: cache invalidation failed", applogger.Error(err))
		}
	}

	report := &IngestReport{
		BatchID:  batch.BatchID,
		Source:   batch.Source,
		Accepted: len(res.Records),
		Dropped:  len(res.Dropped),
	}
	for i, d := range res.Dropped {
		if i == maxReportedReasons {
			report.Reasons = append(report.Reasons, fmt.Sprintf("... and %d more", len(res.Dropped)-i))
			break
		}
		report.Reasons = append(report.Reasons, d.Error())
	}

	uc.metrics.RecordIngest(batch.Source, report.Accepted, report.Dropped)
	uc.metrics.RecordLatency("ingest", time.Since(start).Seconds())
	uc.log.Info("ingest: batch stored",
		applogger.String("batch_id", report.BatchID),
		applogger.String("source", report.Source),
		applogger.Int("accepted", report.Accepted),
		applogger.Int("dropped", report.Dropped),
	)
	return report, nil
}
