package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"COEAnalytics/internal/domain/models"
	"COEAnalytics/internal/services/bidstats"
	"COEAnalytics/internal/source"
	applogger "COEAnalytics/pkg/logger"
)

// BatchSink receives raw batches read by the loader.
type BatchSink func(ctx context.Context, batch models.RawBatch) error

// LoadReport summarizes one loader run.
type LoadReport struct {
	RunID   string
	Rows    int
	Batches int
	// Records holds the normalized rows when a snapshot was requested.
	Records []models.BidRecord
	Dropped int
}

// LoadUseCase streams a CSV export into a sink in fixed-size batches.
type LoadUseCase struct {
	opener    *source.Opener
	batchSize int
	log       *applogger.Logger
}

func NewLoadUseCase(opener *source.Opener, batchSize int, log *applogger.Logger) *LoadUseCase {
	if opener == nil {
		opener = source.NewOpener()
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &LoadUseCase{opener: opener, batchSize: batchSize, log: log}
}

// Load reads uri and hands each batch to sink. With keep set, rows are also
// normalized locally and returned in the report for snapshotting.
func (uc *LoadUseCase) Load(ctx context.Context, uri, sourceName string, sink BatchSink, keep bool) (*LoadReport, error) {
	rep := &LoadReport{RunID: uuid.NewString()}
	start := time.Now()

	rc, err := uc.opener.Open(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	defer rc.Close()

	rows, err := source.ReadCSV(rc, uc.batchSize, func(rows []models.RawRow) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rep.Batches++
		batch := models.RawBatch{
			BatchID: fmt.Sprintf("%s-%04d", rep.RunID, rep.Batches),
			Source:  sourceName,
			Rows:    rows,
		}
		if keep {
			res, err := bidstats.Normalize(rows)
			if err != nil {
				return fmt.Errorf("batch %s: %w", batch.BatchID, err)
			}
			rep.Records = append(rep.Records, res.Records...)
			rep.Dropped += len(res.Dropped)
		}
		if err := sink(ctx, batch); err != nil {
			return fmt.Errorf("batch %s: %w", batch.BatchID, err)
		}
		return nil
	})
	rep.Rows = rows
	if err != nil {
		return rep, fmt.Errorf("load %s: %w", uri, err)
	}

	uc.log.Info("load complete",
		applogger.String("uri", uri),
		applogger.String("run_id", rep.RunID),
		applogger.Int("rows", rep.Rows),
		applogger.Int("batches", rep.Batches),
		applogger.Duration("took", time.Since(start)),
	)
	return rep, nil
}
