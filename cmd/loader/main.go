package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"COEAnalytics/internal/di"
	"COEAnalytics/internal/domain/models"
	"COEAnalytics/internal/export"
	internalrepo "COEAnalytics/internal/repository"
	"COEAnalytics/internal/usecase"
	"COEAnalytics/pkg/config"
	xhttp "COEAnalytics/pkg/http"
	applogger "COEAnalytics/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	src := flag.String("source", "", "CSV location: path, file://, http(s):// or s3://bucket/key (default source.uri)")
	mode := flag.String("mode", "kafka", "destination: kafka, store or api")
	snapshot := flag.String("snapshot", "", "write normalized records to this Parquet file")
	batchSize := flag.Int("batch-size", 0, "rows per batch (default source.batch_size)")
	apiURL := flag.String("api-url", "http://localhost:8000", "base URL for -mode api")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *src != "" {
		cfg.Source.URI = *src
	}
	if *batchSize > 0 {
		cfg.Source.BatchSize = *batchSize
	}
	if cfg.Source.URI == "" {
		log.Fatalf("no source: set -source or source.uri")
	}

	if err := run(cfg, *mode, *snapshot, *apiURL); err != nil {
		log.Printf("loader error: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, mode, snapshot, apiURL string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := di.ProvideLogger(cfg)
	if err != nil {
		return err
	}
	opener, err := di.ProvideSourceOpener(cfg)
	if err != nil {
		return err
	}

	sink, closeSink, err := buildSink(cfg, l, mode, apiURL)
	if err != nil {
		return err
	}
	defer closeSink()

	loader := usecase.NewLoadUseCase(opener, cfg.Source.BatchSize, l)
	rep, err := loader.Load(ctx, cfg.Source.URI, "loader", sink, snapshot != "")
	if err != nil {
		return err
	}

	if snapshot != "" {
		if err := export.WriteParquet(snapshot, rep.Records); err != nil {
			return err
		}
		l.Info("snapshot written",
			applogger.String("path", snapshot),
			applogger.Int("records", len(rep.Records)),
			applogger.Int("dropped", rep.Dropped),
		)
	}
	return nil
}

// buildSink returns the batch destination for mode and a cleanup func.
func buildSink(cfg *config.Config, l *applogger.Logger, mode, apiURL string) (usecase.BatchSink, func(), error) {
	switch mode {
	case "kafka":
		producer, err := di.ProvideKafkaProducer(cfg, di.ProvideRegistry())
		if err != nil {
			return nil, nil, err
		}
		pub := internalrepo.NewKafkaRowPublisher(producer, cfg.Kafka.Topic)
		closeFn := func() {
			if err := pub.Close(); err != nil {
				l.Warn("kafka producer close error", applogger.Error(err))
			}
		}
		return pub.PublishBatch, closeFn, nil

	case "store":
		// A memory store would vanish with this process.
		if cfg.Store.Backend != "clickhouse" {
			return nil, nil, fmt.Errorf("mode store needs store.backend clickhouse, got %q", cfg.Store.Backend)
		}
		ch, err := di.ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		store, err := di.ProvideRecordStore(cfg, ch)
		if err != nil {
			return nil, nil, err
		}
		c, err := di.ProvideCache(cfg)
		if err != nil {
			return nil, nil, err
		}
		ingest := usecase.NewIngestUseCase(store, c, di.ProvideMetrics(di.ProvideRegistry()), l)
		closeFn := func() {
			_ = store.Close()
			_ = c.Close()
			if ch != nil {
				_ = ch.Close()
			}
		}
		sink := func(ctx context.Context, b models.RawBatch) error {
			rep, err := ingest.Ingest(ctx, b)
			if err != nil {
				return err
			}
			if rep.Dropped > 0 {
				l.Warn("rows dropped", applogger.String("batch_id", rep.BatchID), applogger.Int("dropped", rep.Dropped))
			}
			return nil
		}
		return sink, closeFn, nil

	case "api":
		client := xhttp.NewClient(xhttp.WithTimeout(cfg.Source.HTTPTimeout), xhttp.WithUserAgent("coe-loader"))
		url := strings.TrimRight(apiURL, "/") + "/api/ingest"
		sink := func(ctx context.Context, b models.RawBatch) error {
			var resp xhttp.APIResponse
			return client.PostJSON(ctx, url, models.IngestRequest{BatchID: b.BatchID, Source: b.Source, Rows: b.Rows}, &resp)
		}
		return sink, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown mode %q (want kafka, store or api)", mode)
	}
}
