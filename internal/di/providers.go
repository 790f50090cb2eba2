package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"COEAnalytics/internal/domain/models"
	"COEAnalytics/internal/domain/repository"
	"COEAnalytics/internal/handler/api"
	internalrepo "COEAnalytics/internal/repository"
	"COEAnalytics/internal/services/bidstats"
	"COEAnalytics/internal/source"
	"COEAnalytics/internal/usecase"
	"COEAnalytics/pkg/cache"
	pkgch "COEAnalytics/pkg/clickhouse"
	"COEAnalytics/pkg/config"
	xhttp "COEAnalytics/pkg/http"
	pkgkafka "COEAnalytics/pkg/kafka"
	applogger "COEAnalytics/pkg/logger"
	"COEAnalytics/pkg/metrics"
	"COEAnalytics/pkg/server"
)

// ProvideLogger builds the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry served on the metrics path.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideClickHouseClient connects to ClickHouse and creates the bids table.
// It returns nil when the store backend is not ClickHouse.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Store.Backend != "clickhouse" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.BidSchema(client.Database(), cfg.Store.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideRecordStore selects the record store backend.
func ProvideRecordStore(cfg *config.Config, ch *pkgch.Client) (repository.RecordStore, error) {
	switch cfg.Store.Backend {
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("record store: clickhouse client not initialized")
		}
		return internalrepo.NewClickHouseBidStore(ch.DB(), ch.Database()+"."+cfg.Store.Table), nil
	case "memory":
		return internalrepo.NewMemoryBidStore(), nil
	default:
		return nil, fmt.Errorf("record store: unknown backend %q", cfg.Store.Backend)
	}
}

// ProvideCache creates the query result cache.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	memOpts := []cache.MemoryOption{cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize)}

	switch cfg.Cache.Backend {
	case "none":
		return cache.Noop{}, nil
	case "memory":
		return cache.NewMemoryCache(memOpts...), nil
	case "redis", "layered":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rc, err := cache.NewRedisCache(ctx,
			cache.WithRedisAddr(cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
			cache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if cfg.Cache.Backend == "redis" {
			return rc, nil
		}
		// L1 entries expire well before the shared copy.
		return cache.NewLayeredCache(rc, cfg.Cache.TTL/5, memOpts...), nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Cache.Backend)
	}
}

// ProvideDefaults converts the configured query defaults.
func ProvideDefaults(cfg *config.Config) (bidstats.Defaults, error) {
	d := cfg.Analytics.Defaults
	axis, err := models.ParseAxis(d.Axis)
	if err != nil {
		return bidstats.Defaults{}, fmt.Errorf("analytics defaults: %w", err)
	}
	stat, err := models.ParseStat(d.Aggregation)
	if err != nil {
		return bidstats.Defaults{}, fmt.Errorf("analytics defaults: %w", err)
	}
	return bidstats.Defaults{Category: d.Category, Window: d.Window, Axis: axis, Stat: stat}, nil
}

// ProvideIngestUseCase creates the ingestion use case.
func ProvideIngestUseCase(store repository.RecordStore, c cache.Service, m repository.Metrics, l *applogger.Logger) *usecase.IngestUseCase {
	return usecase.NewIngestUseCase(store, c, m, l)
}

// ProvideQueryUseCase creates the query use case.
func ProvideQueryUseCase(
	cfg *config.Config,
	store repository.RecordStore,
	defaults bidstats.Defaults,
	ingest *usecase.IngestUseCase,
	c cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.QueryUseCase {
	return usecase.NewQueryUseCase(store, defaults, m,
		usecase.WithQueryCache(c, cfg.Cache.TTL),
		usecase.WithQueryGeneration(ingest.Generation()),
		usecase.WithQueryTimeout(cfg.Analytics.QueryTimeout),
		usecase.WithQueryLogger(l),
	)
}

// ProvideKafkaProducer creates a Kafka producer for raw batches.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
// It returns nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaBidsHandler creates the handler for the raw bids topic.
func ProvideKafkaBidsHandler(cfg *config.Config, ingest *usecase.IngestUseCase, m repository.Metrics) *usecase.KafkaBidsHandler {
	return usecase.NewKafkaBidsHandler(cfg.Kafka.Topic, ingest, m)
}

// ProvideSourceOpener creates the CSV opener. An S3 client is only built
// when a configured URI points at a bucket.
func ProvideSourceOpener(cfg *config.Config) (*source.Opener, error) {
	opts := []source.Option{
		source.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Source.HTTPTimeout))),
	}
	if strings.HasPrefix(cfg.Source.URI, "s3://") || strings.HasPrefix(cfg.Store.CSVPath, "s3://") {
		s3c, err := source.NewS3Client(context.Background(), source.S3Config{
			Region:          cfg.Source.S3.Region,
			Endpoint:        cfg.Source.S3.Endpoint,
			AccessKeyID:     cfg.Source.S3.AccessKeyID,
			SecretAccessKey: cfg.Source.S3.SecretAccessKey,
			PathStyle:       cfg.Source.S3.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		opts = append(opts, source.WithS3(s3c))
	}
	return source.NewOpener(opts...), nil
}

// ProvideBidsHandler creates the HTTP handler for the bids API.
func ProvideBidsHandler(l *applogger.Logger, query *usecase.QueryUseCase, ingest *usecase.IngestUseCase, store repository.RecordStore) *api.BidsEchoHandler {
	return api.NewBidsEchoHandler(l, query, ingest, store)
}

// ProvideHTTPServer creates the Echo server with the configured middleware.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry, h *api.BidsEchoHandler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithAddr(cfg.Server.Host, cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithStaticDir(cfg.Server.StaticDir),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path, cfg.Server.SlowThreshold))
	}
	if cfg.Server.RateLimit.Enabled {
		opts = append(opts, xhttp.WithRateLimit(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst))
	}
	return xhttp.NewServer([]xhttp.Handler{h}, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	ingest *usecase.IngestUseCase,
	store repository.RecordStore,
	ch *pkgch.Client,
	c cache.Service,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBidsHandler,
	opener *source.Opener,
) *server.App {
	opts := []server.AppOption{
		server.WithCloser("record store", store),
		server.WithCloser("cache", c),
	}
	if ch != nil {
		opts = append(opts, server.WithCloser("clickhouse", ch))
	}
	if consumer != nil {
		opts = append(opts, server.WithConsumer(consumer, kh))
	}
	if cfg.Store.Backend == "memory" && cfg.Store.CSVPath != "" {
		opts = append(opts, server.WithSeed(cfg.Store.CSVPath, opener))
	}
	return server.New(cfg, l, srv, ingest, opts...)
}
