package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"COEAnalytics/internal/domain/models"
	"COEAnalytics/internal/source"
	"COEAnalytics/internal/usecase"
	"COEAnalytics/pkg/config"
	xhttp "COEAnalytics/pkg/http"
	pkgkafka "COEAnalytics/pkg/kafka"
	applogger "COEAnalytics/pkg/logger"
)

// Ingester stores raw batches; satisfied by *usecase.IngestUseCase.
type Ingester interface {
	Ingest(ctx context.Context, batch models.RawBatch) (*usecase.IngestReport, error)
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	http     *xhttp.Server
	ingest   Ingester
	consumer *pkgkafka.Consumer
	kh       pkgkafka.MessageHandler
	closers  []namedCloser

	// seedPath is loaded into the store before serving; empty skips it.
	seedPath string
	opener   *source.Opener
}

type namedCloser struct {
	name string
	c    io.Closer
}

// AppOption configures optional collaborators.
type AppOption func(*App)

// WithConsumer attaches a Kafka consumer and the handler it dispatches to.
func WithConsumer(c *pkgkafka.Consumer, h pkgkafka.MessageHandler) AppOption {
	return func(a *App) {
		a.consumer = c
		a.kh = h
	}
}

// WithCloser registers a resource closed on shutdown, in registration order.
func WithCloser(name string, c io.Closer) AppOption {
	return func(a *App) {
		if c != nil {
			a.closers = append(a.closers, namedCloser{name: name, c: c})
		}
	}
}

// WithSeed loads the CSV at uri through opener before the HTTP server starts.
func WithSeed(uri string, opener *source.Opener) AppOption {
	return func(a *App) {
		a.seedPath = uri
		a.opener = opener
	}
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, srv *xhttp.Server, ingest Ingester, opts ...AppOption) *App {
	if log == nil {
		log = applogger.Nop()
	}
	a := &App{cfg: cfg, log: log, http: srv, ingest: ingest}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run seeds the store when configured, starts the consumer and the HTTP
// server, and blocks until ctx is cancelled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.seed(ctx); err != nil {
		a.shutdown()
		return err
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(ctx); err != nil {
			a.shutdown()
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.http.Run(gctx) })

	err := g.Wait()
	if err != nil {
		a.log.Error("http server error", applogger.Error(err))
	} else {
		a.log.Info("shutdown signal received")
	}
	a.shutdown()
	return err
}

// seed bulk-loads the bootstrap CSV through the regular ingestion path.
func (a *App) seed(ctx context.Context) error {
	if a.seedPath == "" || a.ingest == nil {
		return nil
	}
	if a.opener == nil {
		a.opener = source.NewOpener()
	}
	start := time.Now()

	rc, err := a.opener.Open(ctx, a.seedPath)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer rc.Close()

	var accepted, dropped int
	rows, err := source.ReadCSV(rc, a.cfg.Source.BatchSize, func(batch []models.RawRow) error {
		rep, err := a.ingest.Ingest(ctx, models.RawBatch{Source: "bootstrap", Rows: batch})
		if err != nil {
			return err
		}
		accepted += rep.Accepted
		dropped += rep.Dropped
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed %s: %w", a.seedPath, err)
	}

	a.log.Info("store seeded",
		applogger.String("path", a.seedPath),
		applogger.Int("rows", rows),
		applogger.Int("accepted", accepted),
		applogger.Int("dropped", dropped),
		applogger.Duration("took", time.Since(start)),
	)
	return nil
}

// shutdown stops the consumer and closes infrastructure clients.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
