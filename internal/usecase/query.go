package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"COEAnalytics/internal/domain/models"
	domrepo "COEAnalytics/internal/domain/repository"
	"COEAnalytics/internal/services/bidstats"
	"COEAnalytics/pkg/cache"
	applogger "COEAnalytics/pkg/logger"
)

// PremiumResult is the payload of GET /api/premium.
type PremiumResult struct {
	VehicleClass string               `json:"vehicle_class"`
	Window       int                  `json:"window"`
	XAxisMode    models.Axis          `json:"x_axis_mode"`
	Aggregation  models.Stat          `json:"aggregation"`
	Data         []bidstats.SeriesRow `json:"data"`
	Count        int                  `json:"count"`
}

// SeasonalityResult is the payload of GET /api/seasonality. Data always has 12 rows.
type SeasonalityResult struct {
	VehicleClass string                    `json:"vehicle_class"`
	Aggregation  models.Stat               `json:"aggregation"`
	Data         []bidstats.SeasonalityRow `json:"data"`
	Count        int                       `json:"count"`
}

// AnalysisResult is the payload of GET /api/analysis.
type AnalysisResult struct {
	VehicleClass string              `json:"vehicle_class"`
	Distribution []float64           `json:"distribution"`
	Scatter      []models.RatioPoint `json:"scatter"`
	Count        int                 `json:"count"`
}

// TimeseriesResult is the payload of GET /api/timeseries.
type TimeseriesResult struct {
	VehicleClass string                   `json:"vehicle_class"`
	Window       int                      `json:"window"`
	Data         []models.TimeseriesPoint `json:"data"`
	Count        int                      `json:"count"`
}

// QueryUseCase serves the read endpoints. Options are validated before the
// store is touched; results are cached until the next ingest.
type QueryUseCase struct {
	store    domrepo.RecordStore
	cache    cache.Service
	ttl      time.Duration
	timeout  time.Duration
	defaults bidstats.Defaults
	metrics  domrepo.Metrics
	log      *applogger.Logger
	gen      *Generation
}

// QueryOption configures QueryUseCase.
type QueryOption func(*QueryUseCase)

// WithQueryCache caches results in c for ttl. A zero ttl disables caching.
func WithQueryCache(c cache.Service, ttl time.Duration) QueryOption {
	return func(uc *QueryUseCase) {
		if c != nil && ttl > 0 {
			uc.cache = c
			uc.ttl = ttl
		}
	}
}

// WithQueryTimeout bounds each store snapshot.
func WithQueryTimeout(d time.Duration) QueryOption {
	return func(uc *QueryUseCase) { uc.timeout = d }
}

// WithQueryGeneration ties cache writes to the ingest generation g.
func WithQueryGeneration(g *Generation) QueryOption {
	return func(uc *QueryUseCase) { uc.gen = g }
}

func WithQueryLogger(l *applogger.Logger) QueryOption {
	return func(uc *QueryUseCase) {
		if l != nil {
			uc.log = l
		}
	}
}

func NewQueryUseCase(store domrepo.RecordStore, defaults bidstats.Defaults, metrics domrepo.Metrics, opts ...QueryOption) *QueryUseCase {
	uc := &QueryUseCase{
		store:    store,
		cache:    cache.Noop{},
		defaults: defaults,
		metrics:  metrics,
		log:      applogger.Nop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Defaults returns the configured fallbacks.
func (uc *QueryUseCase) Defaults() bidstats.Defaults { return uc.defaults }

// Premium returns the grouped and smoothed premium series.
func (uc *QueryUseCase) Premium(ctx context.Context, opts bidstats.QueryOptions) (*PremiumResult, error) {
	opts = opts.Resolve(uc.defaults)
	opts.WithPctChange = true
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	key := queryKey("premium", opts.Category, opts.YearStart, opts.YearEnd,
		opts.Axis, opts.Stat, opts.Window, opts.IncludeQuota)

	return cached(ctx, uc, "premium", key, func(records []models.BidRecord) (*PremiumResult, error) {
		s, err := bidstats.AggregateQuery(records, opts)
		if err != nil {
			return nil, err
		}
		rows := bidstats.FlattenSeries(s)
		return &PremiumResult{
			VehicleClass: opts.Category,
			Window:       s.Window,
			XAxisMode:    s.Axis,
			Aggregation:  s.Stat,
			Data:         rows,
			Count:        len(rows),
		}, nil
	}, opts.Filter())
}

// Seasonality returns premium and quota per calendar month across years.
func (uc *QueryUseCase) Seasonality(ctx context.Context, f models.RecordFilter, stat models.Stat) (*SeasonalityResult, error) {
	opts := bidstats.QueryOptions{
		Category:     f.Category,
		YearStart:    f.YearStart,
		YearEnd:      f.YearEnd,
		Axis:         models.AxisMonth,
		Stat:         stat,
		IncludeQuota: true,
	}.Resolve(uc.defaults)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	key := queryKey("seasonality", opts.Category, opts.YearStart, opts.YearEnd, opts.Stat)

	return cached(ctx, uc, "seasonality", key, func(records []models.BidRecord) (*SeasonalityResult, error) {
		subset, err := bidstats.Filter(records, opts.Filter())
		if err != nil {
			return nil, err
		}
		points, err := bidstats.Aggregate(subset, models.AxisMonth, opts.Stat, true)
		if err != nil {
			return nil, err
		}
		rows := bidstats.FlattenSeasonality(points)
		return &SeasonalityResult{VehicleClass: opts.Category, Aggregation: opts.Stat, Data: rows, Count: len(rows)}, nil
	}, opts.Filter())
}

// Analysis returns the premium distribution and the quota/premium scatter.
func (uc *QueryUseCase) Analysis(ctx context.Context, f models.RecordFilter) (*AnalysisResult, error) {
	f = uc.resolveFilter(f)
	if err := bidstats.ValidateRange(f); err != nil {
		return nil, err
	}
	key := queryKey("analysis", f.Category, f.YearStart, f.YearEnd)

	return cached(ctx, uc, "analysis", key, func(records []models.BidRecord) (*AnalysisResult, error) {
		a, err := bidstats.AnalysisQuery(records, f)
		if err != nil {
			return nil, err
		}
		return &AnalysisResult{VehicleClass: f.Category, Distribution: a.Distribution, Scatter: a.Scatter, Count: a.Count}, nil
	}, f)
}

// Timeseries returns matching rounds chronologically with moving average and ratios.
func (uc *QueryUseCase) Timeseries(ctx context.Context, f models.RecordFilter, window int) (*TimeseriesResult, error) {
	f = uc.resolveFilter(f)
	if window == 0 {
		window = uc.defaults.Window
	}
	if err := bidstats.ValidateRange(f); err != nil {
		return nil, err
	}
	if window < 1 {
		return nil, &bidstats.InvalidWindowError{Window: window}
	}
	key := queryKey("timeseries", f.Category, f.YearStart, f.YearEnd, window)

	return cached(ctx, uc, "timeseries", key, func(records []models.BidRecord) (*TimeseriesResult, error) {
		points, err := bidstats.TimeseriesQuery(records, f, window)
		if err != nil {
			return nil, err
		}
		return &TimeseriesResult{VehicleClass: f.Category, Window: window, Data: points, Count: len(points)}, nil
	}, f)
}

// Categories lists the distinct vehicle classes in the store.
func (uc *QueryUseCase) Categories(ctx context.Context) ([]string, error) {
	key := queryKey("categories")
	var out []string
	if err := uc.cache.Get(ctx, key, &out); err == nil {
		uc.metrics.RecordCacheResult("categories", true)
		return out, nil
	}
	uc.metrics.RecordCacheResult("categories", false)

	gen := uc.gen.Current()
	out, err := uc.store.Categories(ctx)
	if err != nil {
		uc.metrics.RecordError("store_categories")
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	uc.remember(ctx, key, out, gen)
	return out, nil
}

func (uc *QueryUseCase) resolveFilter(f models.RecordFilter) models.RecordFilter {
	if f.Category == "" {
		f.Category = uc.defaults.Category
	}
	return f
}

func (uc *QueryUseCase) snapshot(ctx context.Context, f models.RecordFilter) ([]models.BidRecord, error) {
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}
	records, err := uc.store.Snapshot(ctx, f)
	if err != nil {
		uc.metrics.RecordError("store_snapshot")
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return records, nil
}

// remember caches v unless a batch was stored since gen was read. A batch
// stored while Set runs is caught by the second check.
func (uc *QueryUseCase) remember(ctx context.Context, key string, v any, gen uint64) {
	if uc.gen.Current() != gen {
		return
	}
	if err := uc.cache.Set(ctx, key, v, uc.ttl); err != nil {
		uc.log.Warn("query: cache set failed", applogger.String("key", key), applogger.Error(err))
		return
	}
	if uc.gen.Current() != gen {
		if err := uc.cache.Delete(ctx, key); err != nil {
			uc.log.Warn("query: cache delete failed", applogger.String("key", key), applogger.Error(err))
		}
	}
}

// cached serves endpoint from the cache or snapshots the store, computes and stores the result.
func cached[T any](ctx context.Context, uc *QueryUseCase, endpoint, key string, compute func([]models.BidRecord) (T, error), f models.RecordFilter) (T, error) {
	var zero T
	var hit T
	if err := uc.cache.Get(ctx, key, &hit); err == nil {
		uc.metrics.RecordCacheResult(endpoint, true)
		return hit, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		uc.log.Warn("query: cache get failed", applogger.String("key", key), applogger.Error(err))
	}
	uc.metrics.RecordCacheResult(endpoint, false)

	gen := uc.gen.Current()
	start := time.Now()
	records, err := uc.snapshot(ctx, f)
	if err != nil {
		return zero, err
	}
	out, err := compute(records)
	if err != nil {
		return zero, err
	}
	uc.metrics.RecordLatency("query_"+endpoint, time.Since(start).Seconds())
	uc.remember(ctx, key, out, gen)
	return out, nil
}

// queryKey renders coe:<endpoint>:<hash of params>. Year pointers render as
// their value or "-" so equal filters share a key.
func queryKey(endpoint string, params ...any) string {
	parts := make([]any, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case *int:
			if v == nil {
				parts[i] = "-"
			} else {
				parts[i] = strconv.Itoa(*v)
			}
		default:
			parts[i] = v
		}
	}
	if len(parts) == 0 {
		return QueryCachePrefix + endpoint
	}
	return QueryCachePrefix + endpoint + ":" + cache.HashKey(cache.GenerateKeyWithParams("", parts...))
}
