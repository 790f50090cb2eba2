package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"COEAnalytics/internal/domain/models"
	domrepo "COEAnalytics/internal/domain/repository"
	"COEAnalytics/internal/services/bidstats"
	"COEAnalytics/internal/usecase"
	xhttp "COEAnalytics/pkg/http"
	xlogger "COEAnalytics/pkg/logger"
)

// BidsEchoHandler serves the bidding analytics endpoints.
type BidsEchoHandler struct {
	logger *xlogger.Logger
	query  *usecase.QueryUseCase
	ingest *usecase.IngestUseCase
	store  domrepo.RecordStore
}

func NewBidsEchoHandler(logger *xlogger.Logger, query *usecase.QueryUseCase, ingest *usecase.IngestUseCase, store domrepo.RecordStore) *BidsEchoHandler {
	return &BidsEchoHandler{logger: logger, query: query, ingest: ingest, store: store}
}

func (h *BidsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/premium", h.Premium)
	g.GET("/seasonality", h.Seasonality)
	g.GET("/analysis", h.Analysis)
	g.GET("/timeseries", h.Timeseries)
	g.GET("/categories", h.Categories)
	g.POST("/ingest", h.Ingest)
}

func (h *BidsEchoHandler) Premium(c echo.Context) error {
	req := &models.PremiumRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	axis, err := optionalAxis(req.XAxisMode)
	if err != nil {
		return h.fail(c, "premium", err)
	}

	res, err := h.query.Premium(c.Request().Context(), bidstats.QueryOptions{
		Category:  req.VehicleClass,
		YearStart: xhttp.OptionalYear(req.StartYear),
		YearEnd:   xhttp.OptionalYear(req.EndYear),
		Axis:      axis,
		Stat:      models.Stat(req.Aggregation),
		Window:    req.Window,
	})
	if err != nil {
		return h.fail(c, "premium", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *BidsEchoHandler) Seasonality(c echo.Context) error {
	req := &models.SeasonalityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.query.Seasonality(c.Request().Context(), rangeFilter(req.VehicleClass, req.StartYear, req.EndYear), models.Stat(req.Aggregation))
	if err != nil {
		return h.fail(c, "seasonality", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *BidsEchoHandler) Analysis(c echo.Context) error {
	req := &models.RangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.query.Analysis(c.Request().Context(), rangeFilter(req.VehicleClass, req.StartYear, req.EndYear))
	if err != nil {
		return h.fail(c, "analysis", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *BidsEchoHandler) Timeseries(c echo.Context) error {
	req := &models.TimeseriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.query.Timeseries(c.Request().Context(), rangeFilter(req.VehicleClass, req.StartYear, req.EndYear), req.Window)
	if err != nil {
		return h.fail(c, "timeseries", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *BidsEchoHandler) Categories(c echo.Context) error {
	res, err := h.query.Categories(c.Request().Context())
	if err != nil {
		return h.fail(c, "categories", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *BidsEchoHandler) Ingest(c echo.Context) error {
	req := &models.IngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rep, err := h.ingest.Ingest(c.Request().Context(), models.RawBatch{
		BatchID: req.BatchID,
		Source:  req.Source,
		Rows:    req.Rows,
	})
	if err != nil {
		return h.fail(c, "ingest", err)
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *BidsEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Health(ctx); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("record store unavailable"))
	}
	return xhttp.DataResponse(c, http.StatusOK, map[string]string{"status": "ok"})
}

// fail maps caller mistakes to 400 and everything else to a logged 500.
func (h *BidsEchoHandler) fail(c echo.Context, op string, err error) error {
	var schemaErr *bidstats.SchemaError
	switch {
	case bidstats.IsClientError(err), errors.As(err, &schemaErr):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	case errors.Is(err, context.Canceled):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_CANCELED", "", "request canceled", 499))
	default:
		h.logger.Error(op+" usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("internal error").WithError(err))
	}
}

func optionalAxis(s string) (models.Axis, error) {
	if s == "" {
		return "", nil
	}
	axis, err := models.ParseAxis(s)
	if err != nil {
		return "", &bidstats.InvalidOptionError{Option: "x_axis_mode", Value: s}
	}
	return axis, nil
}

func rangeFilter(category string, start, end int) models.RecordFilter {
	return models.RecordFilter{
		Category:  category,
		YearStart: xhttp.OptionalYear(start),
		YearEnd:   xhttp.OptionalYear(end),
	}
}
