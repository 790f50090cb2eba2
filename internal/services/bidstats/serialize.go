package bidstats

import (
	"encoding/json"
	"fmt"

	"COEAnalytics/internal/domain/models"
)

// SeriesRow is the flat, transport-neutral form of a SmoothedPoint.
// Quota and PctChange are emitted only when the series carries them.
type SeriesRow struct {
	XAxis        int
	XLabel       string
	Premium      models.Number
	MovingAvg    models.Number
	Quota        models.Number
	PctChange    models.Number
	HasQuota     bool
	HasPctChange bool
}

type seriesRowWire struct {
	XAxis     int            `json:"x_axis"`
	XLabel    string         `json:"x_label"`
	Premium   models.Number  `json:"premium"`
	Quota     *models.Number `json:"quota,omitempty"`
	MovingAvg models.Number  `json:"moving_avg"`
	PctChange *models.Number `json:"pct_change,omitempty"`
}

func (r SeriesRow) MarshalJSON() ([]byte, error) {
	w := seriesRowWire{
		XAxis:     r.XAxis,
		XLabel:    r.XLabel,
		Premium:   r.Premium,
		MovingAvg: r.MovingAvg,
	}
	if r.HasQuota {
		q := r.Quota
		w.Quota = &q
	}
	if r.HasPctChange {
		p := r.PctChange
		w.PctChange = &p
	}
	return json.Marshal(w)
}

func (r *SeriesRow) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	var w seriesRowWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = SeriesRow{
		XAxis:     w.XAxis,
		XLabel:    w.XLabel,
		Premium:   w.Premium,
		MovingAvg: w.MovingAvg,
	}
	// A JSON null leaves the pointer nil, so presence comes from the key set.
	if raw, ok := fields["quota"]; ok {
		r.HasQuota = true
		if err := r.Quota.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("quota: %w", err)
		}
	}
	if raw, ok := fields["pct_change"]; ok {
		r.HasPctChange = true
		if err := r.PctChange.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("pct_change: %w", err)
		}
	}
	return nil
}

// FlattenSeries converts a series into ordered flat rows.
func FlattenSeries(s models.Series) []SeriesRow {
	rows := make([]SeriesRow, len(s.Points))
	for i, p := range s.Points {
		rows[i] = SeriesRow{
			XAxis:        p.Key.Value,
			XLabel:       p.Key.Label(),
			Premium:      p.Premium,
			MovingAvg:    p.MovingAvg,
			HasQuota:     s.IncludeQuota,
			HasPctChange: s.WithPctChange,
		}
		if s.IncludeQuota {
			rows[i].Quota = p.Quota
		}
		if s.WithPctChange {
			rows[i].PctChange = p.PctChange
		}
	}
	return rows
}

// ParseSeriesRows decodes rows written by FlattenSeries.
func ParseSeriesRows(data []byte) ([]SeriesRow, error) {
	var rows []SeriesRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse series rows: %w", err)
	}
	return rows, nil
}

// SeasonalityRow is one calendar month of a seasonality series.
type SeasonalityRow struct {
	Month     int           `json:"month"`
	MonthName string        `json:"month_name"`
	Quota     models.Number `json:"quota"`
	Premium   models.Number `json:"premium"`
}

// FlattenSeasonality converts month-axis points into seasonality rows.
func FlattenSeasonality(points []models.AggregatedPoint) []SeasonalityRow {
	rows := make([]SeasonalityRow, len(points))
	for i, p := range points {
		rows[i] = SeasonalityRow{
			Month:     p.Key.Value,
			MonthName: p.Key.Name(),
			Quota:     p.Quota,
			Premium:   p.Premium,
		}
	}
	return rows
}
