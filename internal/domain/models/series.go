package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Axis is the grouping dimension of a query.
type Axis string

const (
	AxisYear  Axis = "Year"
	AxisMonth Axis = "Month"
)

// ParseAxis accepts "Year", "Month" or "MonthName" in any case.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "year":
		return AxisYear, nil
	case "month", "monthname", "month_name":
		return AxisMonth, nil
	}
	return "", fmt.Errorf("unknown axis %q", s)
}

// Stat is the reduction applied to each group.
type Stat string

const (
	StatMean   Stat = "mean"
	StatMedian Stat = "median"
)

// ParseStat accepts "mean" or "median" in any case.
func ParseStat(s string) (Stat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean":
		return StatMean, nil
	case "median":
		return StatMedian, nil
	}
	return "", fmt.Errorf("unknown aggregation %q", s)
}

// GroupKey is a calendar year or a calendar month (1..12), never both.
type GroupKey struct {
	Axis  Axis
	Value int
}

// YearKey returns the group key for a calendar year.
func YearKey(y int) GroupKey { return GroupKey{Axis: AxisYear, Value: y} }

// MonthKey returns the group key for a calendar month.
func MonthKey(m time.Month) GroupKey { return GroupKey{Axis: AxisMonth, Value: int(m)} }

// Label is the short display label: "2021" or "Jan".
func (k GroupKey) Label() string {
	if k.Axis == AxisMonth {
		return time.Month(k.Value).String()[:3]
	}
	return strconv.Itoa(k.Value)
}

// Name is the full label: "2021" or "January".
func (k GroupKey) Name() string {
	if k.Axis == AxisMonth {
		return time.Month(k.Value).String()
	}
	return strconv.Itoa(k.Value)
}

// AggregatedPoint is one reduced group. Quota is absent unless requested.
type AggregatedPoint struct {
	Key     GroupKey
	Premium Number
	Quota   Number
	Count   int
}

// SmoothedPoint extends AggregatedPoint with trailing-window and change metrics.
type SmoothedPoint struct {
	AggregatedPoint
	MovingAvg Number
	PctChange Number
}

// Series is the result of an aggregate query.
type Series struct {
	Axis          Axis
	Stat          Stat
	Window        int
	IncludeQuota  bool
	WithPctChange bool
	Points        []SmoothedPoint
}

// RatioPoint is one record with its demand ratio.
type RatioPoint struct {
	PeriodLabel string  `json:"month"`
	Category    string  `json:"vehicle_class"`
	Quota       int     `json:"quota"`
	Premium     float64 `json:"premium"`
	DemandRatio Number  `json:"demand_ratio"`
}

// TimeseriesPoint is one bidding round in chronological order.
type TimeseriesPoint struct {
	PeriodLabel  string  `json:"month"`
	BiddingNo    int     `json:"bidding_no"`
	Category     string  `json:"vehicle_class"`
	Quota        int     `json:"quota"`
	BidsReceived int     `json:"bids_received"`
	Premium      float64 `json:"premium"`
	MovingAvg    Number  `json:"moving_avg"`
	DemandRatio  Number  `json:"demand_ratio"`
	SuccessRate  Number  `json:"success_rate"`
	PctChange    Number  `json:"pct_change"`
}

// Analysis is the premium distribution and quota/premium scatter of a subset.
type Analysis struct {
	Distribution []float64    `json:"distribution"`
	Scatter      []RatioPoint `json:"scatter"`
	Count        int          `json:"count"`
}
