// Package bidstats turns raw bidding rows into typed records and derives the
// grouped, smoothed and ratio series served by the API. Every function in the
// package is pure: inputs are never mutated and no state is kept between calls.
package bidstats

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"COEAnalytics/internal/domain/models"
	xutil "COEAnalytics/pkg/util"
)

// Input column names.
const (
	FieldMonth        = "month"
	FieldCategory     = "vehicle_class"
	FieldBiddingNo    = "bidding_no"
	FieldQuota        = "quota"
	FieldBidsSuccess  = "bids_success"
	FieldBidsReceived = "bids_received"
	FieldPremium      = "premium"
)

// RequiredFields must be present as keys on every raw row.
var RequiredFields = []string{
	FieldMonth,
	FieldCategory,
	FieldQuota,
	FieldBidsSuccess,
	FieldBidsReceived,
	FieldPremium,
}

// NormalizeResult holds the surviving records in input order and the reasons
// rows were dropped.
type NormalizeResult struct {
	Records []models.BidRecord
	Dropped []*ParseError
}

// Normalize coerces raw rows into BidRecords. Rows with an unparsable value
// are dropped and reported in Dropped. A row missing a required field name
// fails the whole call with *SchemaError.
func Normalize(rows []models.RawRow) (NormalizeResult, error) {
	res := NormalizeResult{Records: make([]models.BidRecord, 0, len(rows))}
	for i, row := range rows {
		for _, f := range RequiredFields {
			if _, ok := row[f]; !ok {
				return NormalizeResult{}, &SchemaError{Row: i, Field: f}
			}
		}
		rec, perr := normalizeRow(i, row)
		if perr != nil {
			res.Dropped = append(res.Dropped, perr)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func normalizeRow(i int, row models.RawRow) (models.BidRecord, *ParseError) {
	var rec models.BidRecord

	label, date, err := parsePeriod(row[FieldMonth])
	if err != nil {
		return rec, &ParseError{Row: i, Field: FieldMonth, Value: row[FieldMonth], Err: err}
	}
	rec.PeriodLabel, rec.PeriodDate = label, date

	cat, ok := row[FieldCategory].(string)
	if !ok || strings.TrimSpace(cat) == "" {
		return rec, &ParseError{Row: i, Field: FieldCategory, Value: row[FieldCategory], Err: errMissingValue}
	}
	rec.Category = strings.TrimSpace(cat)

	if v, ok := row[FieldBiddingNo]; ok {
		if rec.BiddingNo, err = parseCount(v); err != nil {
			return rec, &ParseError{Row: i, Field: FieldBiddingNo, Value: v, Err: err}
		}
	}

	counts := []struct {
		field string
		dst   *int
	}{
		{FieldQuota, &rec.Quota},
		{FieldBidsSuccess, &rec.BidsSuccessful},
		{FieldBidsReceived, &rec.BidsReceived},
	}
	for _, c := range counts {
		if *c.dst, err = parseCount(row[c.field]); err != nil {
			return rec, &ParseError{Row: i, Field: c.field, Value: row[c.field], Err: err}
		}
	}

	if rec.Premium, err = parseAmount(row[FieldPremium]); err != nil {
		return rec, &ParseError{Row: i, Field: FieldPremium, Value: row[FieldPremium], Err: err}
	}
	return rec, nil
}

func parsePeriod(v any) (string, time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return "", time.Time{}, errMissingValue
		}
		d := xutil.MonthStart(t)
		return xutil.MonthLabel(d), d, nil
	case string:
		d, ok := xutil.ParseMonth(t)
		if !ok {
			return "", time.Time{}, fmt.Errorf("unrecognized month %q", t)
		}
		return xutil.MonthLabel(d), d, nil
	case nil:
		return "", time.Time{}, errMissingValue
	default:
		return "", time.Time{}, fmt.Errorf("unsupported month type %T", v)
	}
}

// parseCount accepts non-negative integral values, comma-formatted or not.
func parseCount(v any) (int, error) {
	d, err := toDecimal(v)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative count %s", d)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("non-integral count %s", d)
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, fmt.Errorf("count out of range %s", d)
	}
	return int(d.IntPart()), nil
}

// parseAmount accepts non-negative finite numbers.
func parseAmount(v any) (float64, error) {
	d, err := toDecimal(v)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", d)
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("amount out of range %s", d)
	}
	return f, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, errMissingValue
	case decimal.Decimal:
		return n, nil
	case string:
		s := xutil.StripThousands(n)
		if s == "" {
			return decimal.Zero, errMissingValue
		}
		return decimal.NewFromString(s)
	case json.Number:
		return decimal.NewFromString(xutil.StripThousands(n.String()))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, fmt.Errorf("non-finite value %v", n)
		}
		return decimal.NewFromFloat(n), nil
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return decimal.Zero, fmt.Errorf("non-finite value %v", n)
		}
		return decimal.NewFromFloat32(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int8:
		return decimal.NewFromInt(int64(n)), nil
	case int16:
		return decimal.NewFromInt(int64(n)), nil
	case int32:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(n)), 0), nil
	case uint8:
		return decimal.NewFromInt(int64(n)), nil
	case uint16:
		return decimal.NewFromInt(int64(n)), nil
	case uint32:
		return decimal.NewFromInt(int64(n)), nil
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported type %T", v)
	}
}
