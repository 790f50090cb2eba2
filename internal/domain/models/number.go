package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Number is a float that may be absent. The zero value is absent.
// Absent values encode as JSON null and are never NaN or Inf.
type Number struct {
	Value float64
	Valid bool
}

// Some returns a defined Number, or an absent one when v is not finite.
func Some(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{Value: v, Valid: true}
}

// Absent returns the absent sentinel.
func Absent() Number { return Number{} }

// Get returns the value and whether it is defined.
func (n Number) Get() (float64, bool) { return n.Value, n.Valid }

// Ptr returns nil for absent values. Handy for drivers and templates.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

func (n Number) String() string {
	if !n.Valid {
		return "null"
	}
	return fmt.Sprintf("%g", n.Value)
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = Number{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("number: %w", err)
	}
	*n = Some(v)
	return nil
}
