package valuation

import (
	"encoding/json"
	"math"
)

// Percent is a percentage that may be indeterminate, as when a gain is
// measured against a zero cost basis. It never holds NaN or ±Inf.
type Percent struct {
	value       float64
	determinate bool
}

// Determinate wraps a finite value. Non-finite input becomes Indeterminate.
func Determinate(v float64) Percent {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Indeterminate()
	}
	return Percent{value: v, determinate: true}
}

// Indeterminate is the percent of a change against a zero base.
func Indeterminate() Percent {
	return Percent{}
}

// Value returns the percentage and whether it is determinate.
func (p Percent) Value() (float64, bool) {
	return p.value, p.determinate
}

func (p Percent) IsDeterminate() bool {
	return p.determinate
}

// MarshalJSON encodes an indeterminate percent as null.
func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.determinate {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}

// UnmarshalJSON accepts a number or null.
func (p *Percent) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Indeterminate()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Determinate(v)
	return nil
}

// percentChange is (to - from) / from * 100 with the zero-base policy:
// 0 -> 0 is no change, anything else against 0 is indeterminate.
func percentChange(from, to float64) Percent {
	if from == 0 {
		if to == 0 {
			return Determinate(0)
		}
		return Indeterminate()
	}
	return Determinate((to - from) / from * 100)
}

// PercentChange exposes the zero-base policy to other packages.
func PercentChange(from, to float64) Percent {
	return percentChange(from, to)
}
