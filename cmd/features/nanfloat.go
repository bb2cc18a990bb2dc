package main

import (
	"math"
	"strconv"
)

// nanFloat is a float64 whose JSON form maps NaN to null in both
// directions, since JSON has no literal for NaN. Missing cells in the
// grids round-trip as null.
type nanFloat float64

func (f nanFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *nanFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nanFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = nanFloat(v)
	return nil
}
