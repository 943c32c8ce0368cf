// Package convert holds bounded integer conversions used at driver edges.
package convert

import (
	"fmt"
	"math"
)

// IntToInt32 converts v, returning an error if it does not fit in an int32.
func IntToInt32(v int) (int32, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int32", v)
	}
	return int32(v), nil
}

// IntToInt32Clamped converts v, clamping to the int32 range.
func IntToInt32Clamped(v int) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// PoolSize turns a configured connection count into a pool limit. Zero or
// negative values yield fallback.
func PoolSize(v int, fallback int32) int32 {
	if v <= 0 {
		return fallback
	}
	return IntToInt32Clamped(v)
}
