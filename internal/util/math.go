package util

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Ratio calculates the ration that target has in comparison to rangeMin and rangeMax
// Make sure that:
// rangeMin <= target <= rangeMax
// rangeMax - rangeMin != 0
func Ratio(target float64, rangeMin float64, rangeMax float64) float64 {
	return (target - rangeMin) / (rangeMax - rangeMin)
}

func Clamp[T constraints.Ordered](value T, minimum T, maximum T) T {
	if value < minimum {
		return minimum
	}
	if value > maximum {
		return maximum
	}
	return value
}

// RoundToUint16 rounds half away from zero and clamps to the uint16 range
func RoundToUint16(value float64) uint16 {
	return uint16(Clamp(math.Round(value), 0, math.MaxUint16))
}
