package curves

import (
	"github.com/markusressel/fancurve/internal/util"
)

// Interpolate calculates the duty (ten-thousandths) for the given temperature in °C.
// Temperatures outside of the curve are clamped to the duty of the first/last point,
// an empty curve always yields 0.
func (c *FanCurve) Interpolate(temp float64) uint16 {
	points := c.points
	if len(points) <= 0 {
		return 0
	}

	first := points[0]
	if temp <= float64(first.Temp) {
		return first.Duty
	}
	last := points[len(points)-1]
	if temp >= float64(last.Temp) {
		return last.Duty
	}

	for i := 0; i < len(points)-1; i++ {
		p1 := points[i]
		p2 := points[i+1]
		if temp < float64(p1.Temp) || temp > float64(p2.Temp) {
			continue
		}
		if p1.Temp == p2.Temp {
			return p1.Duty
		}
		factor := util.Ratio(temp, float64(p1.Temp), float64(p2.Temp))
		duty := float64(p1.Duty) + factor*(float64(p2.Duty)-float64(p1.Duty))
		return util.RoundToUint16(duty)
	}

	// unreachable for sorted points
	return 0
}

// InterpolateMillidegrees evaluates the curve for a raw hwmon reading,
// truncated to whole degrees.
func (c *FanCurve) InterpolateMillidegrees(milli int64) uint16 {
	return c.Interpolate(float64(milli / 1000))
}
