package dbus

import (
	"github.com/markusressel/fancurve/internal/controller"
	"github.com/markusressel/fancurve/internal/curves"
	"github.com/markusressel/fancurve/internal/persistence"
)

// Point is the wire type of a curve point, signature (nq)
type Point struct {
	Temp int16
	Duty uint16
}

// NamedCurve has the signature (sa(nq))
type NamedCurve struct {
	Name   string
	Points []Point
}

// Status has the signature (ssidqii)
type Status struct {
	State       string
	Curve       string
	CurveIndex  int32
	Temperature float64
	Duty        uint16
	Pwm         int32
	Rpm         int32
}

func toPoints(pairs []curves.Pair) []Point {
	result := make([]Point, 0, len(pairs))
	for _, pair := range pairs {
		result = append(result, Point{Temp: int16(pair[0]), Duty: uint16(pair[1])})
	}
	return result
}

func toPairs(points []Point) []curves.Pair {
	result := make([]curves.Pair, 0, len(points))
	for _, point := range points {
		result = append(result, curves.Pair{int(point.Temp), int(point.Duty)})
	}
	return result
}

func toNamedCurves(named []persistence.NamedCurve) []NamedCurve {
	result := make([]NamedCurve, 0, len(named))
	for _, n := range named {
		result = append(result, NamedCurve{
			Name:   n.Curve.Name(),
			Points: toPoints(n.Curve.ToPairs()),
		})
	}
	return result
}

func toStatus(status controller.Status) Status {
	return Status{
		State:       status.State.String(),
		Curve:       status.Curve,
		CurveIndex:  int32(status.CurveIndex),
		Temperature: status.Sample.Temperature,
		Duty:        status.Sample.Duty,
		Pwm:         int32(status.Sample.Pwm),
		Rpm:         int32(status.Sample.Rpm),
	}
}
