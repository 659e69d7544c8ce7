package curves

const (
	CurveStandard      = "Standard"
	CurveThreadripper2 = "Threadripper 2"
	CurveHEDT          = "HEDT"
	CurveXeon          = "Xeon"
)

func newCurveFromPoints(name string, points ...FanPoint) *FanCurve {
	curve := NewFanCurve(name)
	for _, p := range points {
		curve.AddPoint(p.Temp, p.Duty)
	}
	return curve
}

func Standard() *FanCurve {
	return newCurveFromPoints(CurveStandard,
		FanPoint{0, 0},
		FanPoint{30, 2000},
		FanPoint{40, 3000},
		FanPoint{50, 4000},
		FanPoint{60, 5000},
		FanPoint{70, 6000},
		FanPoint{80, 7000},
		FanPoint{90, 8000},
		FanPoint{100, 10000},
	)
}

// Threadripper2 is tuned for high core count desktop parts
func Threadripper2() *FanCurve {
	return newCurveFromPoints(CurveThreadripper2,
		FanPoint{0, 0},
		FanPoint{25, 1000},
		FanPoint{35, 2000},
		FanPoint{45, 3000},
		FanPoint{55, 4000},
		FanPoint{65, 5000},
		FanPoint{75, 6000},
		FanPoint{85, 7000},
		FanPoint{95, 8000},
		FanPoint{100, 10000},
	)
}

func HEDT() *FanCurve {
	return newCurveFromPoints(CurveHEDT,
		FanPoint{0, 0},
		FanPoint{20, 1500},
		FanPoint{30, 2500},
		FanPoint{40, 3500},
		FanPoint{50, 4500},
		FanPoint{60, 5500},
		FanPoint{70, 6500},
		FanPoint{80, 7500},
		FanPoint{90, 8500},
		FanPoint{100, 10000},
	)
}

func Xeon() *FanCurve {
	return newCurveFromPoints(CurveXeon,
		FanPoint{0, 0},
		FanPoint{15, 500},
		FanPoint{25, 1500},
		FanPoint{35, 2500},
		FanPoint{45, 3500},
		FanPoint{55, 4500},
		FanPoint{65, 5500},
		FanPoint{75, 6500},
		FanPoint{85, 7500},
		FanPoint{95, 8500},
		FanPoint{100, 10000},
	)
}

// BuiltinCurves returns fresh copies of all reference curves
func BuiltinCurves() []*FanCurve {
	return []*FanCurve{
		Standard(),
		Threadripper2(),
		HEDT(),
		Xeon(),
	}
}
