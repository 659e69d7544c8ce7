package statistics

import (
	"github.com/markusressel/fancurve/internal/curves"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemCurve = "curve"

type CurveSource interface {
	CurveConfig() *curves.FanCurveConfig
}

type CurveCollector struct {
	source    CurveSource
	points    *prometheus.Desc
	isDefault *prometheus.Desc
}

func NewCurveCollector(source CurveSource) *CurveCollector {
	return &CurveCollector{
		source: source,
		points: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemCurve, "points"),
			"Number of points of the curve",
			[]string{"id"}, nil,
		),
		isDefault: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemCurve, "default"),
			"1 if the curve is applied on startup",
			[]string{"id"}, nil,
		),
	}
}

func (collector *CurveCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.points
	ch <- collector.isDefault
}

// Collect implements required collect function for all prometheus collectors
func (collector *CurveCollector) Collect(ch chan<- prometheus.Metric) {
	config := collector.source.CurveConfig()
	for index, curve := range config.Curves() {
		curveId := curve.Name()
		isDefault := 0.0
		if index == config.DefaultIndex() {
			isDefault = 1
		}
		ch <- prometheus.MustNewConstMetric(collector.points, prometheus.GaugeValue, float64(curve.Len()), curveId)
		ch <- prometheus.MustNewConstMetric(collector.isDefault, prometheus.GaugeValue, isDefault, curveId)
	}
}
