package statistics

import (
	"github.com/markusressel/fancurve/internal/fans"
	"github.com/prometheus/client_golang/prometheus"
)

const fanSubsystem = "fan"

type FanCollector struct {
	fans      []fans.Fan
	pwm       *prometheus.Desc
	rpm       *prometheus.Desc
	pwmEnable *prometheus.Desc
}

func NewFanCollector(fans []fans.Fan) *FanCollector {
	return &FanCollector{
		fans: fans,
		pwm: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "pwm"),
			"Current PWM value of the fan",
			[]string{"id", "label"}, nil,
		),
		rpm: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "rpm"),
			"Current RPM value of the fan",
			[]string{"id", "label"}, nil,
		),
		pwmEnable: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "pwm_enable"),
			"Current pwm_enable value of the fan (1 manual, 2 automatic)",
			[]string{"id", "label"}, nil,
		),
	}
}

func (collector *FanCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.pwm
	ch <- collector.rpm
	ch <- collector.pwmEnable
}

// Collect implements required collect function for all prometheus collectors.
// Values that cannot be read are skipped.
func (collector *FanCollector) Collect(ch chan<- prometheus.Metric) {
	for _, fan := range collector.fans {
		fanId := fan.GetId()
		label := fan.GetLabel()
		if pwm, err := fan.GetPwm(); err == nil {
			ch <- prometheus.MustNewConstMetric(collector.pwm, prometheus.GaugeValue, float64(pwm), fanId, label)
		}
		if rpm, err := fan.GetRpm(); err == nil {
			ch <- prometheus.MustNewConstMetric(collector.rpm, prometheus.GaugeValue, float64(rpm), fanId, label)
		}
		if enable, err := fan.GetPwmEnabled(); err == nil {
			ch <- prometheus.MustNewConstMetric(collector.pwmEnable, prometheus.GaugeValue, float64(enable), fanId, label)
		}
	}
}
