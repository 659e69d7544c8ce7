package statistics

import (
	"github.com/markusressel/fancurve/internal/controller"
	"github.com/prometheus/client_golang/prometheus"
)

const controllerSubsystem = "controller"

type StatusProvider interface {
	Status() controller.Status
}

type ControllerCollector struct {
	controller StatusProvider

	state       *prometheus.Desc
	ticks       *prometheus.Desc
	failures    *prometheus.Desc
	temperature *prometheus.Desc
	duty        *prometheus.Desc
	pwm         *prometheus.Desc
	rpm         *prometheus.Desc
}

func NewControllerCollector(controller StatusProvider) *ControllerCollector {
	return &ControllerCollector{
		controller: controller,
		state: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "active"),
			"1 if the fans are driven by a curve, 0 if they are left to the firmware",
			[]string{"curve"}, nil,
		),
		ticks: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "ticks_total"),
			"Number of control loop iterations",
			nil, nil,
		),
		failures: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "failures_total"),
			"Number of failures of the control loop and the control surface",
			[]string{"kind"}, nil,
		),
		temperature: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "temperature_celsius"),
			"Last averaged CPU temperature",
			nil, nil,
		),
		duty: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "target_duty_ratio"),
			"Last duty evaluated from the active curve, 0..1",
			nil, nil,
		),
		pwm: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "pwm"),
			"Last PWM value read back from the CPU fan",
			nil, nil,
		),
		rpm: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "rpm"),
			"Last RPM value read from the CPU fan",
			nil, nil,
		),
	}
}

func (collector *ControllerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.state
	ch <- collector.ticks
	ch <- collector.failures
	ch <- collector.temperature
	ch <- collector.duty
	ch <- collector.pwm
	ch <- collector.rpm
}

// Collect implements required collect function for all prometheus collectors
func (collector *ControllerCollector) Collect(ch chan<- prometheus.Metric) {
	status := collector.controller.Status()

	active := 0.0
	if status.State == controller.StateActive {
		active = 1
	}
	ch <- prometheus.MustNewConstMetric(collector.state, prometheus.GaugeValue, active, status.Curve)
	ch <- prometheus.MustNewConstMetric(collector.ticks, prometheus.CounterValue, float64(status.Ticks))

	failures := map[string]int{
		"discovery":      status.Failures.Discovery,
		"sensor_read":    status.Failures.SensorRead,
		"actuator_write": status.Failures.ActuatorWrite,
		"read_back":      status.Failures.ReadBack,
		"unexpected_pwm": status.Failures.UnexpectedPwmValue,
		"persistence":    status.Failures.Persistence,
		"validation":     status.Failures.Validation,
	}
	for kind, count := range failures {
		ch <- prometheus.MustNewConstMetric(collector.failures, prometheus.CounterValue, float64(count), kind)
	}

	ch <- prometheus.MustNewConstMetric(collector.temperature, prometheus.GaugeValue, status.Sample.Temperature)
	ch <- prometheus.MustNewConstMetric(collector.duty, prometheus.GaugeValue, float64(status.Sample.Duty)/10000)
	ch <- prometheus.MustNewConstMetric(collector.pwm, prometheus.GaugeValue, float64(status.Sample.Pwm))
	ch <- prometheus.MustNewConstMetric(collector.rpm, prometheus.GaugeValue, float64(status.Sample.Rpm))
}
