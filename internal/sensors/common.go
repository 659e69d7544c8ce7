package sensors

import (
	"errors"
)

const (
	// readings outside of this range (millidegrees) are treated as bogus
	MinPlausibleTemp = -50000
	MaxPlausibleTemp = 200000
)

var ErrImplausibleValue = errors.New("implausible sensor value")

type Sensor interface {
	GetId() string
	GetLabel() string

	// GetValue returns the current value of this sensor in millidegrees
	GetValue() (float64, error)

	// Sample reads the current value and returns the updated moving average
	Sample() (float64, error)

	// GetMovingAvg returns the moving average of this sensor's value
	GetMovingAvg() float64
}
