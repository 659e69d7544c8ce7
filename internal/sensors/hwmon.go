package sensors

import (
	"fmt"
	"sync"

	"github.com/asecurityteam/rolling"
	"github.com/markusressel/fancurve/internal/hwmon"
	"github.com/markusressel/fancurve/internal/util"
)

type HwmonSensor struct {
	Name      string  `json:"name"`
	Label     string  `json:"label"`
	Input     string  `json:"input"`
	MovingAvg float64 `json:"movingAvg"`

	mu         sync.Mutex
	window     *rolling.PointPolicy
	windowSize int
	primed     bool
}

func NewHwmonSensor(handle *hwmon.SensorHandle, windowSize int) *HwmonSensor {
	if windowSize < 1 {
		windowSize = 1
	}
	return &HwmonSensor{
		Name:       handle.ChipName,
		Label:      handle.Label,
		Input:      handle.Input,
		window:     util.CreateRollingWindow(windowSize),
		windowSize: windowSize,
	}
}

func (sensor *HwmonSensor) GetId() string {
	return fmt.Sprintf("%s/%s", sensor.Name, sensor.Label)
}

func (sensor *HwmonSensor) GetLabel() string {
	return sensor.Label
}

func (sensor *HwmonSensor) GetValue() (result float64, err error) {
	integer, err := util.ReadIntFromFile(sensor.Input)
	if err != nil {
		return 0, err
	}
	if integer < MinPlausibleTemp || integer > MaxPlausibleTemp {
		return 0, fmt.Errorf("%s: %d: %w", sensor.Input, integer, ErrImplausibleValue)
	}
	return float64(integer), nil
}

func (sensor *HwmonSensor) Sample() (float64, error) {
	value, err := sensor.GetValue()
	if err != nil {
		return 0, err
	}

	sensor.mu.Lock()
	defer sensor.mu.Unlock()

	if !sensor.primed {
		// fill the whole window so the first average is not skewed towards 0
		for i := 0; i < sensor.windowSize; i++ {
			sensor.window.Append(value)
		}
		sensor.primed = true
	} else {
		sensor.window.Append(value)
	}
	sensor.MovingAvg = util.GetWindowAvg(sensor.window)
	return sensor.MovingAvg, nil
}

func (sensor *HwmonSensor) GetMovingAvg() (avg float64) {
	sensor.mu.Lock()
	defer sensor.mu.Unlock()
	return sensor.MovingAvg
}
