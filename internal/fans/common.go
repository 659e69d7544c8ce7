package fans

import (
	"errors"
	"math"

	"github.com/markusressel/fancurve/internal/curves"
	cmap "github.com/orcaman/concurrent-map/v2"
)

const (
	MaxPwmValue = 255
	MinPwmValue = 0
)

type ControlMode int

const (
	// ControlModeDisabled completely disables control, resulting in a 100% voltage/PWM signal output
	ControlModeDisabled ControlMode = 0
	// ControlModePWM enables manual, fixed speed control via setting the pwm value
	ControlModePWM ControlMode = 1
	// ControlModeAutomatic enables automatic control by the integrated control of the mainboard
	ControlModeAutomatic ControlMode = 2
)

var ErrFanNotFound = errors.New("fan not found")

type Fan interface {
	GetId() string
	GetLabel() string

	// GetRpm returns the current RPM value of this fan
	GetRpm() (int, error)

	// GetPwm returns the current PWM value of this fan
	GetPwm() (int, error)
	// SetPwm switches the fan to manual mode and applies the raw pwm value
	SetPwm(pwm int) (err error)
	GetLastSetPwm() int

	// GetPwmEnabled returns the current "pwm_enable" value of this fan
	GetPwmEnabled() (int, error)
	SetPwmEnabled(value ControlMode) (err error)
	// SetAutomatic hands control back to the firmware
	SetAutomatic() error
	// IsPwmAuto indicates whether this fan is in "Auto" mode
	IsPwmAuto() (bool, error)
}

type FanMap = cmap.ConcurrentMap[string, Fan]

func NewFanMap() FanMap {
	return cmap.New[Fan]()
}

// DutyToPwm converts a duty in ten-thousandths to a raw pwm value (0..255)
func DutyToPwm(duty uint16) uint8 {
	if duty > curves.MaxDuty {
		duty = curves.MaxDuty
	}
	return uint8(math.Round(float64(duty) * MaxPwmValue / float64(curves.MaxDuty)))
}

// PwmToDuty converts a raw pwm value to a duty in ten-thousandths
func PwmToDuty(pwm uint8) uint16 {
	return uint16(math.Round(float64(pwm) * float64(curves.MaxDuty) / MaxPwmValue))
}
