package fans

import (
	"errors"
	"fmt"
	"sort"

	"github.com/markusressel/fancurve/internal/ui"
)

// Driver applies duty values to a fixed set of fans
type Driver struct {
	fans FanMap
}

func NewDriver(fans ...Fan) *Driver {
	fanMap := NewFanMap()
	for _, fan := range fans {
		fanMap.Set(fan.GetId(), fan)
	}
	return &Driver{fans: fanMap}
}

// Fans returns all fans of this driver, sorted by id
func (d *Driver) Fans() []Fan {
	result := make([]Fan, 0, d.fans.Count())
	for _, fan := range d.fans.Items() {
		result = append(result, fan)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].GetId() < result[j].GetId()
	})
	return result
}

func (d *Driver) Count() int {
	return d.fans.Count()
}

func (d *Driver) Get(fanId string) (Fan, error) {
	fan, ok := d.fans.Get(fanId)
	if !ok {
		return nil, fmt.Errorf("%s: %w", fanId, ErrFanNotFound)
	}
	return fan, nil
}

// SetDutyAll applies the pwm value to every fan. All fans are attempted, failures are joined.
func (d *Driver) SetDutyAll(pwm uint8) error {
	var result error
	for _, fan := range d.Fans() {
		if err := fan.SetPwm(int(pwm)); err != nil {
			result = errors.Join(result, err)
		}
	}
	return result
}

func (d *Driver) SetDuty(fanId string, pwm uint8) error {
	fan, err := d.Get(fanId)
	if err != nil {
		return err
	}
	return fan.SetPwm(int(pwm))
}

// SetAutomatic hands control of the fan back to the firmware
func (d *Driver) SetAutomatic(fanId string) error {
	fan, err := d.Get(fanId)
	if err != nil {
		return err
	}
	return fan.SetAutomatic()
}

func (d *Driver) SetAutomaticAll() error {
	var result error
	for _, fan := range d.Fans() {
		if err := fan.SetAutomatic(); err != nil {
			ui.Warning("Unable to switch %s to automatic mode: %v", fan.GetId(), err)
			result = errors.Join(result, err)
		}
	}
	return result
}

// ReadDuty returns the raw pwm value currently applied to the fan
func (d *Driver) ReadDuty(fanId string) (uint8, error) {
	fan, err := d.Get(fanId)
	if err != nil {
		return 0, err
	}
	pwm, err := fan.GetPwm()
	if err != nil {
		return 0, err
	}
	if pwm < MinPwmValue || pwm > MaxPwmValue {
		return 0, fmt.Errorf("pwm value of %s out of range: %d", fanId, pwm)
	}
	return uint8(pwm), nil
}

// ReadSpeed returns the current RPM of the fan
func (d *Driver) ReadSpeed(fanId string) (uint16, error) {
	fan, err := d.Get(fanId)
	if err != nil {
		return 0, err
	}
	rpm, err := fan.GetRpm()
	if err != nil {
		return 0, err
	}
	if rpm < 0 || rpm > 0xFFFF {
		return 0, fmt.Errorf("rpm value of %s out of range: %d", fanId, rpm)
	}
	return uint16(rpm), nil
}
