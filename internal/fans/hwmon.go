package fans

import (
	"fmt"

	"github.com/markusressel/fancurve/internal/hwmon"
	"github.com/markusressel/fancurve/internal/ui"
	"github.com/markusressel/fancurve/internal/util"
)

const InitialLastSetPwm = -10

type HwMonFan struct {
	Id         string `json:"id"`
	Label      string `json:"label"`
	Index      int    `json:"index"`
	RpmInput   string `json:"rpmInput"`
	PwmOutput  string `json:"pwmOutput"`
	PwmEnable  string `json:"pwmEnable"`
	LastSetPwm int    `json:"lastSetPwm"`
}

func NewHwMonFan(handle *hwmon.ActuatorHandle) *HwMonFan {
	return &HwMonFan{
		Id:         handle.Id(),
		Label:      handle.Label,
		Index:      handle.Index,
		RpmInput:   handle.RpmInput,
		PwmOutput:  handle.PwmOutput,
		PwmEnable:  handle.PwmEnable,
		LastSetPwm: InitialLastSetPwm,
	}
}

func (fan HwMonFan) GetId() string {
	return fan.Id
}

func (fan HwMonFan) GetLabel() string {
	return fan.Label
}

func (fan HwMonFan) GetRpm() (int, error) {
	return util.ReadIntFromFile(fan.RpmInput)
}

func (fan HwMonFan) GetPwm() (int, error) {
	return util.ReadIntFromFile(fan.PwmOutput)
}

// SetPwm writes "1" to pwmX_enable and then the value to pwmX.
// Some controllers accept direct writes without the enable step,
// so a failure to enable manual mode is only logged.
func (fan *HwMonFan) SetPwm(pwm int) (err error) {
	if err := util.WriteIntToFile(int(ControlModePWM), fan.PwmEnable); err != nil {
		ui.Debug("Unable to enable manual control of %s (%s): %v", fan.Id, fan.Label, err)
	}

	ui.Debug("Setting %s (%s) to %d ...", fan.Id, fan.Label, pwm)
	err = util.WriteIntToFile(pwm, fan.PwmOutput)
	if err != nil {
		return fmt.Errorf("unable to set pwm of %s: %w", fan.Id, err)
	}
	fan.LastSetPwm = pwm
	return nil
}

func (fan HwMonFan) GetLastSetPwm() int {
	return fan.LastSetPwm
}

func (fan HwMonFan) GetPwmEnabled() (int, error) {
	return util.ReadIntFromFile(fan.PwmEnable)
}

func (fan HwMonFan) IsPwmAuto() (bool, error) {
	value, err := fan.GetPwmEnabled()
	if err != nil {
		return false, err
	}
	return value > 1, nil
}

// SetPwmEnabled writes the given value to pwmX_enable
// Possible values (unsure if these are true for all scenarios):
// 0 - no control (results in max speed)
// 1 - manual pwm control
// 2 - motherboard pwm control
func (fan *HwMonFan) SetPwmEnabled(value ControlMode) (err error) {
	err = util.WriteIntToFile(int(value), fan.PwmEnable)
	if err != nil {
		return fmt.Errorf("unable to set pwm_enable of %s: %w", fan.Id, err)
	}
	currentValue, err := util.ReadIntFromFile(fan.PwmEnable)
	if err != nil || currentValue != int(value) {
		return fmt.Errorf("PWM mode of %s stuck to %d", fan.Id, currentValue)
	}
	if value != ControlModePWM {
		fan.LastSetPwm = InitialLastSetPwm
	}
	return nil
}

func (fan *HwMonFan) SetAutomatic() error {
	return fan.SetPwmEnabled(ControlModeAutomatic)
}
