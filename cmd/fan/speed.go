package fan

import (
	"fmt"
	"strconv"

	"github.com/markusressel/fancurve/internal/fans"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var speedCmd = &cobra.Command{
	Use:   "speed",
	Short: "Get/Set the current speed setting of a fan to the given PWM value ([0..255])",
	Long:  ``,
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		driver, fan, err := getFan(fanId)
		if err != nil {
			return err
		}

		if len(args) > 0 {
			pwmValue, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			if pwmValue < fans.MinPwmValue || pwmValue > fans.MaxPwmValue {
				return fmt.Errorf("pwm value must be within [%d..%d], was %d", fans.MinPwmValue, fans.MaxPwmValue, pwmValue)
			}
			return driver.SetDuty(fan.GetId(), uint8(pwmValue))
		}

		pwm, err := driver.ReadDuty(fan.GetId())
		if err != nil {
			return err
		}
		fmt.Printf("%d", pwm)
		return nil
	},
}

func init() {
	Command.AddCommand(speedCmd)
}
