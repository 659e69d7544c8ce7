package fan

import (
	"fmt"
	"math"
	"strconv"

	"github.com/markusressel/fancurve/internal/curves"
	"github.com/markusressel/fancurve/internal/fans"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <duty>",
	Short: "Set the duty of a fan in percent ([0..100])",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		percent, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return err
		}
		if percent < 0 || percent > 100 {
			return fmt.Errorf("duty must be within [0..100], was %s", args[0])
		}

		driver, fan, err := getFan(fanId)
		if err != nil {
			return err
		}

		duty := uint16(math.Round(percent * float64(curves.MaxDuty) / 100))
		pwm := fans.DutyToPwm(duty)
		if err := driver.SetDuty(fan.GetId(), pwm); err != nil {
			return err
		}
		fmt.Printf("%d", pwm)
		return nil
	},
}

func init() {
	Command.AddCommand(setCmd)
}
