package curve

import (
	"strconv"

	"github.com/markusressel/fancurve/internal/dbus"
	"github.com/spf13/cobra"
)

var addPointCmd = &cobra.Command{
	Use:   "add-point <temp> <duty>",
	Short: "Add a point to the active curve (°C, duty in %)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		temp, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		duty, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		return withClient(func(client *dbus.Client) error {
			return client.AddFanCurvePoint(temp, duty)
		})
	},
}

var removePointCmd = &cobra.Command{
	Use:   "remove-point",
	Short: "Remove the last point of the active curve",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(client *dbus.Client) error {
			return client.RemoveFanCurvePoint()
		})
	},
}

func init() {
	Command.AddCommand(addPointCmd)
	Command.AddCommand(removePointCmd)
}
