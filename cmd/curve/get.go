package curve

import (
	"github.com/markusressel/fancurve/internal/curves"
	"github.com/markusressel/fancurve/internal/dbus"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the curve currently used by the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(client *dbus.Client) error {
			status, err := client.GetStatus()
			if err != nil {
				return err
			}
			pairs, err := client.GetFanCurve()
			if err != nil {
				return err
			}
			curve, err := curves.FromPairs(status.Curve, pairs)
			if err != nil {
				return err
			}
			title := status.Curve
			if len(title) <= 0 {
				title = "none"
			}
			return printCurve(curve, title+" ("+status.State+")")
		})
	},
}

func init() {
	Command.AddCommand(getCmd)
}
