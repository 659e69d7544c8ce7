package curve

import (
	"github.com/markusressel/fancurve/internal/dbus"
	"github.com/markusressel/fancurve/internal/ui"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <temp>:<duty> ...",
	Short: "Replace the active curve with the given points until the daemon restarts",
	Long:  `Replace the active curve with the given points, f.ex. "fancurve curve set 40:30 60:50 80:100".`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := parsePairs(args)
		if err != nil {
			return err
		}
		return withClient(func(client *dbus.Client) error {
			return client.SetFanCurve(pairs)
		})
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <name> <temp>:<duty> ...",
	Short: "Store the given points as a named curve and make it the default",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		pairs, err := parsePairs(args[1:])
		if err != nil {
			return err
		}
		return withClient(func(client *dbus.Client) error {
			if err := client.SetFanCurvePersistent(name, pairs); err != nil {
				return err
			}
			ui.Success("Saved curve '%s'", name)
			return nil
		})
	},
}

func init() {
	Command.AddCommand(setCmd)
	Command.AddCommand(saveCmd)
}
