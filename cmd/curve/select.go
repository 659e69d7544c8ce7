package curve

import (
	"fmt"
	"strconv"

	"github.com/markusressel/fancurve/internal/dbus"
	"github.com/markusressel/fancurve/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

var selectCmd = &cobra.Command{
	Use:   "select <name>",
	Short: "Activate the curve with the given name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(client *dbus.Client) error {
			return client.SelectFanCurve(args[0])
		})
	},
}

var defaultCmd = &cobra.Command{
	Use:   "set-default <name|index>",
	Short: "Make the given curve the default of the curve config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(client *dbus.Client) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				names, err := client.GetFanCurves()
				if err != nil {
					return err
				}
				index = slices.Index(names, args[0])
				if index < 0 {
					return fmt.Errorf("no curve with name found: %s, options: %s", args[0], names)
				}
			}
			return client.SetDefaultFanCurve(index)
		})
	},
}

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "Print the names of the curves known to the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(client *dbus.Client) error {
			names, err := client.GetFanCurves()
			if err != nil {
				return err
			}
			for idx, name := range names {
				ui.Printfln("%d: %s", idx, name)
			}
			return nil
		})
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Print all curves stored as single files, as seen by the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(client *dbus.Client) error {
			named, err := client.LoadAllFanCurves()
			if err != nil {
				return err
			}
			for _, curve := range named {
				points := ""
				for _, point := range curve.Points {
					points += fmt.Sprintf(" %d:%s", point.Temp, formatDuty(int(point.Duty)))
				}
				ui.Printfln("%s:%s", curve.Name, points)
			}
			return nil
		})
	},
}

func init() {
	Command.AddCommand(selectCmd)
	Command.AddCommand(defaultCmd)
	Command.AddCommand(namesCmd)
	Command.AddCommand(loadCmd)
}
