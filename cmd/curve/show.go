package curve

import (
	"fmt"

	"github.com/markusressel/fancurve/internal/configuration"
	"github.com/markusressel/fancurve/internal/persistence"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a single configured or stored curve",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration.DetectAndReadConfigFile()
		configuration.LoadConfig()
		name := args[0]

		curvesConfig := configuration.CurrentConfig.Curves
		curveConfig, _ := persistence.LoadOrDefault(curvesConfig.UserConfigPath)
		if curve, ok := curveConfig.ByName(name); ok {
			return printCurve(curve, name)
		}

		stored, err := persistence.ListNamedCurves(curvesConfig.StateDir, curvesConfig.SystemDir)
		if err != nil {
			return err
		}
		for _, named := range stored {
			if named.Curve.Name() == name {
				return printCurve(named.Curve, fmt.Sprintf("%s (%s)", name, named.Path))
			}
		}

		return fmt.Errorf("no curve with name found: %s, options: %s", name, curveConfig.Names())
	},
}

func init() {
	Command.AddCommand(showCmd)
}
