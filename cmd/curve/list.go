package curve

import (
	"fmt"

	"github.com/markusressel/fancurve/internal/configuration"
	"github.com/markusressel/fancurve/internal/persistence"
	"github.com/markusressel/fancurve/internal/ui"
	"github.com/spf13/cobra"
)

var showStored bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the configured fan curves to console",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := configuration.DetectAndReadConfigFile()
		ui.Info("Using configuration file at: %s", configPath)
		configuration.LoadConfig()

		curvesConfig := configuration.CurrentConfig.Curves
		curveConfig, err := persistence.LoadOrDefault(curvesConfig.UserConfigPath)
		if err != nil {
			ui.Warning("Unable to load %s, showing built-in curves: %v", curvesConfig.UserConfigPath, err)
		}

		for idx, curve := range curveConfig.Curves() {
			if idx > 0 {
				ui.Printfln("")
			}
			title := fmt.Sprintf("%d: %s", idx, curve.Name())
			if idx == curveConfig.DefaultIndex() {
				title += " (default)"
			}
			if err := printCurve(curve, title); err != nil {
				return err
			}
		}

		if !showStored {
			return nil
		}

		stored, err := persistence.ListNamedCurves(curvesConfig.StateDir, curvesConfig.SystemDir)
		if err != nil {
			return err
		}
		for _, named := range stored {
			ui.Printfln("")
			if err := printCurve(named.Curve, fmt.Sprintf("%s (%s)", named.Curve.Name(), named.Path)); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&showStored, "stored", "s", false, "Also print the curves stored as single files")
	Command.AddCommand(listCmd)
}
