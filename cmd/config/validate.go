package config

import (
	"os"

	"github.com/markusressel/fancurve/internal/configuration"
	"github.com/markusressel/fancurve/internal/persistence"
	"github.com/markusressel/fancurve/internal/ui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validates the current configuration and the curve config file",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// note: config file path parameter comes from the root command (-c)
		configPath := configuration.DetectAndReadConfigFile()
		ui.Info("Using configuration file at: %s", configPath)
		configuration.LoadConfig()

		if err := configuration.Validate(configPath); err != nil {
			ui.Error("Validation failed: %v", err)
			os.Exit(1)
		}

		curvePath := configuration.CurrentConfig.Curves.UserConfigPath
		if _, err := os.Stat(curvePath); err == nil {
			if _, err := persistence.Load(curvePath); err != nil {
				ui.Error("Curve config %s is invalid: %v", curvePath, err)
				os.Exit(1)
			}
			ui.Info("Curve config %s is valid", curvePath)
		}

		ui.Success("Config looks good! :)")
		return nil
	},
}

func init() {
	Command.AddCommand(validateCmd)
}
