package sensor

import (
	"fmt"

	"github.com/markusressel/fancurve/internal/configuration"
	"github.com/markusressel/fancurve/internal/hwmon"
	"github.com/markusressel/fancurve/internal/sensors"
	"github.com/markusressel/fancurve/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "sensor",
	Short: "Print the CPU temperature in °C, as read by the daemon",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		sensor, err := getSensor()
		if err != nil {
			return err
		}

		value, err := sensor.GetValue()
		if err != nil {
			return err
		}
		fmt.Printf("%.1f", value/1000)
		return nil
	},
}

func getSensor() (sensors.Sensor, error) {
	configPath := configuration.DetectAndReadConfigFile()
	ui.Info("Using configuration file at: %s", configPath)
	configuration.LoadConfig()

	config := configuration.CurrentConfig
	discovery, err := hwmon.Discover(hwmon.Options{
		Root:        config.HwmonRoot,
		CpuInfoPath: config.CpuInfoPath,
	})
	if discovery == nil || discovery.Sensor == nil {
		return nil, fmt.Errorf("unable to find the CPU temperature sensor: %v", err)
	}

	return sensors.NewHwmonSensor(discovery.Sensor, 1), nil
}
