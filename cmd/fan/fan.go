package fan

import (
	"fmt"

	"github.com/markusressel/fancurve/internal/configuration"
	"github.com/markusressel/fancurve/internal/fans"
	"github.com/markusressel/fancurve/internal/hwmon"
	"github.com/markusressel/fancurve/internal/ui"
	"github.com/spf13/cobra"
)

var fanId string

// Command accesses the fans directly, the daemon should not be running at the same time
var Command = &cobra.Command{
	Use:              "fan",
	Short:            "Fan related commands",
	Long:             ``,
	TraverseChildren: true,
}

func init() {
	Command.PersistentFlags().StringVarP(
		&fanId,
		"id", "i",
		"",
		"Fan ID as printed by detect, f.ex. system76_thelio_io/fan1 (default is the CPU fan)",
	)
}

func getDriver() (*fans.Driver, *hwmon.Discovery, error) {
	configPath := configuration.DetectAndReadConfigFile()
	ui.Debug("Using configuration file at: %s", configPath)
	configuration.LoadConfig()

	config := configuration.CurrentConfig
	discovery, err := hwmon.Discover(hwmon.Options{
		Root:               config.HwmonRoot,
		CpuInfoPath:        config.CpuInfoPath,
		FanControllers:     config.Fans.Controllers,
		FallbackToFirstFan: config.Fans.FallbackToFirst,
	})
	if discovery == nil || len(discovery.Fans) <= 0 {
		return nil, nil, fmt.Errorf("no controllable fans found: %v", err)
	}

	var list []fans.Fan
	for _, handle := range discovery.Fans {
		list = append(list, fans.NewHwMonFan(handle))
	}
	return fans.NewDriver(list...), discovery, nil
}

func getFan(id string) (*fans.Driver, fans.Fan, error) {
	driver, discovery, err := getDriver()
	if err != nil {
		return nil, nil, err
	}

	if len(id) <= 0 {
		if discovery.Actuator == nil {
			return nil, nil, fmt.Errorf("no CPU fan found, specify one with --id")
		}
		id = discovery.Actuator.Id()
	}

	fan, err := driver.Get(id)
	if err != nil {
		var ids []string
		for _, f := range driver.Fans() {
			ids = append(ids, f.GetId())
		}
		return nil, nil, fmt.Errorf("no fan with id found: %s, options: %s", id, ids)
	}
	return driver, fan, nil
}
