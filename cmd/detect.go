package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/markusressel/fancurve/cmd/global"
	"github.com/markusressel/fancurve/internal/configuration"
	"github.com/markusressel/fancurve/internal/fans"
	"github.com/markusressel/fancurve/internal/hwmon"
	"github.com/markusressel/fancurve/internal/ui"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect devices",
	Long:  `Detects all fans and sensors, prints them as a list and shows which ones fancurve would use`,
	Run: func(cmd *cobra.Command, args []string) {
		configuration.DetectAndReadConfigFile()
		configuration.LoadConfig()

		tableConfig := global.TableConfig()
		config := configuration.CurrentConfig

		chips := hwmon.ListChips()
		if len(chips) <= 0 {
			// libsensors is not available or not configured, read sysfs instead
			var err error
			chips, err = hwmon.ListDevices(config.HwmonRoot)
			if err != nil {
				ui.Error("%v", err)
			}
		}

		// === Print detected devices ===
		for _, chip := range chips {
			if len(chip.Name) <= 0 {
				continue
			}

			ui.Printfln("> %s", chip.Name)

			var fanRows [][]string
			for _, fan := range chip.Fans {
				fanRows = append(fanRows, []string{
					"", strconv.Itoa(fan.Index), fan.Label, strconv.Itoa(int(fan.Value)),
				})
			}
			fanTable := table.Table{
				Headers: []string{"Fans   ", "Index", "Label", "RPM"},
				Rows:    fanRows,
			}

			var sensorRows [][]string
			for _, sensor := range chip.Temps {
				_, file := filepath.Split(sensor.Input)
				sensorRows = append(sensorRows, []string{
					"", strconv.Itoa(sensor.Index), fmt.Sprintf("%s (%s)", sensor.Label, file), fmt.Sprintf("%.1f", sensor.Value),
				})
			}
			sensorTable := table.Table{
				Headers: []string{"Sensors", "Index", "Label", "°C"},
				Rows:    sensorRows,
			}

			printTables(tableConfig, fanTable, sensorTable)
		}

		// === Print the devices fancurve would control ===
		discovery, err := hwmon.Discover(hwmon.Options{
			Root:               config.HwmonRoot,
			CpuInfoPath:        config.CpuInfoPath,
			FanControllers:     config.Fans.Controllers,
			FallbackToFirstFan: config.Fans.FallbackToFirst,
		})
		if err != nil {
			ui.Warning("%v", err)
		}
		if discovery == nil {
			return
		}

		ui.Printfln("> fancurve (%s CPU)", discovery.Vendor)

		var rows [][]string
		if discovery.Sensor != nil {
			rows = append(rows, []string{"Sensor", discovery.Sensor.ChipName, discovery.Sensor.Label, discovery.Sensor.Input, ""})
		}
		for _, handle := range discovery.Fans {
			fan := fans.NewHwMonFan(handle)
			pwmText := "N/A"
			if pwm, err := fan.GetPwm(); err == nil {
				pwmText = strconv.Itoa(pwm)
			}
			role := "Fan"
			if discovery.Actuator != nil && discovery.Actuator.Id() == handle.Id() {
				role = "CPU Fan"
			}
			rows = append(rows, []string{role, handle.ChipName, handle.Label, handle.PwmOutput, pwmText})
		}

		printTables(tableConfig, table.Table{
			Headers: []string{"Role", "Chip", "Label", "Path", "PWM"},
			Rows:    rows,
		})
	},
}

func printTables(tableConfig *table.Config, tables ...table.Table) {
	for idx, tab := range tables {
		if tab.Rows == nil {
			continue
		}
		var buf bytes.Buffer
		tableErr := tab.WriteTable(&buf, tableConfig)
		if tableErr != nil {
			ui.Fatal("Error printing table: %v", tableErr)
		}
		tableString := buf.String()
		if idx < (len(tables) - 1) {
			ui.Printf("%s", tableString)
		} else {
			ui.Printfln("%s", tableString)
		}
	}
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
