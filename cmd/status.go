package cmd

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/markusressel/fancurve/cmd/global"
	"github.com/markusressel/fancurve/internal/configuration"
	"github.com/markusressel/fancurve/internal/dbus"
	"github.com/markusressel/fancurve/internal/ui"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of the running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(client *dbus.Client) error {
			status, err := client.GetStatus()
			if err != nil {
				return err
			}

			tab := table.Table{
				Headers: []string{"State", "Curve", "Index", "°C", "Duty", "PWM", "RPM"},
				Rows: [][]string{{
					status.State,
					status.Curve,
					strconv.Itoa(int(status.CurveIndex)),
					fmt.Sprintf("%.1f", status.Temperature),
					fmt.Sprintf("%.2f%%", float64(status.Duty)/100),
					strconv.Itoa(int(status.Pwm)),
					strconv.Itoa(int(status.Rpm)),
				}},
			}
			var buf bytes.Buffer
			if err := tab.WriteTable(&buf, global.TableConfig()); err != nil {
				return err
			}
			ui.Printfln("%s", buf.String())
			return nil
		})
	},
}

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Hand all fans back to the automatic control of the hardware",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(func(client *dbus.Client) error {
			return client.SetAutomatic()
		})
	},
}

func withDaemon(fn func(client *dbus.Client) error) error {
	configuration.DetectAndReadConfigFile()
	configuration.LoadConfig()

	client, err := dbus.NewClient(configuration.CurrentConfig.DBus)
	if err != nil {
		return fmt.Errorf("unable to connect to the fancurve daemon: %w", err)
	}
	defer func() {
		_ = client.Close()
	}()
	return fn(client)
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(autoCmd)
}
