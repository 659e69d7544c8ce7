package curve

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/markusressel/fancurve/cmd/global"
	"github.com/markusressel/fancurve/internal/configuration"
	"github.com/markusressel/fancurve/internal/curves"
	"github.com/markusressel/fancurve/internal/dbus"
	"github.com/markusressel/fancurve/internal/ui"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var Command = &cobra.Command{
	Use:              "curve",
	Short:            "Curve related commands",
	TraverseChildren: true,
}

// withClient connects to the running daemon
func withClient(fn func(client *dbus.Client) error) error {
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

// parsePairs parses arguments of the form "<temp °C>:<duty %>"
func parsePairs(args []string) ([]curves.Pair, error) {
	pairs := make([]curves.Pair, 0, len(args))
	for _, arg := range args {
		temp, duty, found := strings.Cut(arg, ":")
		if !found {
			return nil, fmt.Errorf("invalid point '%s', expected <temp>:<duty>", arg)
		}
		tempValue, err := strconv.Atoi(strings.TrimSpace(temp))
		if err != nil {
			return nil, fmt.Errorf("invalid temperature in '%s': %w", arg, err)
		}
		dutyValue, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(duty), "%"), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid duty in '%s': %w", arg, err)
		}
		if dutyValue < 0 || dutyValue > 100 {
			return nil, fmt.Errorf("duty in '%s' must be within [0..100]", arg)
		}
		pairs = append(pairs, curves.Pair{tempValue, int(math.Round(dutyValue * 100))})
	}
	return pairs, nil
}

func formatDuty(duty int) string {
	return fmt.Sprintf("%.2f%%", float64(duty)/100)
}

// printCurve prints the points of a curve as a table followed by a graph of the interpolated duty
func printCurve(curve *curves.FanCurve, title string) error {
	var rows [][]string
	for _, pair := range curve.ToPairs() {
		rows = append(rows, []string{strconv.Itoa(pair[0]), formatDuty(pair[1])})
	}

	ui.Printfln("> %s", title)

	if len(rows) > 0 {
		tab := table.Table{
			Headers: []string{"°C", "Duty"},
			Rows:    rows,
		}
		var buf bytes.Buffer
		if err := tab.WriteTable(&buf, global.TableConfig()); err != nil {
			return err
		}
		ui.Printfln("%s", buf.String())
	}

	if curve.Len() <= 0 {
		ui.Printfln("(no points)")
		return nil
	}

	values := make([]float64, 0, curves.MaxPointTemp-curves.MinPointTemp+1)
	for temp := curves.MinPointTemp; temp <= curves.MaxPointTemp; temp++ {
		values = append(values, float64(curve.Interpolate(float64(temp)))/100)
	}

	caption := fmt.Sprintf("Duty %% / °C (%d..%d)", curves.MinPointTemp, curves.MaxPointTemp)
	graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption(caption))
	ui.Printfln("%s", graph)
	return nil
}
