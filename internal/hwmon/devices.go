package hwmon

import (
	"fmt"

	"github.com/markusressel/fancurve/internal/util"
)

// ListDevices reads every hwmon device below root from sysfs directly.
// Temperatures are converted to °C, fan values are RPM.
func ListDevices(root string) ([]*Chip, error) {
	if len(root) <= 0 {
		root = DefaultRoot
	}
	devices, err := listDevices(root)
	if err != nil {
		return nil, &DiscoveryError{What: "hwmon devices", Err: err}
	}

	var result []*Chip
	for _, d := range devices {
		chip := &Chip{Name: d.name, Path: d.path}
		for _, index := range channelIndices(d.path, "temp", "_input") {
			chip.Temps = append(chip.Temps, readChannel(d.path, "temp", index, 1000))
		}
		for _, index := range channelIndices(d.path, "fan", "_input") {
			chip.Fans = append(chip.Fans, readChannel(d.path, "fan", index, 1))
		}
		result = append(result, chip)
	}
	return result, nil
}

func readChannel(devicePath string, kind string, index int, divisor float64) Channel {
	input := util.ChannelFile(devicePath, kind, index, "input")
	channel := Channel{
		Index: index,
		Label: util.GetLabel(devicePath, fmt.Sprintf("%s%d", kind, index)),
		Input: input,
	}
	if value, err := util.ReadIntFromFile(input); err == nil {
		channel.Value = float64(value) / divisor
	}
	return channel
}
