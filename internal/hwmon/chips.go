package hwmon

import (
	"fmt"
	"path/filepath"

	"github.com/markusressel/fancurve/internal/util"
	"github.com/md14454/gosensors"
)

const (
	BusTypeIsa  = 1
	BusTypePci  = 2
	BusTypeAcpi = 5
)

// Channel is a single temperature or fan input of a chip
type Channel struct {
	Index int
	Label string
	Input string
	Value float64
}

type Chip struct {
	Name  string
	Path  string
	Temps []Channel
	Fans  []Channel
}

// ListChips lists all chips known to libsensors that provide temperatures or fans.
func ListChips() []*Chip {
	gosensors.Init()
	defer gosensors.Cleanup()
	detected := gosensors.GetDetectedChips()

	var list []*Chip
	for _, c := range detected {
		chip := &Chip{
			Name: computeIdentifier(c),
			Path: c.Path,
		}

		for _, feature := range c.GetFeatures() {
			var inputType gosensors.SubFeatureType
			switch feature.Type {
			case gosensors.FeatureTypeTemp:
				inputType = gosensors.SubFeatureTypeTempInput
			case gosensors.FeatureTypeFan:
				inputType = gosensors.SubFeatureTypeFanInput
			default:
				continue
			}

			for _, sub := range feature.GetSubFeatures() {
				if sub.Type != inputType {
					continue
				}
				kind := "temp"
				if feature.Type == gosensors.FeatureTypeFan {
					kind = "fan"
				}
				index, _ := util.ChannelIndex(sub.Name, kind)
				channel := Channel{
					Index: index,
					Label: util.GetLabel(c.Path, fmt.Sprintf("%s%d", kind, index)),
					Input: filepath.Join(c.Path, sub.Name),
					Value: sub.GetValue(),
				}
				if kind == "temp" {
					chip.Temps = append(chip.Temps, channel)
				} else {
					chip.Fans = append(chip.Fans, channel)
				}
			}
		}

		if len(chip.Temps) <= 0 && len(chip.Fans) <= 0 {
			continue
		}
		list = append(list, chip)
	}

	return list
}

func computeIdentifier(chip gosensors.Chip) (name string) {
	name = chip.Prefix

	devicePath := chip.Path
	if len(name) <= 0 {
		name = util.GetDeviceName(devicePath)
	}

	if len(name) <= 0 {
		_, name = filepath.Split(devicePath)
	}

	identifier := name
	switch chip.Bus.Type {
	case BusTypeIsa:
		identifier = fmt.Sprintf("%s-isa-%d%03x", identifier, chip.Bus.Nr, chip.Addr)
	case BusTypePci:
		identifier = fmt.Sprintf("%s-pci-%d%03x", identifier, chip.Bus.Nr, chip.Addr)
	case BusTypeAcpi:
		identifier = fmt.Sprintf("%s-acpi-%d", identifier, chip.Bus.Nr)
	}

	return identifier
}
