package util

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var hwmonDeviceRegex = regexp.MustCompile(`^hwmon\d+$`)

// GetDeviceName read the name of a device
func GetDeviceName(devicePath string) string {
	name, _ := ReadStringFromFile(filepath.Join(devicePath, "name"))
	return name
}

// GetLabel read the label of an in/output of a device, f.ex. "temp1" or "fan2"
func GetLabel(devicePath string, channel string) string {
	label, _ := ReadStringFromFile(filepath.Join(devicePath, channel+"_label"))
	return label
}

// ChannelFile builds the path of a hwmon attribute file, f.ex. (dev, "fan", 2, "input") -> dev/fan2_input
func ChannelFile(devicePath string, kind string, index int, attribute string) string {
	name := fmt.Sprintf("%s%d", kind, index)
	if len(attribute) > 0 {
		name += "_" + attribute
	}
	return filepath.Join(devicePath, name)
}

// FindHwmonDevicePaths returns all hwmon device directories below root (usually /sys/class/hwmon)
func FindHwmonDevicePaths(root string) ([]string, error) {
	return FindFilesMatching(root, hwmonDeviceRegex)
}

// ChannelIndex extracts the numeric index of a hwmon attribute file name, f.ex. "temp3_input" -> 3
func ChannelIndex(fileName string, kind string) (int, bool) {
	rest := strings.TrimPrefix(fileName, kind)
	if rest == fileName {
		return -1, false
	}
	end := strings.IndexByte(rest, '_')
	if end > 0 {
		rest = rest[:end]
	}
	var index int
	if _, err := fmt.Sscanf(rest, "%d", &index); err != nil {
		return -1, false
	}
	return index, true
}
