package hwmon

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/markusressel/fancurve/internal/ui"
	"github.com/markusressel/fancurve/internal/util"
)

const (
	DefaultRoot        = "/sys/class/hwmon"
	DefaultCpuInfoPath = "/proc/cpuinfo"

	// maxFanChannels limits the fan<N>_label scan of a controller
	maxFanChannels = 10
)

var (
	ErrNotFound = errors.New("not found")

	DefaultFanControllers = []string{"system76_thelio_io", "system76"}
)

type Vendor string

const (
	VendorIntel   Vendor = "Intel"
	VendorAmd     Vendor = "AMD"
	VendorUnknown Vendor = "Unknown"
)

type tempPattern struct {
	chip   string
	labels []string
}

var (
	intelPattern = tempPattern{chip: "coretemp", labels: []string{"Package id 0", "Core 0"}}
	amdPattern   = tempPattern{chip: "k10temp", labels: []string{"Tctl", "Tdie"}}
)

// DiscoveryError is returned when the sensor or actuator could not be located.
type DiscoveryError struct {
	What string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery of %s failed: %v", e.What, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// SensorHandle points to the temperature input of the CPU
type SensorHandle struct {
	DevicePath string
	ChipName   string
	Input      string
	Label      string
}

// ActuatorHandle points to the files of a single PWM controlled fan
type ActuatorHandle struct {
	DevicePath string
	ChipName   string
	Index      int
	Label      string
	RpmInput   string
	PwmOutput  string
	PwmEnable  string
}

func (a ActuatorHandle) Id() string {
	return fmt.Sprintf("%s/fan%d", a.ChipName, a.Index)
}

// Discovery is the one-time result of scanning the hwmon tree
type Discovery struct {
	Vendor   Vendor
	Sensor   *SensorHandle
	Actuator *ActuatorHandle
	// Fans contains every fan with a pwm output on the matched controller, including Actuator
	Fans []*ActuatorHandle
}

type Options struct {
	Root           string
	CpuInfoPath    string
	FanControllers []string
	// FallbackToFirstFan uses the first fan of a controller if none is labeled as cpu fan
	FallbackToFirstFan bool
}

type device struct {
	path string
	name string
}

// Discover locates the CPU temperature input and the CPU fan.
// A partial result is returned together with a *DiscoveryError if one of them is missing.
func Discover(opts Options) (*Discovery, error) {
	if len(opts.Root) <= 0 {
		opts.Root = DefaultRoot
	}
	if len(opts.CpuInfoPath) <= 0 {
		opts.CpuInfoPath = DefaultCpuInfoPath
	}
	if len(opts.FanControllers) <= 0 {
		opts.FanControllers = DefaultFanControllers
	}

	devices, err := listDevices(opts.Root)
	if err != nil {
		return nil, &DiscoveryError{What: "hwmon devices", Err: err}
	}

	vendor := DetectVendor(opts.CpuInfoPath)
	ui.Debug("Detected CPU vendor: %s", vendor)

	result := &Discovery{Vendor: vendor}
	var errs []error

	result.Sensor = findTemperatureSensor(devices, vendor)
	if result.Sensor == nil {
		errs = append(errs, &DiscoveryError{What: fmt.Sprintf("CPU temperature sensor (%s)", vendor), Err: ErrNotFound})
	}

	result.Actuator, result.Fans = findCpuFan(devices, opts.FanControllers, opts.FallbackToFirstFan)
	if result.Actuator == nil {
		errs = append(errs, &DiscoveryError{What: "CPU fan", Err: ErrNotFound})
	}

	return result, errors.Join(errs...)
}

// DetectVendor reads the vendor_id of the CPU info file
func DetectVendor(cpuInfoPath string) Vendor {
	file, err := os.Open(cpuInfoPath)
	if err != nil {
		ui.Warning("Cannot read %s: %v", cpuInfoPath, err)
		return VendorUnknown
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "vendor_id") {
			continue
		}
		_, value, found := strings.Cut(line, ":")
		if !found {
			break
		}
		switch strings.TrimSpace(value) {
		case "GenuineIntel":
			return VendorIntel
		case "AuthenticAMD":
			return VendorAmd
		default:
			ui.Warning("Unknown CPU vendor: %s", strings.TrimSpace(value))
			return VendorUnknown
		}
	}
	return VendorUnknown
}

func listDevices(root string) ([]device, error) {
	paths, err := util.FindHwmonDevicePaths(root)
	if err != nil {
		return nil, err
	}
	// hwmon numbering is not stable, but the scan order should be
	sort.Strings(paths)

	var result []device
	for _, path := range paths {
		name := util.GetDeviceName(path)
		if len(name) <= 0 {
			continue
		}
		result = append(result, device{path: path, name: name})
	}
	return result, nil
}

func patternsFor(vendor Vendor) []tempPattern {
	switch vendor {
	case VendorIntel:
		return []tempPattern{intelPattern}
	case VendorAmd:
		return []tempPattern{amdPattern}
	default:
		return []tempPattern{amdPattern, intelPattern}
	}
}

func findTemperatureSensor(devices []device, vendor Vendor) *SensorHandle {
	for _, pattern := range patternsFor(vendor) {
		for _, d := range devices {
			if d.name != pattern.chip {
				continue
			}
			if sensor := findTemperatureInput(d, pattern); sensor != nil {
				return sensor
			}
		}
	}
	return nil
}

func findTemperatureInput(d device, pattern tempPattern) *SensorHandle {
	indices := channelIndices(d.path, "temp", "_input")

	for _, keyword := range pattern.labels {
		for _, index := range indices {
			channel := fmt.Sprintf("temp%d", index)
			label := util.GetLabel(d.path, channel)
			if strings.Contains(label, keyword) {
				return &SensorHandle{
					DevicePath: d.path,
					ChipName:   d.name,
					Input:      util.ChannelFile(d.path, "temp", index, "input"),
					Label:      label,
				}
			}
		}
	}

	// older k10temp drivers do not provide labels
	if pattern.chip == amdPattern.chip && len(indices) > 0 && indices[0] == 1 && len(util.GetLabel(d.path, "temp1")) <= 0 {
		return &SensorHandle{
			DevicePath: d.path,
			ChipName:   d.name,
			Input:      util.ChannelFile(d.path, "temp", 1, "input"),
			Label:      "temp1",
		}
	}
	return nil
}

func findCpuFan(devices []device, controllers []string, fallbackToFirst bool) (*ActuatorHandle, []*ActuatorHandle) {
	for _, d := range devices {
		if !util.ContainsString(controllers, d.name) {
			continue
		}

		var cpuFan *ActuatorHandle
		var all []*ActuatorHandle
		for index := 1; index <= maxFanChannels; index++ {
			labelPath := util.ChannelFile(d.path, "fan", index, "label")
			inputPath := util.ChannelFile(d.path, "fan", index, "input")
			if !util.FileExists(labelPath) || !util.FileExists(inputPath) {
				break
			}

			fan := newActuatorHandle(d, index)
			if util.FileExists(fan.PwmOutput) {
				all = append(all, fan)
			}
			if cpuFan == nil && strings.Contains(strings.ToLower(fan.Label), "cpu") {
				cpuFan = fan
			}
		}

		if cpuFan == nil && fallbackToFirst && len(all) > 0 {
			ui.Warning("No fan labeled as CPU fan on %s, using %s", d.name, all[0].Label)
			cpuFan = all[0]
		}
		if cpuFan != nil {
			if len(all) <= 0 || !containsActuator(all, cpuFan) {
				all = append([]*ActuatorHandle{cpuFan}, all...)
			}
			return cpuFan, all
		}
	}
	return nil, nil
}

func newActuatorHandle(d device, index int) *ActuatorHandle {
	return &ActuatorHandle{
		DevicePath: d.path,
		ChipName:   d.name,
		Index:      index,
		Label:      util.GetLabel(d.path, fmt.Sprintf("fan%d", index)),
		RpmInput:   util.ChannelFile(d.path, "fan", index, "input"),
		PwmOutput:  util.ChannelFile(d.path, "pwm", index, ""),
		PwmEnable:  util.ChannelFile(d.path, "pwm", index, "enable"),
	}
}

func containsActuator(list []*ActuatorHandle, fan *ActuatorHandle) bool {
	for _, a := range list {
		if a == fan {
			return true
		}
	}
	return false
}

// channelIndices returns the sorted indices of all <kind><N><suffix> files of a device
func channelIndices(devicePath string, kind string, suffix string) []int {
	entries, err := os.ReadDir(devicePath)
	if err != nil {
		return nil
	}
	var result []int
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		if index, ok := util.ChannelIndex(name, kind); ok {
			result = append(result, index)
		}
	}
	sort.Ints(result)
	return result
}
