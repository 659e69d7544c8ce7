package configuration

import "time"

const (
	DefaultCurveSystemDir = "/etc/system76-power/fan_curves"
	DefaultCurveStateDir  = "/var/lib/system76-power/fan_curves"
	DefaultUserConfigPath = "~/.fan_curve_app/config.json"
)

type CurvesConfig struct {
	// SystemDir holds the curve files and default.json, it is scanned first
	SystemDir string `json:"systemDir"`
	StateDir  string `json:"stateDir"`
	// UserConfigPath is the combined file containing all curves and the default index
	UserConfigPath string `json:"userConfigPath"`
	// Watch reloads the default curve when it is changed on disk
	Watch DefaultTrueBool `json:"watch"`
}

type PersistenceConfig struct {
	Retries int           `json:"retries"`
	Backoff time.Duration `json:"backoff"`
}

type FansConfig struct {
	// Controllers lists the hwmon chip names that may drive the CPU fan
	Controllers []string `json:"controllers"`
	// ControlAll drives every fan of the controller instead of only the CPU fan
	ControlAll      bool            `json:"controlAll"`
	FallbackToFirst bool            `json:"fallbackToFirst"`
	RestoreOnExit   DefaultTrueBool `json:"restoreOnExit"`
}
