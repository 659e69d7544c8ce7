package configuration

import (
	"errors"
	"os"
	"time"

	"github.com/markusressel/fancurve/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	HwmonRoot   string `json:"hwmonRoot"`
	CpuInfoPath string `json:"cpuInfoPath"`

	TickRate              time.Duration `json:"tickRate"`
	TempRollingWindowSize int           `json:"tempRollingWindowSize"`

	Curves      CurvesConfig      `json:"curves"`
	Persistence PersistenceConfig `json:"persistence"`
	Fans        FansConfig        `json:"fans"`

	DBus       DBusConfig       `json:"dbus"`
	Api        ApiConfig        `json:"api"`
	Statistics StatisticsConfig `json:"statistics"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("fancurve")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/fancurve/")
	}

	viper.SetEnvPrefix("FANCURVE")
	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbPath", "/var/lib/fancurve/fancurve.db")
	viper.SetDefault("hwmonRoot", "/sys/class/hwmon")
	viper.SetDefault("cpuInfoPath", "/proc/cpuinfo")
	viper.SetDefault("tickRate", 1*time.Second)
	viper.SetDefault("tempRollingWindowSize", 1)

	viper.SetDefault("curves.systemDir", DefaultCurveSystemDir)
	viper.SetDefault("curves.stateDir", DefaultCurveStateDir)
	viper.SetDefault("curves.userConfigPath", DefaultUserConfigPath)

	viper.SetDefault("persistence.retries", 3)
	viper.SetDefault("persistence.backoff", 100*time.Millisecond)

	viper.SetDefault("fans.controllers", []string{"system76_thelio_io", "system76"})
	viper.SetDefault("fans.controlAll", false)
	viper.SetDefault("fans.fallbackToFirst", false)

	viper.SetDefault("dbus.enabled", true)
	viper.SetDefault("dbus.system", true)
	viper.SetDefault("dbus.busName", DefaultBusName)
	viper.SetDefault("dbus.objectPath", DefaultObjectPath)
	viper.SetDefault("dbus.allowedUids", []int{})

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.host", "localhost")
	viper.SetDefault("api.port", 9001)

	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 9000)
}

// DetectAndReadConfigFile reads the config file, if any, and returns its path.
// Without a config file the default values are used.
func DetectAndReadConfigFile() string {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			ui.Warning("No config file found, using default values")
			return ""
		}
		ui.Fatal("Error reading config file, %s", err)
	}
	// this is only populated _after_ ReadInConfig()
	return viper.ConfigFileUsed()
}

func LoadConfig() {
	err := viper.Unmarshal(&CurrentConfig, viper.DecodeHook(decodeHooks()))
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}

	expanded, err := homedir.Expand(CurrentConfig.Curves.UserConfigPath)
	if err != nil {
		ui.Warning("Unable to expand %s: %v", CurrentConfig.Curves.UserConfigPath, err)
	} else {
		CurrentConfig.Curves.UserConfigPath = expanded
	}
}
