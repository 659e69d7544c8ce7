package configuration

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/markusressel/fancurve/internal/ui"
	"github.com/markusressel/fancurve/internal/util"
)

const (
	MinTickRate = 100 * time.Millisecond
	MaxRetries  = 10
)

func Validate(configPath string) error {
	return validateConfig(&CurrentConfig, configPath)
}

func validateConfig(config *Configuration, path string) error {
	if config.TickRate < MinTickRate {
		return fmt.Errorf("tickRate must be at least %s, was %s", MinTickRate, config.TickRate)
	}
	if config.TempRollingWindowSize < 1 {
		return fmt.Errorf("tempRollingWindowSize must be >= 1, was %d", config.TempRollingWindowSize)
	}

	err := validateCurves(config)
	if err != nil {
		return err
	}
	err = validatePersistence(config)
	if err != nil {
		return err
	}
	err = validateFans(config)
	if err != nil {
		return err
	}
	err = validateInterfaces(config)
	if err != nil {
		return err
	}

	if len(path) > 0 {
		// the config decides which files are written as root
		if _, err := util.CheckFilePermissionsForExecution(path); err != nil {
			ui.Warning("Config file '%s' has unsafe permissions: %v", path, err)
		}
	}

	return nil
}

func validateCurves(config *Configuration) error {
	dirs := map[string]string{
		"curves.systemDir":      config.Curves.SystemDir,
		"curves.stateDir":       config.Curves.StateDir,
		"curves.userConfigPath": config.Curves.UserConfigPath,
	}
	for key, dir := range dirs {
		if len(dir) <= 0 {
			return fmt.Errorf("%s must not be empty", key)
		}
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("%s must be an absolute path: %s", key, dir)
		}
	}
	if filepath.Clean(config.Curves.SystemDir) == filepath.Clean(config.Curves.StateDir) {
		ui.Warning("curves.systemDir and curves.stateDir point to the same directory")
	}
	return nil
}

func validatePersistence(config *Configuration) error {
	if config.Persistence.Retries < 1 || config.Persistence.Retries > MaxRetries {
		return fmt.Errorf("persistence.retries must be within [1..%d], was %d", MaxRetries, config.Persistence.Retries)
	}
	if config.Persistence.Backoff < 0 {
		return errors.New("persistence.backoff must not be negative")
	}
	return nil
}

func validateFans(config *Configuration) error {
	if len(config.Fans.Controllers) <= 0 {
		return errors.New("fans.controllers must contain at least one hwmon chip name")
	}
	seen := map[string]bool{}
	for _, name := range config.Fans.Controllers {
		if len(name) <= 0 {
			return errors.New("fans.controllers must not contain empty names")
		}
		if seen[name] {
			return fmt.Errorf("duplicate fan controller detected: %s", name)
		}
		seen[name] = true
	}
	return nil
}

func validateInterfaces(config *Configuration) error {
	if config.Api.Enabled {
		if err := validatePort("api", config.Api.Port); err != nil {
			return err
		}
	}
	if config.Statistics.Enabled {
		if err := validatePort("statistics", config.Statistics.Port); err != nil {
			return err
		}
	}
	if config.Api.Enabled && config.Statistics.Enabled && config.Api.Port == config.Statistics.Port {
		return fmt.Errorf("api and statistics cannot share port %d", config.Api.Port)
	}
	if config.DBus.Enabled {
		if len(config.DBus.BusName) <= 0 {
			return errors.New("dbus.busName must not be empty")
		}
		if len(config.DBus.ObjectPath) <= 0 || config.DBus.ObjectPath[0] != '/' {
			return fmt.Errorf("dbus.objectPath must be an absolute object path: %s", config.DBus.ObjectPath)
		}
		for _, uid := range config.DBus.AllowedUids {
			if uid < 0 {
				return fmt.Errorf("dbus.allowedUids contains invalid uid %d", uid)
			}
		}
	}
	return nil
}

func validatePort(key string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s.port must be within [1..65535], was %d", key, port)
	}
	return nil
}
