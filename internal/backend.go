package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/markusressel/fancurve/internal/api"
	"github.com/markusressel/fancurve/internal/configuration"
	"github.com/markusressel/fancurve/internal/controller"
	"github.com/markusressel/fancurve/internal/curves"
	"github.com/markusressel/fancurve/internal/dbus"
	"github.com/markusressel/fancurve/internal/fans"
	"github.com/markusressel/fancurve/internal/hwmon"
	"github.com/markusressel/fancurve/internal/persistence"
	"github.com/markusressel/fancurve/internal/sensors"
	"github.com/markusressel/fancurve/internal/statistics"
	"github.com/markusressel/fancurve/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Objects are created once on startup and shared by all actors of the daemon
type Objects struct {
	Discovery  *hwmon.Discovery
	Sensor     sensors.Sensor
	Fans       []fans.Fan
	Driver     *fans.Driver
	Curves     *curves.FanCurveConfig
	StateStore persistence.StateStore
	Controller *controller.Controller
}

func RunDaemon() {
	if os.Geteuid() != 0 {
		ui.Fatal("Fan control requires root permissions to be able to modify fan speeds, please run fancurve as root")
	}

	config := configuration.CurrentConfig
	objects := InitializeObjects(config)
	registerCollectors(objects)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g run.Group
	{
		// === control loop
		g.Add(func() error {
			return objects.Controller.Run(ctx)
		}, func(err error) {
			if err != nil {
				ui.Warning("Control loop stopped: %v", err)
			}
			cancel()
		})
	}
	{
		// === persistence worker
		g.Add(func() error {
			return objects.Controller.RunPersistenceWorker(ctx)
		}, func(err error) {
			cancel()
		})
	}
	if config.Curves.Watch.Get() {
		// === curve file watcher
		watcher := persistence.NewWatcher(config.Curves.SystemDir)
		g.Add(func() error {
			return watcher.Run(ctx)
		}, func(err error) {
			if err != nil {
				ui.Warning("Curve file watcher stopped: %v", err)
			}
			cancel()
		})
		g.Add(func() error {
			return objects.Controller.FollowCurveFiles(ctx, watcher.Changes())
		}, func(err error) {
			cancel()
		})
	}
	if config.DBus.Enabled {
		// === D-Bus control surface
		service := dbus.NewService(objects.Controller, config.DBus)
		g.Add(func() error {
			err := service.Run(ctx)
			if err != nil {
				// the daemon keeps controlling the fans without the bus
				ui.Error("D-Bus service unavailable: %v", err)
				<-ctx.Done()
			}
			return nil
		}, func(err error) {
			cancel()
		})
	}
	if config.Api.Enabled {
		// === REST api
		rest := api.CreateRestService(objects.Controller, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
		g.Add(func() error {
			return api.RunRestService(ctx, rest, config.Api)
		}, func(err error) {
			if err != nil {
				ui.Warning("Error stopping REST api: %v", err)
			}
			cancel()
		})
	}
	if config.Statistics.Enabled {
		// === Prometheus Exporter
		g.Add(func() error {
			return runStatisticsServer(ctx, config.Statistics.Port)
		}, func(err error) {
			if err != nil {
				ui.Warning("Error stopping statistics server: %v", err)
			} else {
				ui.Info("Statistics server stopped.")
			}
			cancel()
		})
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case <-sig:
				ui.Info("Received SIGTERM signal, exiting...")
			case <-ctx.Done():
			}
			return nil
		}, func(err error) {
			signal.Stop(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

// InitializeObjects discovers the hardware and loads the curves.
// Missing hardware is logged, the controller then stays inert.
func InitializeObjects(config configuration.Configuration) *Objects {
	objects := &Objects{}

	discovery, err := hwmon.Discover(hwmon.Options{
		Root:               config.HwmonRoot,
		CpuInfoPath:        config.CpuInfoPath,
		FanControllers:     config.Fans.Controllers,
		FallbackToFirstFan: config.Fans.FallbackToFirst,
	})
	if err != nil {
		ui.WarningAndNotify("Fan Discovery", "Hardware discovery incomplete: %v", err)
	}
	if discovery == nil {
		discovery = &hwmon.Discovery{Vendor: hwmon.VendorUnknown}
	}
	objects.Discovery = discovery

	if discovery.Sensor != nil {
		ui.Info("Using temperature sensor %s (%s)", discovery.Sensor.Label, discovery.Sensor.Input)
		objects.Sensor = sensors.NewHwmonSensor(discovery.Sensor, config.TempRollingWindowSize)
	}

	var handles []*hwmon.ActuatorHandle
	if config.Fans.ControlAll {
		handles = discovery.Fans
	} else if discovery.Actuator != nil {
		handles = []*hwmon.ActuatorHandle{discovery.Actuator}
	}
	for _, handle := range handles {
		ui.Info("Controlling fan %s (%s)", handle.Id(), handle.Label)
		objects.Fans = append(objects.Fans, fans.NewHwMonFan(handle))
	}
	objects.Driver = fans.NewDriver(objects.Fans...)

	curveConfig, err := persistence.LoadOrDefault(config.Curves.UserConfigPath)
	if err != nil {
		ui.Warning("Unable to load curve config, using built-in curves: %v", err)
	}
	objects.Curves = curveConfig

	if len(config.DbPath) > 0 {
		stateStore := persistence.NewStateStore(config.DbPath)
		if err := stateStore.Init(); err != nil {
			ui.Warning("Unable to initialize state database %s: %v", config.DbPath, err)
		} else {
			objects.StateStore = stateStore
		}
	}

	objects.Controller = controller.NewController(controller.Params{
		Discovery: discovery,
		Sensor:    objects.Sensor,
		Driver:    objects.Driver,
		Config:    curveConfig,
		Store: controller.StoreOptions{
			SystemDir:  config.Curves.SystemDir,
			StateDir:   config.Curves.StateDir,
			ConfigPath: config.Curves.UserConfigPath,
			Save: persistence.SaveOptions{
				Retries: config.Persistence.Retries,
				Backoff: config.Persistence.Backoff,
			},
		},
		State:         objects.StateStore,
		TickRate:      config.TickRate,
		RestoreOnExit: config.Fans.RestoreOnExit.Get(),
	})

	return objects
}

func registerCollectors(objects *Objects) {
	statistics.Register(statistics.NewControllerCollector(objects.Controller))
	statistics.Register(statistics.NewCurveCollector(objects.Controller))
	statistics.Register(statistics.NewFanCollector(objects.Fans))
	if objects.Sensor != nil {
		statistics.Register(statistics.NewSensorCollector([]sensors.Sensor{objects.Sensor}))
	}
}

func runStatisticsServer(ctx context.Context, port int) error {
	if port <= 0 || port >= 65535 {
		port = 9000
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		ui.Error("Cannot start prometheus metrics endpoint (%s)", err.Error())
		return err
	case <-ctx.Done():
		ui.Info("Stopping statistics server...")
		timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		return server.Shutdown(timeoutCtx)
	}
}
