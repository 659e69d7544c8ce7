package controller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/markusressel/fancurve/internal/curves"
	"github.com/markusressel/fancurve/internal/fans"
	"github.com/markusressel/fancurve/internal/hwmon"
	"github.com/markusressel/fancurve/internal/persistence"
	"github.com/markusressel/fancurve/internal/sensors"
	"github.com/markusressel/fancurve/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMachine struct {
	dir    string
	temp   string
	handle *hwmon.ActuatorHandle
	fan    *fans.HwMonFan
	sensor *sensors.HwmonSensor
	store  StoreOptions
}

func createFakeMachine(t *testing.T, milli int) *fakeMachine {
	dir := t.TempDir()
	handle := &hwmon.ActuatorHandle{
		DevicePath: dir,
		ChipName:   "system76_thelio_io",
		Index:      1,
		Label:      "CPU Fan",
		RpmInput:   util.ChannelFile(dir, "fan", 1, "input"),
		PwmOutput:  util.ChannelFile(dir, "pwm", 1, ""),
		PwmEnable:  util.ChannelFile(dir, "pwm", 1, "enable"),
	}
	require.NoError(t, util.WriteIntToFile(0, handle.PwmOutput))
	require.NoError(t, util.WriteIntToFile(2, handle.PwmEnable))
	require.NoError(t, util.WriteIntToFile(1200, handle.RpmInput))

	temp := util.ChannelFile(dir, "temp", 1, "input")
	require.NoError(t, util.WriteIntToFile(milli, temp))

	sensorHandle := &hwmon.SensorHandle{DevicePath: dir, ChipName: "k10temp", Input: temp, Label: "Tctl"}

	return &fakeMachine{
		dir:    dir,
		temp:   temp,
		handle: handle,
		fan:    fans.NewHwMonFan(handle),
		sensor: sensors.NewHwmonSensor(sensorHandle, 1),
		store: StoreOptions{
			SystemDir:  filepath.Join(dir, "etc"),
			StateDir:   filepath.Join(dir, "var"),
			ConfigPath: filepath.Join(dir, "home", "config.json"),
			Save:       persistence.SaveOptions{Retries: 1, Backoff: time.Millisecond},
		},
	}
}

func (m *fakeMachine) controller(config *curves.FanCurveConfig) *Controller {
	return NewController(Params{
		Discovery: &hwmon.Discovery{Actuator: m.handle},
		Sensor:    m.sensor,
		Driver:    fans.NewDriver(m.fan),
		Config:    config,
		Store:     m.store,
		TickRate:  10 * time.Millisecond,
	})
}

func (m *fakeMachine) readInt(t *testing.T, path string) int {
	value, err := util.ReadIntFromFile(path)
	require.NoError(t, err)
	return value
}

func startWorker(t *testing.T, c *Controller) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = c.RunPersistenceWorker(ctx)
	}()
}

func scenarioConfig(t *testing.T) *curves.FanCurveConfig {
	curve, err := curves.FromPairs("Scenario", []curves.Pair{{0, 0}, {30, 2000}, {100, 10000}})
	require.NoError(t, err)
	config := curves.NewFanCurveConfig()
	index := config.Add(curve)
	require.NoError(t, config.SetDefault(index))
	return config
}

func TestController_TickAppliesInterpolatedDuty(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(scenarioConfig(t))
	c.restoreCurve()

	// WHEN
	c.tick()

	// THEN
	status := c.Status()
	assert.Equal(t, StateActive, status.State)
	assert.Equal(t, "Scenario", status.Curve)
	assert.Equal(t, uint16(2571), status.Sample.Duty)
	assert.Equal(t, 35.0, status.Sample.Temperature)
	assert.Equal(t, 66, status.Sample.Pwm)
	assert.Equal(t, 1200, status.Sample.Rpm)
	assert.Equal(t, 66, m.readInt(t, m.handle.PwmOutput))
	assert.Equal(t, 1, m.readInt(t, m.handle.PwmEnable))
	assert.Equal(t, 0, status.Failures.ActuatorWrite)
}

func TestController_TickFullDutyAtPlateau(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 50000)
	curve, _ := curves.FromPairs("Plateau", []curves.Pair{{0, 0}, {50, 10000}, {100, 10000}})
	config := curves.NewFanCurveConfig()
	_ = config.SetDefault(config.Add(curve))
	c := m.controller(config)
	c.restoreCurve()

	// WHEN
	c.tick()

	// THEN
	assert.Equal(t, uint16(10000), c.Status().Sample.Duty)
	assert.Equal(t, 255, m.readInt(t, m.handle.PwmOutput))
}

func TestController_TickWithoutSensor(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := NewController(Params{
		Driver: fans.NewDriver(m.fan),
		Config: scenarioConfig(t),
	})
	c.restoreCurve()

	// WHEN
	c.tick()
	c.tick()

	// THEN
	status := c.Status()
	assert.Equal(t, 2, status.Failures.Discovery)
	assert.Equal(t, 2, status.Ticks)
	assert.Equal(t, 0, m.readInt(t, m.handle.PwmOutput))
}

func TestController_TickSensorReadFailure(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(scenarioConfig(t))
	c.restoreCurve()
	require.NoError(t, os.Remove(m.temp))

	// WHEN
	c.tick()

	// THEN
	status := c.Status()
	assert.Equal(t, 1, status.Failures.SensorRead)
	assert.Equal(t, StateActive, status.State)
}

func TestController_TickActuatorWriteFailure(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(scenarioConfig(t))
	c.restoreCurve()
	// a directory in place of the pwm file makes writes fail
	require.NoError(t, os.Remove(m.handle.PwmOutput))
	require.NoError(t, os.Mkdir(m.handle.PwmOutput, 0755))

	// WHEN
	c.tick()
	c.tick()

	// THEN
	status := c.Status()
	assert.Equal(t, 2, status.Failures.ActuatorWrite)
	assert.Equal(t, 2, status.Ticks)
}

func TestController_NoDefaultStaysIdle(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	require.NoError(t, util.WriteIntToFile(1, m.handle.PwmEnable))
	c := m.controller(curves.NewFanCurveConfig())

	// WHEN
	c.restoreCurve()
	c.tick()

	// THEN
	assert.Equal(t, StateIdle, c.Status().State)
	assert.Equal(t, 2, m.readInt(t, m.handle.PwmEnable))
	assert.Equal(t, 0, m.readInt(t, m.handle.PwmOutput))
}

func TestController_RestoresDefaultCurveFile(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	curve, _ := curves.FromPairs("From File", []curves.Pair{{0, 10000}})
	require.NoError(t, persistence.SaveDefaultCurve(curve, m.store.SystemDir))
	c := m.controller(scenarioConfig(t))

	// WHEN
	c.restoreCurve()

	// THEN
	status := c.Status()
	assert.Equal(t, StateActive, status.State)
	assert.Equal(t, "From File", status.Curve)
	assert.Equal(t, curves.NoDefault, status.CurveIndex)
}

func TestController_SetAutomatic(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(scenarioConfig(t))
	startWorker(t, c)
	c.restoreCurve()
	c.tick()

	// WHEN
	err := c.SetAutomatic(context.Background())
	require.NoError(t, util.WriteIntToFile(0, m.handle.PwmOutput))
	c.tick()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, StateIdle, c.Status().State)
	assert.Equal(t, 2, m.readInt(t, m.handle.PwmEnable))
	assert.Equal(t, 0, m.readInt(t, m.handle.PwmOutput))
}

func TestController_SelectCurveActivates(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(curves.NewDefaultConfig())
	startWorker(t, c)
	_ = c.SetAutomatic(context.Background())

	// WHEN
	err := c.SelectCurveByName(context.Background(), curves.CurveXeon)

	// THEN
	assert.NoError(t, err)
	status := c.Status()
	assert.Equal(t, StateActive, status.State)
	assert.Equal(t, curves.CurveXeon, status.Curve)
	assert.Equal(t, 3, status.CurveIndex)
}

func TestController_SelectUnknownCurve(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(curves.NewDefaultConfig())

	// WHEN
	err := c.SelectCurveByName(context.Background(), "Unknown")
	err2 := c.SelectCurve(context.Background(), 42)

	// THEN
	assert.ErrorIs(t, err, curves.ErrCurveNotFound)
	assert.ErrorIs(t, err2, curves.ErrCurveNotFound)
}

func TestController_NotifyCurveChangedLatestWins(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(scenarioConfig(t))
	c.restoreCurve()
	first, _ := curves.FromPairs("First", []curves.Pair{{0, 1000}})
	second, _ := curves.FromPairs("Second", []curves.Pair{{0, 5000}})

	// WHEN
	c.NotifyCurveChanged(first)
	c.NotifyCurveChanged(second)
	c.tick()

	// THEN
	status := c.Status()
	assert.Equal(t, "Second", status.Curve)
	assert.Equal(t, uint16(5000), status.Sample.Duty)
	assert.Equal(t, curves.NoDefault, status.CurveIndex)
}

func TestController_GetSetFanCurve(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(scenarioConfig(t))
	pairs := []curves.Pair{{20, 3000}, {80, 9000}}

	// WHEN
	err1 := c.SetFanCurve(pairs)
	first := c.GetFanCurve()
	err2 := c.SetFanCurve(pairs)
	second := c.GetFanCurve()

	// THEN
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, pairs, first)
	assert.Equal(t, first, second)
	assert.Equal(t, StateActive, c.Status().State)
	// not persisted
	_, err := os.Stat(m.store.ConfigPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestController_SetFanCurveRejectsInvalidDuty(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(scenarioConfig(t))
	c.restoreCurve()

	// WHEN
	err := c.SetFanCurve([]curves.Pair{{20, 20000}})

	// THEN
	assert.ErrorIs(t, err, curves.ErrOutOfRange)
	assert.Equal(t, []curves.Pair{{0, 0}, {30, 2000}, {100, 10000}}, c.GetFanCurve())
}

func TestController_GetFanCurveWithoutCurve(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(curves.NewFanCurveConfig())

	// WHEN
	result := c.GetFanCurve()

	// THEN
	assert.Empty(t, result)
}

func TestController_SetFanCurvePersistent(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(curves.NewDefaultConfig())
	startWorker(t, c)
	pairs := []curves.Pair{{30, 2000}, {90, 10000}}

	// WHEN
	err := c.SetFanCurvePersistent(context.Background(), "My Curve", pairs)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, pairs, c.GetFanCurve())

	for _, dir := range []string{m.store.SystemDir, m.store.StateDir} {
		curve, err := persistence.LoadNamedCurve(filepath.Join(dir, "my_curve.json"))
		assert.NoError(t, err)
		assert.Equal(t, pairs, curve.ToPairs())
	}
	defaultCurve, err := persistence.LoadDefaultCurve(m.store.SystemDir)
	assert.NoError(t, err)
	assert.Equal(t, "My Curve", defaultCurve.Name())

	config, err := persistence.Load(m.store.ConfigPath)
	assert.NoError(t, err)
	assert.Equal(t, 5, config.Len())
	assert.Equal(t, 4, config.DefaultIndex())

	all, err := c.LoadAllFanCurves()
	assert.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, filepath.Join(m.store.SystemDir, "my_curve.json"), all[0].Path)
}

func TestController_SetFanCurvePersistentFailure(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	// a file in place of the directory makes writes fail
	require.NoError(t, os.WriteFile(filepath.Join(m.dir, "blocker"), []byte{}, 0644))
	m.store.StateDir = filepath.Join(m.dir, "blocker", "fan_curves")
	c := m.controller(curves.NewDefaultConfig())
	startWorker(t, c)

	// WHEN
	err := c.SetFanCurvePersistent(context.Background(), "My Curve", []curves.Pair{{30, 2000}})

	// THEN
	var storeErr *persistence.StoreError
	assert.ErrorAs(t, err, &storeErr)
	assert.Equal(t, 1, c.Status().Failures.Persistence)
	// the curve is still applied
	assert.Equal(t, "My Curve", c.Status().Curve)
}

func TestController_AddFanCurvePointOutOfRange(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(scenarioConfig(t))
	c.restoreCurve()

	// WHEN
	err := c.AddFanCurvePoint(context.Background(), 150, 50)
	err2 := c.AddFanCurvePoint(context.Background(), 50, 101)

	// THEN
	assert.ErrorIs(t, err, curves.ErrOutOfRange)
	assert.ErrorIs(t, err2, curves.ErrOutOfRange)
	assert.Len(t, c.GetFanCurve(), 3)
}

func TestController_AddFanCurvePointPersists(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(scenarioConfig(t))
	startWorker(t, c)
	c.restoreCurve()

	// WHEN
	err := c.AddFanCurvePoint(context.Background(), 50, 40)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []curves.Pair{{0, 0}, {30, 2000}, {50, 4000}, {100, 10000}}, c.GetFanCurve())
	config, err := persistence.Load(m.store.ConfigPath)
	assert.NoError(t, err)
	curve, _ := config.Get(0)
	assert.Equal(t, 4, curve.Len())
}

func TestController_RemoveFanCurvePoint(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(curves.NewFanCurveConfig())
	require.NoError(t, c.SetFanCurve([]curves.Pair{{30, 2000}}))

	// WHEN
	err1 := c.RemoveFanCurvePoint(context.Background())
	err2 := c.RemoveFanCurvePoint(context.Background())

	// THEN
	assert.NoError(t, err1)
	assert.ErrorIs(t, err2, curves.ErrNoPoints)
	assert.EqualError(t, err2, "No points to remove")
}

func TestController_SetDefaultCurve(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(curves.NewDefaultConfig())
	startWorker(t, c)

	// WHEN
	err := c.SetDefaultCurve(context.Background(), 2)

	// THEN
	assert.NoError(t, err)
	defaultCurve, err := persistence.LoadDefaultCurve(m.store.SystemDir)
	assert.NoError(t, err)
	assert.Equal(t, curves.CurveHEDT, defaultCurve.Name())
	config, err := persistence.Load(m.store.ConfigPath)
	assert.NoError(t, err)
	assert.Equal(t, 2, config.DefaultIndex())
	assert.Equal(t, []string{curves.CurveStandard, curves.CurveThreadripper2, curves.CurveHEDT, curves.CurveXeon}, c.GetFanCurves())
}

func TestController_Subscribe(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(scenarioConfig(t))
	c.restoreCurve()
	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	// WHEN
	require.NoError(t, c.SetFanCurve([]curves.Pair{{30, 2000}}))

	// THEN
	select {
	case event := <-events:
		assert.Equal(t, StateActive, event.State)
		assert.Equal(t, "Scenario", event.Curve)
	case <-time.After(time.Second):
		assert.Fail(t, "no event received")
	}
}

func TestController_RunRestoresFansOnExit(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(scenarioConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)

	// WHEN
	go func() {
		done <- c.Run(ctx)
	}()
	assert.Eventually(t, func() bool {
		return c.Status().Ticks >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	// THEN
	assert.NoError(t, <-done)
	assert.Equal(t, 66, m.readInt(t, m.handle.PwmOutput))
	assert.Equal(t, 2, m.readInt(t, m.handle.PwmEnable))
	assert.Equal(t, StateIdle, c.Status().State)
}

func TestController_RunRestoresOriginalPwmEnable(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	require.NoError(t, util.WriteIntToFile(0, m.handle.PwmEnable))
	stateStore := persistence.NewStateStore(filepath.Join(m.dir, "db", "fancurve.db"))
	require.NoError(t, stateStore.Init())
	c := NewController(Params{
		Sensor:        m.sensor,
		Driver:        fans.NewDriver(m.fan),
		Config:        scenarioConfig(t),
		State:         stateStore,
		TickRate:      10 * time.Millisecond,
		RestoreOnExit: true,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)

	// WHEN
	go func() {
		done <- c.Run(ctx)
	}()
	assert.Eventually(t, func() bool {
		return c.Status().Ticks >= 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	// THEN
	assert.NoError(t, <-done)
	assert.Equal(t, 0, m.readInt(t, m.handle.PwmEnable))
	_, err := stateStore.LoadOriginalPwmEnable(m.fan.GetId())
	assert.Error(t, err)
}

func TestController_FollowCurveFiles(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(scenarioConfig(t))
	c.restoreCurve()
	curve, _ := curves.FromPairs("Reloaded", []curves.Pair{{0, 7000}})
	require.NoError(t, persistence.SaveDefaultCurve(curve, m.store.SystemDir))
	changes := make(chan string, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = c.FollowCurveFiles(ctx, changes)
	}()

	// WHEN
	changes <- filepath.Join(m.store.SystemDir, "other.json")
	changes <- filepath.Join(m.store.SystemDir, persistence.DefaultCurveFileName)

	// THEN
	assert.Eventually(t, func() bool {
		c.tick()
		return c.Status().Curve == "Reloaded"
	}, time.Second, 5*time.Millisecond)
}

func TestController_OwnDefaultCurveWriteIsNotReapplied(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	require.NoError(t, os.MkdirAll(m.store.SystemDir, 0755))
	c := m.controller(curves.NewDefaultConfig())
	startWorker(t, c)
	c.restoreCurve()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher := persistence.NewWatcher(m.store.SystemDir)
	go func() {
		_ = watcher.Run(ctx)
	}()
	go func() {
		_ = c.FollowCurveFiles(ctx, watcher.Changes())
	}()

	// an external edit is picked up once the watcher is running
	external, _ := curves.FromPairs("External", []curves.Pair{{0, 7000}})
	require.Eventually(t, func() bool {
		c.tick()
		if c.Status().Curve == "External" {
			return true
		}
		_ = persistence.SaveDefaultCurve(external, m.store.SystemDir)
		return false
	}, 10*time.Second, 700*time.Millisecond)
	require.NoError(t, c.SelectCurveByName(context.Background(), curves.CurveStandard))

	// WHEN
	err := c.SetDefaultCurve(context.Background(), 2)

	// THEN
	require.NoError(t, err)
	assert.Never(t, func() bool {
		c.tick()
		return c.Status().Curve != curves.CurveStandard
	}, 1500*time.Millisecond, 20*time.Millisecond)
	defaultCurve, err := persistence.LoadDefaultCurve(m.store.SystemDir)
	assert.NoError(t, err)
	assert.Equal(t, curves.CurveHEDT, defaultCurve.Name())
}

func TestController_ClearDefaultCurveSurvivesRestart(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(curves.NewDefaultConfig())
	startWorker(t, c)
	require.NoError(t, c.SetDefaultCurve(context.Background(), 2))

	// WHEN
	err := c.SetDefaultCurve(context.Background(), curves.NoDefault)

	// THEN
	require.NoError(t, err)
	_, err = persistence.LoadDefaultCurve(m.store.SystemDir)
	assert.ErrorIs(t, err, os.ErrNotExist)

	config, err := persistence.Load(m.store.ConfigPath)
	require.NoError(t, err)
	restarted := m.controller(config)
	restarted.restoreCurve()
	assert.Equal(t, StateIdle, restarted.Status().State)
	assert.Equal(t, curves.NoDefault, restarted.Status().CurveIndex)
}

func TestController_SetFanCurvePersistentRejectsInvalidName(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(curves.NewDefaultConfig())
	startWorker(t, c)

	// WHEN
	err := c.SetFanCurvePersistent(context.Background(), "curve\xff", []curves.Pair{{30, 2000}})

	// THEN
	assert.ErrorIs(t, err, curves.ErrInvalidName)
	assert.Equal(t, 4, c.CurveConfig().Len())
	_, err = os.Stat(m.store.ConfigPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestController_ValidationMismatchIsNotAFailure(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(curves.NewDefaultConfig())
	startWorker(t, c)

	// WHEN
	err := c.update(context.Background(), func() (*persistJob, error) {
		return &persistJob{name: "mismatch", run: func(ctx context.Context) error {
			return &persistence.ValidationError{Path: m.store.ConfigPath, Err: errors.New("curve 0 differs")}
		}}, nil
	})

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 1, c.Status().Failures.Validation)
	assert.Equal(t, 0, c.Status().Failures.Persistence)
}

func TestController_ValidationMismatchKeepsStoreError(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(curves.NewDefaultConfig())
	startWorker(t, c)
	storeErr := &persistence.StoreError{Op: "write", Path: m.store.SystemDir, Err: os.ErrPermission}

	// WHEN
	err := c.update(context.Background(), func() (*persistJob, error) {
		return &persistJob{name: "mixed", run: func(ctx context.Context) error {
			return errors.Join(storeErr, &persistence.ValidationError{Path: m.store.ConfigPath, Err: errors.New("differs")})
		}}, nil
	})

	// THEN
	assert.ErrorIs(t, err, os.ErrPermission)
	var validationErr *persistence.ValidationError
	assert.False(t, errors.As(err, &validationErr))
	assert.Equal(t, 1, c.Status().Failures.Validation)
	assert.Equal(t, 1, c.Status().Failures.Persistence)
}

func TestController_AddFanCurvePointOutsideConfigIsNotSaved(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(scenarioConfig(t))
	startWorker(t, c)
	require.NoError(t, c.SetFanCurve([]curves.Pair{{30, 2000}}))

	// WHEN
	err := c.AddFanCurvePoint(context.Background(), 60, 50)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []curves.Pair{{30, 2000}, {60, 5000}}, c.GetFanCurve())
	_, err = os.Stat(m.store.ConfigPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
	curve, _ := c.CurveConfig().Get(0)
	assert.Equal(t, 3, curve.Len())
}

func TestController_StoppedWorkerFailsFast(t *testing.T) {
	// GIVEN
	m := createFakeMachine(t, 35000)
	c := m.controller(curves.NewDefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = c.RunPersistenceWorker(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	// WHEN
	result := make(chan error, 1)
	go func() {
		result <- c.SetDefaultCurve(context.Background(), 1)
	}()

	// THEN
	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrWorkerStopped)
	case <-time.After(time.Second):
		t.Fatal("SetDefaultCurve blocked after the persistence worker stopped")
	}
	assert.Equal(t, 1, c.Status().Failures.Persistence)
	// the mutation itself is applied
	assert.Equal(t, 1, c.CurveConfig().DefaultIndex())
}
