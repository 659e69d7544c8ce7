package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/markusressel/fancurve/internal/curves"
	"github.com/markusressel/fancurve/internal/fans"
	"github.com/markusressel/fancurve/internal/hwmon"
	"github.com/markusressel/fancurve/internal/persistence"
	"github.com/markusressel/fancurve/internal/sensors"
	"github.com/markusressel/fancurve/internal/ui"
)

const (
	DefaultTickRate = 1 * time.Second

	customCurveName  = "Custom"
	jobQueueSize     = 8
	subscriberBuffer = 8
)

var (
	ErrNoCurve       = errors.New("no active curve")
	ErrWorkerStopped = errors.New("persistence worker stopped")
)

// StoreOptions locate the curve files written by the control surface
type StoreOptions struct {
	SystemDir  string
	StateDir   string
	ConfigPath string
	Save       persistence.SaveOptions
}

type Params struct {
	// Discovery may be nil or partial, the controller stays inert without a sensor
	Discovery *hwmon.Discovery
	Sensor    sensors.Sensor
	Driver    *fans.Driver
	// Config is owned by the controller once passed in
	Config *curves.FanCurveConfig
	Store  StoreOptions
	// State is optional
	State         persistence.StateStore
	TickRate      time.Duration
	RestoreOnExit bool
}

// Controller owns the daemon state. All state is guarded by mu,
// blocking persistence runs on the persistence worker.
type Controller struct {
	mu sync.Mutex

	sensor        sensors.Sensor
	driver        *fans.Driver
	primaryFan    string
	store         StoreOptions
	stateStore    persistence.StateStore
	tickRate      time.Duration
	restoreOnExit bool

	state    State
	config   *curves.FanCurveConfig
	selected int
	active   *curves.FanCurve
	sample   Sample
	ticks    int
	failures Failures

	// generation is incremented on every config mutation, savedGeneration tracks the last persisted one
	generation      int
	savedGeneration int

	// writtenDefault is the curve last written to default.json by this controller
	writtenDefault *curves.FanCurve

	curveChanges chan *curves.FanCurve
	jobs         chan persistJob
	workerDone   chan struct{}
	workerOnce   sync.Once
	subscribers  map[int]chan Event
	nextSubId    int
}

func NewController(params Params) *Controller {
	tickRate := params.TickRate
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	config := params.Config
	if config == nil {
		config = curves.NewDefaultConfig()
	}
	driver := params.Driver
	if driver == nil {
		driver = fans.NewDriver()
	}

	c := &Controller{
		sensor:        params.Sensor,
		driver:        driver,
		store:         params.Store,
		stateStore:    params.State,
		tickRate:      tickRate,
		restoreOnExit: params.RestoreOnExit,
		state:         StateIdle,
		config:        config,
		selected:      curves.NoDefault,
		curveChanges:  make(chan *curves.FanCurve, 1),
		jobs:          make(chan persistJob, jobQueueSize),
		workerDone:    make(chan struct{}),
		subscribers:   map[int]chan Event{},
	}

	if params.Discovery != nil && params.Discovery.Actuator != nil {
		if _, err := driver.Get(params.Discovery.Actuator.Id()); err == nil {
			c.primaryFan = params.Discovery.Actuator.Id()
		}
	}
	if len(c.primaryFan) <= 0 {
		if fanList := driver.Fans(); len(fanList) > 0 {
			c.primaryFan = fanList[0].GetId()
		}
	}

	return c
}

// Run applies the startup curve and ticks until ctx is cancelled.
// Cancellation is only checked between ticks, a running tick always completes.
func (c *Controller) Run(ctx context.Context) error {
	c.rememberOriginalPwmEnable()
	c.restoreCurve()
	defer c.shutdown()

	ui.Info("Starting control loop with a tick rate of %s", c.tickRate)

	ticker := time.NewTicker(c.tickRate)
	defer ticker.Stop()
	for {
		c.tick()
		select {
		case <-ctx.Done():
			ui.Info("Stopping control loop...")
			return nil
		case <-ticker.C:
		}
	}
}

func (c *Controller) tick() {
	c.applyCurveChanges()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ticks++

	if c.sensor == nil {
		c.failures.Discovery++
		return
	}
	milli, err := c.sensor.Sample()
	if err != nil {
		c.failures.SensorRead++
		ui.Debug("Unable to read temperature of %s: %v", c.sensor.GetId(), err)
		return
	}
	c.sample.Temperature = milli / 1000
	c.sample.Time = time.Now()

	if c.state == StateActive && c.active != nil {
		duty := c.active.InterpolateMillidegrees(int64(milli))
		pwm := fans.DutyToPwm(duty)
		c.sample.Duty = duty

		// a failed write is retried on the next tick
		if err := c.driver.SetDutyAll(pwm); err != nil {
			c.failures.ActuatorWrite++
			ui.Warning("Unable to apply pwm %d: %v", pwm, err)
		}
		c.readBack(int(pwm))
	} else {
		c.readBack(-1)
	}
}

// readBack updates the sample from the primary fan, expected is -1 if no value was written
func (c *Controller) readBack(expected int) {
	if len(c.primaryFan) <= 0 {
		return
	}
	pwm, err := c.driver.ReadDuty(c.primaryFan)
	if err != nil {
		c.failures.ReadBack++
		ui.Debug("Unable to read pwm of %s: %v", c.primaryFan, err)
	} else {
		c.sample.Pwm = int(pwm)
		if expected >= 0 && int(pwm) != expected {
			c.failures.UnexpectedPwmValue++
			ui.Debug("PWM of %s is %d, expected %d", c.primaryFan, pwm, expected)
		}
	}

	rpm, err := c.driver.ReadSpeed(c.primaryFan)
	if err != nil {
		c.failures.ReadBack++
		ui.Debug("Unable to read rpm of %s: %v", c.primaryFan, err)
	} else {
		c.sample.Rpm = int(rpm)
	}
}

// NotifyCurveChanged replaces the active curve before the next tick.
// It never blocks, only the latest notification is kept.
func (c *Controller) NotifyCurveChanged(curve *curves.FanCurve) {
	for {
		select {
		case c.curveChanges <- curve:
			return
		default:
		}
		select {
		case <-c.curveChanges:
		default:
		}
	}
}

func (c *Controller) applyCurveChanges() {
	select {
	case curve := <-c.curveChanges:
		c.mu.Lock()
		defer c.mu.Unlock()

		c.selected = curves.NoDefault
		if index, ok := c.config.Index(curve.Name()); ok {
			if stored, _ := c.config.Get(index); stored.Equal(curve) {
				c.selected = index
				curve = stored
			}
		}
		c.active = curve
		ui.Info("Active curve changed to '%s'", curve.Name())
		c.publish()
	default:
	}
}

// restoreCurve activates the curve selected before the last shutdown,
// falling back to the default curve. Without any, the fans are left to the firmware.
func (c *Controller) restoreCurve() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stateStore != nil {
		name, err := c.stateStore.LoadSelectedCurve()
		if err == nil {
			if len(name) <= 0 {
				ui.Info("Automatic fan control was selected, leaving fans to the firmware")
				c.setIdle()
				return
			}
			if index, ok := c.config.Index(name); ok {
				c.activate(index)
				ui.Info("Restored selected curve '%s'", name)
				return
			}
			ui.Warning("Selected curve '%s' does not exist anymore", name)
		}
	}

	if len(c.store.SystemDir) > 0 {
		curve, err := persistence.LoadDefaultCurve(c.store.SystemDir)
		if err == nil {
			c.active = curve
			c.selected = curves.NoDefault
			if index, ok := c.config.Index(curve.Name()); ok {
				if stored, _ := c.config.Get(index); stored.Equal(curve) {
					c.active = stored
					c.selected = index
				}
			}
			c.state = StateActive
			ui.Info("Applied default curve '%s'", curve.Name())
			return
		}
		ui.Debug("No default curve file: %v", err)
	}

	if _, index, ok := c.config.Default(); ok {
		c.activate(index)
		ui.Info("Applied default curve '%s'", c.active.Name())
		return
	}

	ui.Warning("No default curve, leaving fans to the firmware")
	c.setIdle()
}

// activate selects the curve at index, must be called with mu held
func (c *Controller) activate(index int) {
	curve, _ := c.config.Get(index)
	c.active = curve
	c.selected = index
	c.state = StateActive
}

// setIdle switches all fans to automatic, must be called with mu held
func (c *Controller) setIdle() error {
	c.state = StateIdle
	return c.driver.SetAutomaticAll()
}

func (c *Controller) rememberOriginalPwmEnable() {
	if c.stateStore == nil {
		return
	}
	for _, fan := range c.driver.Fans() {
		value, err := fan.GetPwmEnabled()
		if err != nil {
			ui.Warning("Cannot read pwm_enable value of %s", fan.GetId())
			continue
		}
		if err := c.stateStore.SaveOriginalPwmEnable(fan.GetId(), value); err != nil {
			ui.Warning("Cannot remember pwm_enable value of %s: %v", fan.GetId(), err)
		}
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != c.savedGeneration && len(c.store.ConfigPath) > 0 {
		ui.Info("Saving unsaved curve changes...")
		err := persistence.EnsureSaved(context.Background(), c.config, c.store.ConfigPath, c.store.Save)
		if err != nil {
			ui.Error("Unable to save curve config: %v", err)
		} else {
			c.savedGeneration = c.generation
		}
	}

	for _, fan := range c.driver.Fans() {
		c.restoreFan(fan)
	}
	c.state = StateIdle
	c.publish()
}

// restoreFan hands the fan back to the firmware, or to its original mode if configured
func (c *Controller) restoreFan(fan fans.Fan) {
	mode := fans.ControlModeAutomatic
	if c.restoreOnExit && c.stateStore != nil {
		original, err := c.stateStore.LoadOriginalPwmEnable(fan.GetId())
		// restoring manual mode would leave the fan at the last pwm
		if err == nil && original != int(fans.ControlModePWM) {
			mode = fans.ControlMode(original)
		}
	}

	ui.Info("Restoring pwm_enable=%d on %s...", mode, fan.GetId())
	err := fan.SetPwmEnabled(mode)
	if err != nil && mode != fans.ControlModeAutomatic {
		err = fan.SetPwmEnabled(fans.ControlModeAutomatic)
	}
	if err != nil {
		// if this fails, try to set it to max speed instead
		ui.Warning("Unable to restore fan %s: %v", fan.GetId(), err)
		if err := fan.SetPwm(fans.MaxPwmValue); err != nil {
			ui.ErrorAndNotify("Fan Control Error", "Unable to restore fan %s, make sure it is running!", fan.GetId())
		}
		return
	}

	if c.stateStore != nil {
		_ = c.stateStore.DeleteOriginalPwmEnable(fan.GetId())
	}
}

// Subscribe returns a channel receiving an Event on every curve or state change.
// Slow subscribers miss events. The returned func unsubscribes.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubId
	c.nextSubId++
	ch := make(chan Event, subscriberBuffer)
	c.subscribers[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub)
		}
	}
}

// publish must be called with mu held
func (c *Controller) publish() {
	event := Event{State: c.state}
	if c.active != nil {
		event.Curve = c.active.Name()
	}
	for _, ch := range c.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
