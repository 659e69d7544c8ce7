package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/markusressel/fancurve/internal/curves"
	"github.com/markusressel/fancurve/internal/persistence"
	"github.com/markusressel/fancurve/internal/ui"
)

const MaxPointDutyPercent = 100

// GetFanCurve returns the points of the active curve as (°C, ten-thousandths) pairs
func (c *Controller) GetFanCurve() []curves.Pair {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return []curves.Pair{}
	}
	return c.active.ToPairs()
}

// SetFanCurve replaces the active curve without persisting it
func (c *Controller) SetFanCurve(pairs []curves.Pair) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := customCurveName
	if c.active != nil {
		name = c.active.Name()
	}
	curve, err := curves.FromPairs(name, pairs)
	if err != nil {
		return err
	}
	c.active = curve
	c.selected = curves.NoDefault
	c.state = StateActive
	ui.Info("Applied curve %s", curve)
	c.publish()
	return nil
}

// SetFanCurvePersistent applies the curve, stores it in both curve directories
// and makes it the default curve.
func (c *Controller) SetFanCurvePersistent(ctx context.Context, name string, pairs []curves.Pair) error {
	if err := curves.ValidateName(name); err != nil {
		return err
	}
	curve, err := curves.FromPairs(name, pairs)
	if err != nil {
		return err
	}

	return c.update(ctx, func() (*persistJob, error) {
		index := c.config.Add(curve)
		if err := c.config.SetDefault(index); err != nil {
			return nil, err
		}
		c.markConfigChanged()
		c.activate(index)
		ui.Info("Applied curve %s as default", curve)
		c.publish()

		stored := curve.Clone()
		return c.newJob("save curve "+name, true,
			func(ctx context.Context) error {
				return persistence.SaveNamedCurve(stored, c.curveDirs()...)
			},
			c.saveDefaultCurveFile(stored),
			c.saveSelection(name),
		), nil
	})
}

// LoadAllFanCurves lists the curves of both curve directories, unique by name
func (c *Controller) LoadAllFanCurves() ([]persistence.NamedCurve, error) {
	return persistence.ListNamedCurves(c.curveDirs()...)
}

// AddFanCurvePoint adds a point to the active curve, temp in °C and duty in percent.
// The edit is saved only if the active curve is part of the curve config, a curve applied
// with SetFanCurve or reloaded from default.json keeps the edit until the daemon restarts.
func (c *Controller) AddFanCurvePoint(ctx context.Context, temp int, duty int) error {
	if temp < curves.MinPointTemp || temp > curves.MaxPointTemp {
		return fmt.Errorf("temperature %d not within [%d..%d]: %w", temp, curves.MinPointTemp, curves.MaxPointTemp, curves.ErrOutOfRange)
	}
	if duty < 0 || duty > MaxPointDutyPercent {
		return fmt.Errorf("duty %d not within [0..%d]: %w", duty, MaxPointDutyPercent, curves.ErrOutOfRange)
	}

	return c.update(ctx, func() (*persistJob, error) {
		if c.active == nil {
			return nil, ErrNoCurve
		}
		c.active.AddPoint(int16(temp), uint16(duty*100))
		c.publish()
		return c.curveEditJob("add point"), nil
	})
}

// RemoveFanCurvePoint removes the last point of the active curve.
// Like AddFanCurvePoint, the edit is only saved if the active curve is part of the curve config.
func (c *Controller) RemoveFanCurvePoint(ctx context.Context) error {
	return c.update(ctx, func() (*persistJob, error) {
		if c.active == nil {
			return nil, curves.ErrNoPoints
		}
		if _, ok := c.active.RemoveLastPoint(); !ok {
			return nil, curves.ErrNoPoints
		}
		c.publish()
		return c.curveEditJob("remove point"), nil
	})
}

// curveEditJob saves the config if the active curve is part of it, must be called with mu held
func (c *Controller) curveEditJob(name string) *persistJob {
	if c.selected == curves.NoDefault {
		return nil
	}
	c.markConfigChanged()
	return c.newJob(name, true)
}

// GetFanCurves returns the names of all curves of the config, ordered by index
func (c *Controller) GetFanCurves() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.Names()
}

// CurveConfig returns a copy of the curve config
func (c *Controller) CurveConfig() *curves.FanCurveConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.Clone()
}

func (c *Controller) SelectCurve(ctx context.Context, index int) error {
	return c.update(ctx, func() (*persistJob, error) {
		return c.selectCurve(index)
	})
}

func (c *Controller) SelectCurveByName(ctx context.Context, name string) error {
	return c.update(ctx, func() (*persistJob, error) {
		index, ok := c.config.Index(name)
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, curves.ErrCurveNotFound)
		}
		return c.selectCurve(index)
	})
}

func (c *Controller) selectCurve(index int) (*persistJob, error) {
	curve, ok := c.config.Get(index)
	if !ok {
		return nil, fmt.Errorf("index %d: %w", index, curves.ErrCurveNotFound)
	}
	c.activate(index)
	ui.Info("Selected curve '%s'", curve.Name())
	c.publish()
	return c.newJob("select curve", false, c.saveSelection(curve.Name())), nil
}

// SetDefaultCurve changes the curve applied on startup, curves.NoDefault removes the default
func (c *Controller) SetDefaultCurve(ctx context.Context, index int) error {
	return c.update(ctx, func() (*persistJob, error) {
		if err := c.config.SetDefault(index); err != nil {
			return nil, err
		}
		c.markConfigChanged()

		curve, ok := c.config.Get(index)
		if !ok {
			ui.Info("Removed the default curve")
			return c.newJob("set default", true, c.removeDefaultCurveFile()), nil
		}
		ui.Info("Default curve is now '%s'", curve.Name())
		return c.newJob("set default", true, c.saveDefaultCurveFile(curve.Clone())), nil
	})
}

// SaveConfig writes the combined curve config
func (c *Controller) SaveConfig(ctx context.Context) error {
	return c.update(ctx, func() (*persistJob, error) {
		return c.newJob("save config", true), nil
	})
}

// SetAutomatic hands all fans back to the firmware until a curve is selected again
func (c *Controller) SetAutomatic(ctx context.Context) error {
	var driverErr error
	err := c.update(ctx, func() (*persistJob, error) {
		driverErr = c.setIdle()
		ui.Info("Switched fans to automatic mode")
		c.publish()
		return c.newJob("automatic", false, c.saveSelection("")), nil
	})
	return errors.Join(driverErr, err)
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{
		State:      c.state,
		CurveIndex: c.selected,
		Ticks:      c.ticks,
		Sample:     c.sample,
		Failures:   c.failures,
		Fans:       []string{},
	}
	if c.active != nil {
		status.Curve = c.active.Name()
	}
	if c.sensor != nil {
		status.Sensor = c.sensor.GetId()
	}
	for _, fan := range c.driver.Fans() {
		status.Fans = append(status.Fans, fan.GetId())
	}
	return status
}

func (c *Controller) curveDirs() []string {
	var dirs []string
	for _, dir := range []string{c.store.SystemDir, c.store.StateDir} {
		if len(dir) > 0 {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// newJob creates a job running all steps, joining their errors.
// If saveConfig is set, a snapshot of the config is saved last. Must be called with mu held.
func (c *Controller) newJob(name string, saveConfig bool, steps ...func(ctx context.Context) error) *persistJob {
	job := &persistJob{name: name}
	if saveConfig && len(c.store.ConfigPath) > 0 {
		snapshot := c.config.Clone()
		path := c.store.ConfigPath
		options := c.store.Save
		steps = append(steps, func(ctx context.Context) error {
			return persistence.EnsureSaved(ctx, snapshot, path, options)
		})
		job.generation = c.generation
	}
	job.run = func(ctx context.Context) error {
		var result error
		for _, step := range steps {
			if step == nil {
				continue
			}
			if err := step(ctx); err != nil {
				result = errors.Join(result, err)
			}
		}
		return result
	}
	return job
}

// saveDefaultCurveFile must be called with mu held
func (c *Controller) saveDefaultCurveFile(curve *curves.FanCurve) func(ctx context.Context) error {
	if len(c.store.SystemDir) <= 0 {
		return nil
	}
	c.writtenDefault = curve
	dir := c.store.SystemDir
	return func(ctx context.Context) error {
		return persistence.SaveDefaultCurve(curve, dir)
	}
}

// removeDefaultCurveFile must be called with mu held
func (c *Controller) removeDefaultCurveFile() func(ctx context.Context) error {
	if len(c.store.SystemDir) <= 0 {
		return nil
	}
	c.writtenDefault = nil
	dir := c.store.SystemDir
	return func(ctx context.Context) error {
		return persistence.RemoveDefaultCurve(dir)
	}
}

// isWrittenDefault reports whether curve is what this controller last wrote to default.json
func (c *Controller) isWrittenDefault(curve *curves.FanCurve) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writtenDefault != nil && c.writtenDefault.Equal(curve)
}

func (c *Controller) saveSelection(name string) func(ctx context.Context) error {
	if c.stateStore == nil {
		return nil
	}
	store := c.stateStore
	return func(ctx context.Context) error {
		return store.SaveSelectedCurve(name)
	}
}
