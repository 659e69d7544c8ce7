package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/markusressel/fancurve/internal/curves"
	"github.com/markusressel/fancurve/internal/ui"
	"github.com/natefinch/atomic"
)

const (
	DefaultCurveFileName = "default.json"
	curveFileExtension   = ".json"

	DefaultRetries = 3
	DefaultBackoff = 100 * time.Millisecond
)

// NamedCurve is a curve found in one of the curve directories
type NamedCurve struct {
	Curve *curves.FanCurve
	Path  string
}

type SaveOptions struct {
	Retries int
	Backoff time.Duration
}

// Load reads a combined curve config file
func Load(path string) (*curves.FanCurveConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StoreError{Op: "read", Path: path, Err: err}
	}
	config := curves.NewFanCurveConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return config, nil
}

// Save atomically replaces the combined curve config file at path
func Save(config *curves.FanCurveConfig, path string) error {
	return writeJson(config, path)
}

// EnsureSaved saves the config, retrying failed writes, and verifies the result by reading it back.
// A failed write is returned as *StoreError, a mismatch after a successful write as *ValidationError.
func EnsureSaved(ctx context.Context, config *curves.FanCurveConfig, path string, opts SaveOptions) error {
	retries := opts.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	var err error
	for attempt := 1; attempt <= retries; attempt++ {
		err = Save(config, path)
		if err == nil {
			break
		}
		ui.Warning("Saving curve config to %s failed (attempt %d/%d): %v", path, attempt, retries, err)
		if attempt == retries {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(backoff):
		}
	}

	loaded, err := Load(path)
	if err != nil {
		return &ValidationError{Path: path, Err: err}
	}
	if err := config.Compare(loaded); err != nil {
		return &ValidationError{Path: path, Err: err}
	}
	return nil
}

// LoadOrDefault loads the combined config, falling back to the built-in curves if the file is missing.
func LoadOrDefault(path string) (*curves.FanCurveConfig, error) {
	config, err := Load(path)
	if err == nil {
		return config, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("No curve config at %s, using built-in curves", path)
		return curves.NewDefaultConfig(), nil
	}
	return curves.NewDefaultConfig(), err
}

func LoadNamedCurve(path string) (*curves.FanCurve, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StoreError{Op: "read", Path: path, Err: err}
	}
	curve := curves.NewFanCurve("")
	if err := json.Unmarshal(data, curve); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return curve, nil
}

// SaveNamedCurve writes the curve to its file in every given directory.
// All directories are attempted, failures are joined.
func SaveNamedCurve(curve *curves.FanCurve, dirs ...string) error {
	var result error
	for _, dir := range dirs {
		path := filepath.Join(dir, curves.CurveFileName(curve.Name()))
		if err := writeJson(curve, path); err != nil {
			result = errors.Join(result, err)
		}
	}
	return result
}

// SaveDefaultCurve marks curve as the default by storing it as default.json in dir.
func SaveDefaultCurve(curve *curves.FanCurve, dir string) error {
	return writeJson(curve, filepath.Join(dir, DefaultCurveFileName))
}

// RemoveDefaultCurve deletes default.json from dir, a missing file is not an error.
func RemoveDefaultCurve(dir string) error {
	path := filepath.Join(dir, DefaultCurveFileName)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &StoreError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

func LoadDefaultCurve(dir string) (*curves.FanCurve, error) {
	return LoadNamedCurve(filepath.Join(dir, DefaultCurveFileName))
}

// ListNamedCurves scans the given directories in order for curve files.
// Curves are unique by name, the first one found wins. Unreadable files are skipped.
func ListNamedCurves(dirs ...string) ([]NamedCurve, error) {
	var result []NamedCurve
	seen := map[string]bool{}

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				ui.Debug("Curve directory %s does not exist", dir)
				continue
			}
			return result, &StoreError{Op: "list", Path: dir, Err: err}
		}

		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			name := entry.Name()
			if !strings.HasSuffix(name, curveFileExtension) || name == DefaultCurveFileName {
				continue
			}

			path := filepath.Join(dir, name)
			curve, err := LoadNamedCurve(path)
			if err != nil {
				ui.Warning("Skipping curve file %s: %v", path, err)
				continue
			}
			if seen[curve.Name()] {
				ui.Debug("Curve '%s' at %s is shadowed by an earlier file", curve.Name(), path)
				continue
			}
			seen[curve.Name()] = true
			result = append(result, NamedCurve{Curve: curve, Path: path})
		}
	}

	return result, nil
}

func writeJson(value interface{}, path string) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return &StoreError{Op: "encode", Path: path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &StoreError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}

	// writes a temp file in the same directory and renames it over path
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return &StoreError{Op: "write", Path: path, Err: err}
	}
	return nil
}
