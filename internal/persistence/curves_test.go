package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/markusressel/fancurve/internal/curves"
	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, path string, content string) {
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	// GIVEN
	path := filepath.Join(t.TempDir(), ".fan_curve_app", "config.json")
	config := curves.NewDefaultConfig()
	custom := curves.NewFanCurve("Custom Test")
	custom.AddPoint(0, 0)
	custom.AddPoint(30, 2000)
	custom.AddPoint(50, 5000)
	custom.AddPoint(70, 8000)
	custom.AddPoint(90, 10000)
	_ = config.SetDefault(config.Add(custom))

	// WHEN
	err := Save(config, path)
	assert.NoError(t, err)
	loaded, err := Load(path)

	// THEN
	assert.NoError(t, err)
	assert.NoError(t, config.Compare(loaded))
	curve, _, ok := loaded.Default()
	assert.True(t, ok)
	assert.Equal(t, "Custom Test", curve.Name())
	assert.Equal(t, 5, curve.Len())
}

func TestLoad_Missing(t *testing.T) {
	// WHEN
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))

	// THEN
	var storeError *StoreError
	assert.True(t, errors.As(err, &storeError))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Malformed(t *testing.T) {
	// GIVEN
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, "{not json")

	// WHEN
	_, err := Load(path)

	// THEN
	var parseError *ParseError
	assert.True(t, errors.As(err, &parseError))
}

func TestLoadOrDefault_Missing(t *testing.T) {
	// WHEN
	config, err := LoadOrDefault(filepath.Join(t.TempDir(), "config.json"))

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 4, config.Len())
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	// GIVEN
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	// WHEN
	assert.NoError(t, Save(curves.NewDefaultConfig(), path))
	assert.NoError(t, Save(curves.NewDefaultConfig(), path))

	// THEN
	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnsureSaved(t *testing.T) {
	// GIVEN
	path := filepath.Join(t.TempDir(), "config.json")
	config := curves.NewDefaultConfig()

	// WHEN
	err := EnsureSaved(context.Background(), config, path, SaveOptions{Retries: 3, Backoff: time.Millisecond})

	// THEN
	assert.NoError(t, err)
	loaded, err := Load(path)
	assert.NoError(t, err)
	assert.NoError(t, config.Compare(loaded))
}

func TestEnsureSaved_WriteFailsAfterRetries(t *testing.T) {
	// GIVEN
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, blocker, "")
	// the parent "directory" is a regular file, so every attempt fails
	path := filepath.Join(blocker, "config.json")

	// WHEN
	err := EnsureSaved(context.Background(), curves.NewDefaultConfig(), path, SaveOptions{Retries: 3, Backoff: time.Millisecond})

	// THEN
	var storeError *StoreError
	assert.True(t, errors.As(err, &storeError))
	var validationError *ValidationError
	assert.False(t, errors.As(err, &validationError))
}

func TestEnsureSaved_Cancelled(t *testing.T) {
	// GIVEN
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, blocker, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// WHEN
	err := EnsureSaved(ctx, curves.NewDefaultConfig(), filepath.Join(blocker, "config.json"), SaveOptions{Retries: 3, Backoff: time.Hour})

	// THEN
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveNamedCurve_BothRoots(t *testing.T) {
	// GIVEN
	systemDir := filepath.Join(t.TempDir(), "etc")
	stateDir := filepath.Join(t.TempDir(), "var")
	curve := curves.Threadripper2()

	// WHEN
	err := SaveNamedCurve(curve, systemDir, stateDir)

	// THEN
	assert.NoError(t, err)
	for _, dir := range []string{systemDir, stateDir} {
		loaded, err := LoadNamedCurve(filepath.Join(dir, "threadripper_2.json"))
		assert.NoError(t, err)
		assert.True(t, curve.Equal(loaded))
	}
}

func TestSaveDefaultCurve(t *testing.T) {
	// GIVEN
	dir := t.TempDir()

	// WHEN
	err := SaveDefaultCurve(curves.HEDT(), dir)

	// THEN
	assert.NoError(t, err)
	loaded, err := LoadDefaultCurve(dir)
	assert.NoError(t, err)
	assert.Equal(t, curves.CurveHEDT, loaded.Name())
}

func TestListNamedCurves_DedupeFirstFoundWins(t *testing.T) {
	// GIVEN
	systemDir := t.TempDir()
	stateDir := t.TempDir()
	writeFile(t, filepath.Join(systemDir, "quiet.json"), `{"name": "Quiet", "points": [{"temp": 50, "duty": 3000}]}`)
	writeFile(t, filepath.Join(stateDir, "quiet.json"), `{"name": "Quiet", "points": [{"temp": 50, "duty": 9000}]}`)
	writeFile(t, filepath.Join(stateDir, "loud.json"), `{"name": "Loud", "points": [{"temp": 50, "duty": 10000}]}`)
	writeFile(t, filepath.Join(stateDir, "notes.txt"), `{"name": "Text", "points": []}`)
	writeFile(t, filepath.Join(stateDir, "broken.json"), `{"name": `)
	writeFile(t, filepath.Join(systemDir, DefaultCurveFileName), `{"name": "Quiet", "points": []}`)
	assert.NoError(t, os.Mkdir(filepath.Join(stateDir, "dir.json"), 0755))

	// WHEN
	result, err := ListNamedCurves(systemDir, stateDir, filepath.Join(t.TempDir(), "missing"))

	// THEN
	assert.NoError(t, err)
	names := map[string]*curves.FanCurve{}
	for _, named := range result {
		names[named.Curve.Name()] = named.Curve
	}
	assert.Len(t, result, 2)
	assert.Contains(t, names, "Quiet")
	assert.Contains(t, names, "Loud")
	p, _ := names["Quiet"].GetPoint(0)
	assert.Equal(t, uint16(3000), p.Duty)
}

func TestEnsureSaved_ZeroBackoffWaitsDefault(t *testing.T) {
	// GIVEN
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, blocker, "")
	start := time.Now()

	// WHEN
	err := EnsureSaved(context.Background(), curves.NewDefaultConfig(), filepath.Join(blocker, "config.json"), SaveOptions{Retries: 2})

	// THEN
	assert.Error(t, err)
	assert.GreaterOrEqual(t, time.Since(start), DefaultBackoff)
}

func TestEnsureSaved_ZeroOptions(t *testing.T) {
	// GIVEN
	path := filepath.Join(t.TempDir(), "config.json")
	config := curves.NewDefaultConfig()

	// WHEN
	err := EnsureSaved(context.Background(), config, path, SaveOptions{})

	// THEN
	assert.NoError(t, err)
	loaded, err := Load(path)
	assert.NoError(t, err)
	assert.NoError(t, config.Compare(loaded))
}

func TestRemoveDefaultCurve(t *testing.T) {
	// GIVEN
	dir := t.TempDir()
	assert.NoError(t, SaveDefaultCurve(curves.HEDT(), dir))

	// WHEN
	err := RemoveDefaultCurve(dir)

	// THEN
	assert.NoError(t, err)
	_, err = LoadDefaultCurve(dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRemoveDefaultCurve_Missing(t *testing.T) {
	// WHEN
	err := RemoveDefaultCurve(t.TempDir())

	// THEN
	assert.NoError(t, err)
}
