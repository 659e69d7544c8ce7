package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDeviceNameAndLabel(t *testing.T) {
	// GIVEN
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "name"), []byte("coretemp\n"), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "temp1_label"), []byte("Package id 0\n"), 0644))

	// WHEN
	name := GetDeviceName(dir)
	label := GetLabel(dir, "temp1")
	missing := GetLabel(dir, "temp2")

	// THEN
	assert.Equal(t, "coretemp", name)
	assert.Equal(t, "Package id 0", label)
	assert.Equal(t, "", missing)
}

func TestChannelFile(t *testing.T) {
	assert.Equal(t, filepath.Join("/dev", "fan2_input"), ChannelFile("/dev", "fan", 2, "input"))
	assert.Equal(t, filepath.Join("/dev", "pwm3"), ChannelFile("/dev", "pwm", 3, ""))
}

func TestChannelIndex(t *testing.T) {
	index, ok := ChannelIndex("temp3_input", "temp")
	assert.True(t, ok)
	assert.Equal(t, 3, index)

	index, ok = ChannelIndex("pwm12", "pwm")
	assert.True(t, ok)
	assert.Equal(t, 12, index)

	_, ok = ChannelIndex("fan1_input", "temp")
	assert.False(t, ok)

	_, ok = ChannelIndex("temp_crit", "temp")
	assert.False(t, ok)
}
