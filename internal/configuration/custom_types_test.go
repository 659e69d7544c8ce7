package configuration

import (
	"reflect"
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
)

func TestDefaultTrueBool_Get(t *testing.T) {
	tests := []struct {
		name     string
		input    DefaultTrueBool
		expected bool
	}{
		{
			name: "Present and True returns True",
			input: DefaultTrueBool{
				Optional: Optional[bool]{Value: true, Present: true},
			},
			expected: true,
		},
		{
			name: "Present and False returns False",
			input: DefaultTrueBool{
				Optional: Optional[bool]{Value: false, Present: true},
			},
			expected: false,
		},
		{
			name: "Not Present returns True",
			input: DefaultTrueBool{
				Optional: Optional[bool]{Value: false, Present: false},
			},
			expected: true,
		},
		{
			name: "Runtime Override wins over Missing",
			input: func() DefaultTrueBool {
				b := DefaultTrueBool{}
				b.SetOverride(false)
				return b
			}(),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.input.Get())
		})
	}
}

func TestDefaultTrueBoolHookFunc(t *testing.T) {
	type TestConfig struct {
		Watch DefaultTrueBool `mapstructure:"watch"`
	}

	tests := []struct {
		name            string
		inputMap        map[string]interface{}
		expectedValue   bool
		expectedPresent bool
		expectedGet     bool
	}{
		{"Explicit false", map[string]interface{}{"watch": false}, false, true, false},
		{"Explicit true", map[string]interface{}{"watch": true}, true, true, true},
		{"String false", map[string]interface{}{"watch": "false"}, false, true, false},
		{"Missing", map[string]interface{}{}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			var cfg TestConfig
			decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				DecodeHook: DefaultTrueBoolHookFunc(),
				Result:     &cfg,
			})
			assert.NoError(t, err)

			// WHEN
			err = decoder.Decode(tt.inputMap)

			// THEN
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedPresent, cfg.Watch.Present)
			assert.Equal(t, tt.expectedValue, cfg.Watch.Value)
			assert.Equal(t, tt.expectedGet, cfg.Watch.Get())
		})
	}
}

func TestHookSkipsUnrelatedTypes(t *testing.T) {
	// GIVEN
	hook := DefaultTrueBoolHookFunc()
	data := "some string"

	// WHEN
	res, err := hook(reflect.TypeOf("string"), reflect.TypeOf(123), data)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, data, res)
}

func TestDecodeHooks_Duration(t *testing.T) {
	// GIVEN
	type TestConfig struct {
		TickRate time.Duration `mapstructure:"tickRate"`
	}
	var cfg TestConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: decodeHooks(),
		Result:     &cfg,
	})
	assert.NoError(t, err)

	// WHEN
	err = decoder.Decode(map[string]interface{}{"tickRate": "1500ms"})

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.TickRate)
}
