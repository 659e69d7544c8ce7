package curves

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrCurveNotFound = errors.New("curve not found")

const NoDefault = -1

// FanCurveConfig owns a set of curves, addressed by a stable index or by name.
type FanCurveConfig struct {
	curves       []*FanCurve
	nameIndex    map[string]int
	defaultIndex int
}

type configDocument struct {
	Curves            []*FanCurve `json:"curves"`
	DefaultCurveIndex *int        `json:"default_curve_index"`
}

func NewFanCurveConfig() *FanCurveConfig {
	return &FanCurveConfig{
		curves:       []*FanCurve{},
		nameIndex:    map[string]int{},
		defaultIndex: NoDefault,
	}
}

// NewDefaultConfig contains all built-in curves, the first one being the default
func NewDefaultConfig() *FanCurveConfig {
	config := NewFanCurveConfig()
	for _, curve := range BuiltinCurves() {
		config.Add(curve)
	}
	config.defaultIndex = 0
	return config
}

// Add stores the curve and returns its index. A curve with the same name is replaced in place.
func (c *FanCurveConfig) Add(curve *FanCurve) int {
	if index, ok := c.nameIndex[curve.Name()]; ok {
		c.curves[index] = curve
		return index
	}
	c.curves = append(c.curves, curve)
	index := len(c.curves) - 1
	c.nameIndex[curve.Name()] = index
	return index
}

func (c *FanCurveConfig) Len() int {
	return len(c.curves)
}

func (c *FanCurveConfig) Get(index int) (*FanCurve, bool) {
	if index < 0 || index >= len(c.curves) {
		return nil, false
	}
	return c.curves[index], true
}

func (c *FanCurveConfig) Index(name string) (int, bool) {
	index, ok := c.nameIndex[name]
	return index, ok
}

func (c *FanCurveConfig) ByName(name string) (*FanCurve, bool) {
	index, ok := c.nameIndex[name]
	if !ok {
		return nil, false
	}
	return c.curves[index], true
}

// Curves returns the curves in insertion order
func (c *FanCurveConfig) Curves() []*FanCurve {
	result := make([]*FanCurve, len(c.curves))
	copy(result, c.curves)
	return result
}

func (c *FanCurveConfig) Names() []string {
	result := make([]string, 0, len(c.curves))
	for _, curve := range c.curves {
		result = append(result, curve.Name())
	}
	return result
}

// DefaultIndex returns the index of the default curve or NoDefault
func (c *FanCurveConfig) DefaultIndex() int {
	return c.defaultIndex
}

func (c *FanCurveConfig) Default() (*FanCurve, int, bool) {
	curve, ok := c.Get(c.defaultIndex)
	if !ok {
		return nil, NoDefault, false
	}
	return curve, c.defaultIndex, true
}

func (c *FanCurveConfig) SetDefault(index int) error {
	if index == NoDefault {
		c.defaultIndex = NoDefault
		return nil
	}
	if _, ok := c.Get(index); !ok {
		return fmt.Errorf("index %d: %w", index, ErrCurveNotFound)
	}
	c.defaultIndex = index
	return nil
}

func (c *FanCurveConfig) Clone() *FanCurveConfig {
	result := NewFanCurveConfig()
	for _, curve := range c.curves {
		result.Add(curve.Clone())
	}
	result.defaultIndex = c.defaultIndex
	return result
}

// Compare returns an error describing the first structural difference to other, if any.
func (c *FanCurveConfig) Compare(other *FanCurveConfig) error {
	if len(c.curves) != len(other.curves) {
		return fmt.Errorf("curve count mismatch: %d != %d", len(c.curves), len(other.curves))
	}
	for i, curve := range c.curves {
		loaded := other.curves[i]
		if curve.Name() != loaded.Name() {
			return fmt.Errorf("curve %d name mismatch: %q != %q", i, curve.Name(), loaded.Name())
		}
		if curve.Len() != loaded.Len() {
			return fmt.Errorf("curve %d point count mismatch: %d != %d", i, curve.Len(), loaded.Len())
		}
		for j, p := range curve.points {
			if p != loaded.points[j] {
				return fmt.Errorf("curve %d point %d data mismatch: %v != %v", i, j, p, loaded.points[j])
			}
		}
	}
	if c.defaultIndex != other.defaultIndex {
		return fmt.Errorf("default curve index mismatch: %d != %d", c.defaultIndex, other.defaultIndex)
	}
	return nil
}

func (c *FanCurveConfig) MarshalJSON() ([]byte, error) {
	doc := configDocument{
		Curves: c.curves,
	}
	if c.defaultIndex != NoDefault {
		index := c.defaultIndex
		doc.DefaultCurveIndex = &index
	}
	return json.Marshal(doc)
}

func (c *FanCurveConfig) UnmarshalJSON(data []byte) error {
	var doc configDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	result := NewFanCurveConfig()
	for _, curve := range doc.Curves {
		if curve == nil {
			continue
		}
		result.Add(curve)
	}
	if doc.DefaultCurveIndex != nil {
		if err := result.SetDefault(*doc.DefaultCurveIndex); err != nil {
			return fmt.Errorf("default_curve_index: %w", err)
		}
	}

	*c = *result
	return nil
}
