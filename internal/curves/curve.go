package curves

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/slices"
)

const (
	MaxDuty uint16 = 10000

	// MinPointTemp and MaxPointTemp bound points added through the control surface, in °C
	MinPointTemp = 0
	MaxPointTemp = 100
)

var (
	ErrNoPoints    = errors.New("No points to remove")
	ErrOutOfRange  = errors.New("value out of range")
	ErrInvalidName = errors.New("invalid curve name")
)

// FanPoint maps a temperature (whole °C) to a fan duty in ten-thousandths (0..10000).
type FanPoint struct {
	Temp int16  `json:"temp"`
	Duty uint16 `json:"duty"`
}

// Pair is the wire representation of a FanPoint used by the control surface.
type Pair [2]int

// FanCurve is a named set of points, always sorted ascending by temperature.
// Points with equal temperatures keep their insertion order.
type FanCurve struct {
	name   string
	points []FanPoint
}

type curveDocument struct {
	Name   string     `json:"name"`
	Points []FanPoint `json:"points"`
}

func NewFanCurve(name string) *FanCurve {
	return &FanCurve{
		name:   name,
		points: []FanPoint{},
	}
}

// FromPairs creates a curve from (temp °C, duty ten-thousandths) pairs.
func FromPairs(name string, pairs []Pair) (*FanCurve, error) {
	curve := NewFanCurve(name)
	for i, pair := range pairs {
		temp, duty := pair[0], pair[1]
		if temp < -32768 || temp > 32767 {
			return nil, fmt.Errorf("point %d: temperature %d: %w", i, temp, ErrOutOfRange)
		}
		if duty < 0 || duty > int(MaxDuty) {
			return nil, fmt.Errorf("point %d: duty %d: %w", i, duty, ErrOutOfRange)
		}
		curve.AddPoint(int16(temp), uint16(duty))
	}
	return curve, nil
}

// ValidateName checks that name can be stored in a curve file and read back unchanged
func ValidateName(name string) error {
	if len(name) <= 0 {
		return fmt.Errorf("curve name must not be empty: %w", ErrInvalidName)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("curve name %q is not valid UTF-8: %w", name, ErrInvalidName)
	}
	return nil
}

func (c *FanCurve) Name() string {
	return c.name
}

func (c *FanCurve) SetName(name string) {
	c.name = name
}

// Points returns a copy of the points of this curve
func (c *FanCurve) Points() []FanPoint {
	return slices.Clone(c.points)
}

func (c *FanCurve) Len() int {
	return len(c.points)
}

func (c *FanCurve) ToPairs() []Pair {
	result := make([]Pair, 0, len(c.points))
	for _, p := range c.points {
		result = append(result, Pair{int(p.Temp), int(p.Duty)})
	}
	return result
}

// AddPoint inserts a point and restores the ascending temperature order.
func (c *FanCurve) AddPoint(temp int16, duty uint16) {
	c.points = append(c.points, FanPoint{Temp: temp, Duty: duty})
	sortPoints(c.points)
}

func (c *FanCurve) RemoveLastPoint() (FanPoint, bool) {
	return c.RemovePoint(len(c.points) - 1)
}

func (c *FanCurve) RemovePoint(index int) (FanPoint, bool) {
	removed, ok := c.GetPoint(index)
	if !ok {
		return FanPoint{}, false
	}
	c.points = slices.Delete(c.points, index, index+1)
	return removed, true
}

func (c *FanCurve) GetPoint(index int) (FanPoint, bool) {
	if index < 0 || index >= len(c.points) {
		return FanPoint{}, false
	}
	return c.points[index], true
}

func (c *FanCurve) Clone() *FanCurve {
	return &FanCurve{
		name:   c.name,
		points: slices.Clone(c.points),
	}
}

// Equal compares name and points
func (c *FanCurve) Equal(other *FanCurve) bool {
	if other == nil {
		return false
	}
	return c.name == other.name && slices.Equal(c.points, other.points)
}

func (c *FanCurve) String() string {
	var sb strings.Builder
	sb.WriteString(c.name)
	sb.WriteString(" [")
	for i, p := range c.points {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%d°C: %.2f%%", p.Temp, float64(p.Duty)/100))
	}
	sb.WriteString("]")
	return sb.String()
}

func (c *FanCurve) MarshalJSON() ([]byte, error) {
	return json.Marshal(curveDocument{
		Name:   c.name,
		Points: c.points,
	})
}

func (c *FanCurve) UnmarshalJSON(data []byte) error {
	var doc curveDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Name) <= 0 {
		return errors.New("curve without name")
	}
	for i, p := range doc.Points {
		if p.Duty > MaxDuty {
			return fmt.Errorf("point %d: duty %d: %w", i, p.Duty, ErrOutOfRange)
		}
	}
	if doc.Points == nil {
		doc.Points = []FanPoint{}
	}
	sortPoints(doc.Points)
	c.name = doc.Name
	c.points = doc.Points
	return nil
}

// CurveFileName returns the file name a named curve is persisted under,
// f.ex. "Threadripper 2" -> "threadripper_2.json"
func CurveFileName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_")) + ".json"
}

func sortPoints(points []FanPoint) {
	slices.SortStableFunc(points, func(a, b FanPoint) int {
		return int(a.Temp) - int(b.Temp)
	})
}
