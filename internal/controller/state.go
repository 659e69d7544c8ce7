package controller

import (
	"time"
)

type State int

const (
	// StateIdle leaves the fans to the firmware
	StateIdle State = iota
	// StateActive drives the fans according to the active curve
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateActive:
		return "Active"
	default:
		return "Unknown"
	}
}

// Sample is the last measurement of the control loop
type Sample struct {
	// Temperature in °C, averaged over the rolling window
	Temperature float64 `json:"temperature"`
	// Duty in ten-thousandths, as evaluated from the active curve
	Duty uint16 `json:"duty"`
	// Pwm as read back from the primary fan
	Pwm  int       `json:"pwm"`
	Rpm  int       `json:"rpm"`
	Time time.Time `json:"time"`
}

type Failures struct {
	Discovery          int `json:"discovery"`
	SensorRead         int `json:"sensorRead"`
	ActuatorWrite      int `json:"actuatorWrite"`
	ReadBack           int `json:"readBack"`
	UnexpectedPwmValue int `json:"unexpectedPwmValue"`
	Persistence        int `json:"persistence"`
	Validation         int `json:"validation"`
}

type Status struct {
	State      State    `json:"state"`
	Curve      string   `json:"curve"`
	CurveIndex int      `json:"curveIndex"`
	Sensor     string   `json:"sensor"`
	Fans       []string `json:"fans"`
	Ticks      int      `json:"ticks"`
	Sample     Sample   `json:"sample"`
	Failures   Failures `json:"failures"`
}

// Event is published to subscribers whenever the active curve or the state changes
type Event struct {
	State State  `json:"state"`
	Curve string `json:"curve"`
}
