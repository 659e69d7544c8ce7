package ui

import (
	"os"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
)

func ExamplePrintfln() {
	pterm.SetDefaultOutput(os.Stdout)
	pterm.DisableStyling()

	msg := "This is a test %d"
	a := 5
	Printfln(msg, a)
	// Output:
	// This is a test 5
}

func ExampleDebug() {
	pterm.SetDefaultOutput(os.Stdout)
	pterm.DisableStyling()
	SetDebugEnabled(true)

	msg := "This is a test: %d"
	a := 5
	Debug(msg, a)
	// Output:
	// DEBUG: This is a test: 5
}

func ExampleInfo() {
	pterm.SetDefaultOutput(os.Stdout)
	pterm.DisableStyling()

	msg := "This is a test: %d"
	a := 5
	Info(msg, a)
	// Output:
	// INFO: This is a test: 5
}

func ExampleWarning() {
	pterm.SetDefaultOutput(os.Stdout)
	pterm.DisableStyling()

	msg := "This is a test: %d"
	a := 5
	Warning(msg, a)
	// Output:
	// WARNING: This is a test: 5
}

func ExampleError() {
	pterm.SetDefaultOutput(os.Stdout)
	pterm.DisableStyling()

	msg := "This is a test: %v"
	a := os.ErrClosed
	Error(msg, a)
	// Output:
	// ERROR: This is a test: file already closed
}

func TestSetDebugEnabled(t *testing.T) {
	// GIVEN
	SetDebugEnabled(true)

	// WHEN
	SetDebugEnabled(false)

	// THEN
	assert.False(t, pterm.PrintDebugMessages)
}

func TestParseDisplayUser(t *testing.T) {
	// GIVEN
	whoOutput := "root     tty1         2024-01-01 10:00\n" +
		"alice    seat0        2024-01-01 10:01 (:0)\n"

	// WHEN
	user, err := parseDisplayUser(whoOutput, ":0")

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestParseDisplayUser_IgnoresTimestamp(t *testing.T) {
	// GIVEN
	whoOutput := "root     pts/0        2024-01-01 10:00 (10.0.0.1)\n" +
		"bob      seat0        2024-01-01 11:00 (:10)\n" +
		"alice    seat1        2024-01-01 12:00 (:1)\n"

	// WHEN
	user, err := parseDisplayUser(whoOutput, ":1")

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestParseDisplayUser_NoMatch(t *testing.T) {
	// GIVEN
	whoOutput := "root     tty1         2024-01-01 10:00\n"

	// WHEN
	_, err := parseDisplayUser(whoOutput, ":1")

	// THEN
	assert.Error(t, err)
}
