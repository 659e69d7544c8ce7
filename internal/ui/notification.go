package ui

import (
	"errors"
	"os"
	"os/exec"
	"strings"
)

// For a list of possible icons, see: https://specifications.freedesktop.org/icon-naming-spec/icon-naming-spec-latest.html
const (
	IconDialogError = "dialog-error"
	IconDialogInfo  = "dialog-information"
	IconDialogWarn  = "dialog-warning"

	UrgencyLow      = "low"
	UrgencyNormal   = "normal"
	UrgencyCritical = "critical"

	notificationAppName = "fancurve"
)

func NotifyWarn(title, text string) {
	NotifySend(UrgencyNormal, title, text, IconDialogWarn)
}

func NotifyError(title, text string) {
	NotifySend(UrgencyCritical, title, text, IconDialogError)
}

// NotifySend shows a desktop notification to the user owning the current display session.
// The daemon usually runs as root, so the notification is sent on behalf of that user.
func NotifySend(urgency, title, text, icon string) {
	display, exists := os.LookupEnv("DISPLAY")
	if !exists {
		Debug("Cannot send notification, missing env variable 'DISPLAY'")
		return
	}

	user, err := findDisplayUser(display)
	if err != nil {
		Warning("Cannot send notification: %v", err)
		return
	}

	uid, err := findUserId(user)
	if err != nil {
		Warning("Cannot send notification: %v", err)
		return
	}

	cmd := exec.Command("sudo", "-u", user,
		"DISPLAY="+display,
		"DBUS_SESSION_BUS_ADDRESS=unix:path=/run/user/"+uid+"/bus",
		"notify-send",
		"-a", notificationAppName,
		"-u", urgency,
		"-i", icon,
		title, text,
	)
	if err = cmd.Run(); err != nil {
		Error("Error sending notification: %v", err)
	}
}

func findDisplayUser(display string) (string, error) {
	output, err := exec.Command("who").Output()
	if err != nil {
		return "", err
	}
	return parseDisplayUser(string(output), display)
}

// parseDisplayUser picks the login name from the `who` output line whose host column is (display).
func parseDisplayUser(whoOutput string, display string) (string, error) {
	host := "(" + display + ")"
	for _, line := range strings.Split(whoOutput, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[len(fields)-1] != host {
			continue
		}
		return fields[0], nil
	}
	return "", errors.New("unable to detect user of current display session")
}

func findUserId(user string) (string, error) {
	output, err := exec.Command("id", "-u", user).Output()
	uid := strings.TrimSpace(string(output))
	if len(uid) <= 0 {
		if err == nil {
			err = errors.New("empty output")
		}
		return "", errors.New("unable to detect user id: " + err.Error())
	}
	return uid, nil
}
