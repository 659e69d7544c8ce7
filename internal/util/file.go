package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"syscall"
)

// CheckFilePermissionsForExecution checks whether the given filePath owner, group and permissions
// are safe to let a daemon running as root act on its content.
func CheckFilePermissionsForExecution(filePath string) (bool, error) {
	file, err := filepath.EvalSymlinks(filePath)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(file)
	if os.IsNotExist(err) {
		return false, errors.New("file not found")
	}

	stat := info.Sys().(*syscall.Stat_t)
	if stat.Uid != 0 {
		return false, errors.New("owner is not root")
	}

	if stat.Gid != 0 {
		groupWrite := info.Mode() & os.FileMode(0o020)
		if groupWrite != 0 {
			return false, errors.New("group is not root but has write permission")
		}
	}

	otherWrite := info.Mode() & os.FileMode(0o002)
	if otherWrite != 0 {
		return false, errors.New("others have write permission")
	}

	return true, nil
}

// ReadStringFromFile reads the whole file and trims surrounding whitespace.
func ReadStringFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func ReadIntFromFile(path string) (value int, err error) {
	text, err := ReadStringFromFile(path)
	if err != nil {
		return -1, err
	}
	if len(text) <= 0 {
		return -1, fmt.Errorf("file is empty: %s", path)
	}
	value, err = strconv.Atoi(text)
	if err != nil {
		return -1, fmt.Errorf("file %s does not contain an integer: %w", path, err)
	}
	return value, nil
}

// WriteIntToFile write a single integer to a file path
func WriteIntToFile(value int, path string) error {
	evaluatedPath, err := resolvePath(path)
	if len(evaluatedPath) > 0 && err == nil {
		path = evaluatedPath
	}
	valueAsString := strconv.Itoa(value)

	return os.WriteFile(path, []byte(valueAsString), 0644)
}

func resolvePath(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FindFilesMatching lists the direct children of path whose name matches expr.
// Symlinked entries (like the ones in /sys/class/hwmon) are resolved.
func FindFilesMatching(path string, expr *regexp.Regexp) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var result []string
	for _, entry := range entries {
		if !expr.MatchString(entry.Name()) {
			continue
		}
		entryPath := filepath.Join(path, entry.Name())
		resolved, err := filepath.EvalSymlinks(entryPath)
		if err != nil {
			// dangling link
			continue
		}
		result = append(result, resolved)
	}

	return result, nil
}
