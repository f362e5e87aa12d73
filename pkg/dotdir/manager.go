// Package dotdir manages the .winter/ and ~/.winter directories.
//
// The directory holds config.toml, the fact resources under memory/, the
// local conversation databases, and the active conversation pointer used
// by "winter chat --resume".
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the winter directory.
	dirName = ".winter"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .winter/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.winter/ dir
//  3. Home ~/.winter/ dir, created if missing
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating winter directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// Path joins elem onto the resolved target directory.
func (m *Manager) Path(overrideDir string, elem ...string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dir}, elem...)...), nil
}

// localDirExists checks whether a .winter/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
