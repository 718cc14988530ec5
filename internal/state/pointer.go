// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// pointerFile is the active-conversion pointer under the user config dir.
// It records the output directory the CLI should operate on when none is
// given explicitly.
const pointerFile = "active"

// pointerDir returns the directory holding the pointer file.
func pointerDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "pdf-convert"), nil
}

// SetActive records dir as the active conversion.
func SetActive(dir string) error {
	cfgDir, err := pointerDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cfgDir, pointerFile), []byte(dir+"\n"), 0o644)
}

// ClearActive removes the pointer if it names dir. Clearing a pointer that
// moved on to a different conversion is a no-op.
func ClearActive(dir string) {
	cfgDir, err := pointerDir()
	if err != nil {
		return
	}
	path := filepath.Join(cfgDir, pointerFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if strings.TrimSpace(string(data)) == dir {
		os.Remove(path)
	}
}

// ResolveDir returns dir when non-empty, otherwise the recorded active
// conversion. Fails when neither is available.
func ResolveDir(dir string) (string, error) {
	if dir != "" {
		return filepath.Abs(dir)
	}
	cfgDir, err := pointerDir()
	if err == nil {
		data, readErr := os.ReadFile(filepath.Join(cfgDir, pointerFile))
		if readErr == nil {
			active := strings.TrimSpace(string(data))
			if active != "" {
				return active, nil
			}
		}
	}
	return "", types.NewError(types.ErrState, nil,
		"no output directory given and no active conversion recorded").
		WithRemediation("pass the output directory explicitly, e.g. pdf-convert --status DIR")
}
