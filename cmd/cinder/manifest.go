package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// projectManifest is an optional cinder.toml discovered by walking up from
// the working directory. Flags set explicitly on the command line override
// manifest values.
type projectManifest struct {
	Path   string
	Config projectConfig
}

type projectConfig struct {
	VM    vmConfig    `toml:"vm"`
	Trace traceConfig `toml:"trace"`
}

type vmConfig struct {
	MaxObjects int  `toml:"max-objects"`
	GC         bool `toml:"gc"`
}

type traceConfig struct {
	Output string `toml:"output"`
}

func defaultProjectConfig() projectConfig {
	return projectConfig{
		VM: vmConfig{GC: true},
	}
}

func findCinderToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "cinder.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadProjectManifest looks for cinder.toml starting at startDir. Returns
// (nil, false, nil) when none exists.
func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	path, ok, err := findCinderToml(startDir)
	if err != nil || !ok {
		return nil, false, err
	}
	cfg := defaultProjectConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, false, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	return &projectManifest{Path: path, Config: cfg}, true, nil
}
