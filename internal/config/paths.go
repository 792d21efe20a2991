// Package config provides configuration management for devenv.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
)

// Paths holds platform-specific directory paths for devenv.
type Paths struct {
	// ConfigDir is the per-user configuration directory.
	// macOS: ~/Library/Application Support/devenv
	// Linux: ~/.config/devenv (or XDG_CONFIG_HOME)
	ConfigDir string

	// ConfigFile is the path to the per-user config file.
	ConfigFile string
}

// GetPaths returns platform-aware paths for devenv.
func GetPaths() (*Paths, error) {
	return pathsFor(runtime.GOOS, os.Getenv("XDG_CONFIG_HOME"))
}

func pathsFor(goos, xdgConfig string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	p := &Paths{}
	switch goos {
	case "darwin":
		p.ConfigDir = filepath.Join(home, "Library", "Application Support", "devenv")
	default:
		if xdgConfig != "" {
			p.ConfigDir = filepath.Join(xdgConfig, "devenv")
		} else {
			p.ConfigDir = filepath.Join(home, ".config", "devenv")
		}
	}
	p.ConfigFile = filepath.Join(p.ConfigDir, FileName+".yaml")
	return p, nil
}

// SearchPaths returns where devenv.yaml is looked for: the working directory
// first, then dirs in order, then the per-user config directory. Repeated
// and empty entries are dropped.
func SearchPaths(cwd string, dirs ...string) []string {
	var out []string
	add := func(dir string) {
		if dir == "" || slices.Contains(out, dir) {
			return
		}
		out = append(out, dir)
	}
	add(cwd)
	for _, d := range dirs {
		add(d)
	}
	if p, err := GetPaths(); err == nil {
		add(p.ConfigDir)
	}
	return out
}
