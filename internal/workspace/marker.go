// Package workspace manages the directory tree of a devenv environment: the
// marker file that identifies its root and the `init` bootstrap.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Marker is the zero-byte file at the root of every environment.
const Marker = ".devenv"

// ErrNoMarker is returned when no ancestor of the start directory holds Marker.
var ErrNoMarker = errors.New("not inside a devenv environment")

// FindRoot walks from start up to the filesystem root and returns the first
// directory that contains Marker.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}

	for {
		info, err := os.Stat(filepath.Join(dir, Marker))
		if err == nil && !info.IsDir() {
			return dir, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("check %s: %w", dir, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (no %s in %s or any parent directory)", ErrNoMarker, Marker, start)
		}
		dir = parent
	}
}

// WriteMarker creates the marker file in dir.
func WriteMarker(dir string) error {
	f, err := os.OpenFile(filepath.Join(dir, Marker), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return f.Close()
}
