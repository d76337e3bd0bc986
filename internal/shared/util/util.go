package util

import (
	"io/fs"
	"os"
	"path/filepath"
)

// EnsureParentDir creates path's parent directory (0755) when missing.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// WriteFileWithDirs creates parent directories (0755) and writes the file with perm.
func WriteFileWithDirs(path string, data []byte, perm fs.FileMode) error {
	if err := EnsureParentDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

// StatePath returns the per-user state location for name, preferring
// $XDG_STATE_HOME, then ~/.local/state, then the working directory.
func StatePath(app, name string) string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, app, name)
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", app, name)
	}

	return name
}
