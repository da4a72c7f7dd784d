// Package fsutil holds the small filesystem helpers shared by the model
// registry, the serve command's storage paths, and the worker's grammar
// resolution.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome resolves a leading '~' against the user's home directory, so
// config values like ~/models/hearth work as operators expect.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists reports whether the path can be stat'd. Errors other than
// ErrNotExist count as existing, so permission problems surface at open
// time with a real error instead of being masked here.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
