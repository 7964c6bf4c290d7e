// Package dirs provides standard path resolution for etchook.
// The hook runs as root during boot, so runtime data lives under the
// system runtime directory rather than a per-user one.
package dirs

import (
	"os"
	"path/filepath"
	"runtime"
)

// RuntimeDir returns the directory for ephemeral runtime data (locks).
// Priority: $ETCHOOK_RUNTIME_DIR > /var/run/etchook (BSD) or /run/etchook.
func RuntimeDir() string {
	if v := os.Getenv("ETCHOOK_RUNTIME_DIR"); v != "" {
		return v
	}
	if base := findRuntimeBase(); base != "" {
		return filepath.Join(base, "etchook")
	}
	return filepath.Join(os.TempDir(), "etchook")
}

// LockPath returns the path of the regeneration lock file.
func LockPath() string {
	return filepath.Join(RuntimeDir(), "regenerate.lock")
}

// DefaultSocketPath returns where the management daemon's control socket
// lives by default. Only the unix transport, selected explicitly, dials it.
func DefaultSocketPath() string {
	if v := os.Getenv("ETCHOOK_SOCKET"); v != "" {
		return v
	}
	if base := findRuntimeBase(); base != "" {
		return filepath.Join(base, "middleware.sock")
	}
	return filepath.Join(os.TempDir(), "middleware.sock")
}

// findRuntimeBase finds the best available system runtime directory.
// FreeBSD uses /var/run, Linux typically symlinks it to /run.
func findRuntimeBase() string {
	candidates := []string{"/run", "/var/run"}
	if runtime.GOOS == "freebsd" {
		candidates = []string{"/var/run", "/run"}
	}
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}
