// Package env adjusts the environment passed to middleware client processes.
package env

import "strings"

// LibraryPathVar is the dynamic-linker search path variable extended before
// invoking the middleware client, which lives outside the base system's
// library directories.
const LibraryPathVar = "LD_LIBRARY_PATH"

// PrependLibraryPath returns a copy of environ with dir leading the
// dynamic-library search path. Existing entries are preserved after dir;
// an environ that already leads with dir is returned unmodified in content.
// An empty dir leaves the environment alone.
func PrependLibraryPath(environ []string, dir string) []string {
	if dir == "" {
		return append([]string(nil), environ...)
	}

	prefix := LibraryPathVar + "="
	out := make([]string, 0, len(environ)+1)
	found := false

	for _, kv := range environ {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
			continue
		}
		found = true
		out = append(out, prefix+prependPath(strings.TrimPrefix(kv, prefix), dir))
	}

	if !found {
		out = append(out, prefix+dir)
	}
	return out
}

// prependPath puts dir first in a colon-separated path list, dropping any
// duplicate occurrence of dir already in the list.
func prependPath(list, dir string) string {
	if list == "" {
		return dir
	}
	parts := strings.Split(list, ":")
	kept := parts[:0]
	for _, p := range parts {
		if p != dir {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return dir
	}
	return dir + ":" + strings.Join(kept, ":")
}

// Lookup returns the value of name in environ and whether it was present.
func Lookup(environ []string, name string) (string, bool) {
	prefix := name + "="
	for _, kv := range environ {
		if strings.HasPrefix(kv, prefix) {
			return strings.TrimPrefix(kv, prefix), true
		}
	}
	return "", false
}
