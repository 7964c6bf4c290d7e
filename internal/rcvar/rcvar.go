// Package rcvar renders the rc script stanza that installs the hook into a
// BSD-style init framework. The framework's dependency resolver reads the
// PROVIDE/REQUIRE/BEFORE header; the script body just delegates back to the
// hook binary.
package rcvar

import (
	"fmt"
	"strings"

	"github.com/nasbsd/etchook/internal/hook"
)

// DefaultBinaryPath is where the hook binary is installed.
const DefaultBinaryPath = "/usr/local/sbin/etchook"

// Render returns the rc script for d, invoking binaryPath for the start
// verb. An empty binaryPath uses DefaultBinaryPath.
func Render(d hook.Definition, binaryPath string) string {
	if binaryPath == "" {
		binaryPath = DefaultBinaryPath
	}
	shName := shellName(d.Name)

	var b strings.Builder
	b.WriteString("#!/bin/sh\n#\n")
	writeOrderLine(&b, "PROVIDE", d.Provides)
	writeOrderLine(&b, "REQUIRE", d.Requires)
	writeOrderLine(&b, "BEFORE", d.Before)
	b.WriteString("\n. /etc/rc.subr\n\n")

	fmt.Fprintf(&b, "name=%q\n", shName)
	fmt.Fprintf(&b, "rcvar=\"%s_enable\"\n", shName)
	fmt.Fprintf(&b, "start_cmd=\"%s_start\"\n", shName)
	b.WriteString("stop_cmd=\":\"\n\n")

	fmt.Fprintf(&b, "%s_start()\n{\n\t%s start\n}\n\n", shName, binaryPath)

	b.WriteString("load_rc_config $name\n")
	fmt.Fprintf(&b, ": ${%s_enable:=\"YES\"}\n", shName)
	b.WriteString("run_rc_command \"$1\"\n")
	return b.String()
}

// writeOrderLine emits one boot-order header line, skipped when empty.
func writeOrderLine(b *strings.Builder, keyword string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(b, "# %s: %s\n", keyword, strings.Join(names, " "))
}

// shellName maps a service name to a legal shell identifier.
func shellName(name string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}
