// etchook - boot hook that regenerates managed configuration files
//
// Usage:
//
//	etchook start      Ask the management daemon to rebuild /etc
//	etchook stop       Do nothing (the hook owns no state)
//	etchook restart    stop then start
//	etchook status     Check that the daemon is reachable
//	etchook rcvar      Print the rc script stanza for this hook
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/nasbsd/etchook/internal/control"
	_ "github.com/nasbsd/etchook/internal/control/all"
	"github.com/nasbsd/etchook/internal/dirs"
	"github.com/nasbsd/etchook/internal/env"
	"github.com/nasbsd/etchook/internal/executor"
	"github.com/nasbsd/etchook/internal/hook"
	"github.com/nasbsd/etchook/internal/logging"
	"github.com/nasbsd/etchook/internal/rcvar"
)

// Global flags
var (
	transportFlag string
	clientFlag    string
	socketFlag    string
	libpathFlag   string
	timeoutFlag   time.Duration
	verboseFlag   bool
)

func main() {
	flag.StringVar(&transportFlag, "transport", os.Getenv("ETCHOOK_TRANSPORT"), "Transport: exec, unix, dbus (overrides ETCHOOK_TRANSPORT; default exec)")
	flag.StringVar(&clientFlag, "client", "midclt", "Management daemon client utility")
	flag.StringVar(&socketFlag, "socket", dirs.DefaultSocketPath(), "Management daemon control socket")
	flag.StringVar(&libpathFlag, "libpath", "/usr/local/lib", "Directory prepended to the dynamic-library search path of spawned clients")
	flag.DurationVar(&timeoutFlag, "timeout", 0, "Abort start after this long (0 = no timeout)")
	flag.BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `etchook - boot hook that regenerates managed configuration files

Usage:
  etchook start      Ask the management daemon to rebuild /etc
  etchook stop       Do nothing (the hook owns no state)
  etchook restart    stop then start
  etchook status     Check that the daemon is reachable
  etchook rcvar      Print the rc script stanza for this hook

Flags:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(2)
	}

	switch verb := args[0]; verb {
	case "start":
		cmdStart()
	case "stop":
		cmdStop()
	case "restart":
		cmdRestart()
	case "status":
		cmdStatus()
	case "rcvar":
		cmdRcvar()
	default:
		fatal("unknown verb: %s", verb)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "etchook: "+format+"\n", args...)
	os.Exit(1)
}

// newRunner wires the control plane and hook runner from flags.
func newRunner(ctx context.Context) (*hook.Runner, control.ControlPlane) {
	log := logging.New(verboseFlag)

	// Spawning the client utility is the stock boot path; the direct
	// transports are opt-in only.
	kind := control.Kind(transportFlag)
	if kind == "" {
		kind = control.KindExec
	}
	log.Debug("opening control plane", "transport", string(kind))

	plane, err := control.Open(ctx, control.Config{
		Kind:       kind,
		ClientPath: clientFlag,
		SocketPath: socketFlag,
		Env:        env.PrependLibraryPath(os.Environ(), libpathFlag),
		Executor:   executor.Default(),
		Stderr:     os.Stderr,
	})
	if err != nil {
		fatal("opening control plane: %v", err)
	}

	runner := hook.NewRunner(hook.RunnerConfig{
		Definition: hook.Default(),
		Plane:      plane,
		LockPath:   dirs.LockPath(),
		Logger:     log,
	})
	return runner, plane
}

// runCtx returns the context for daemon calls, honoring --timeout.
func runCtx() (context.Context, context.CancelFunc) {
	if timeoutFlag > 0 {
		return context.WithTimeout(context.Background(), timeoutFlag)
	}
	return context.Background(), func() {}
}

func cmdStart() {
	ctx, cancel := runCtx()
	defer cancel()

	runner, plane := newRunner(ctx)
	defer plane.Close()

	if err := runner.Start(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			fatal("start timed out after %s", timeoutFlag)
		}
		fatal("%v", err)
	}
}

func cmdStop() {
	ctx, cancel := runCtx()
	defer cancel()

	// Stop never touches the daemon; no control plane needed.
	runner := hook.NewRunner(hook.RunnerConfig{
		Definition: hook.Default(),
		Logger:     logging.New(verboseFlag),
	})
	if err := runner.Stop(ctx); err != nil {
		fatal("%v", err)
	}
}

func cmdRestart() {
	ctx, cancel := runCtx()
	defer cancel()

	runner, plane := newRunner(ctx)
	defer plane.Close()

	if err := runner.Restart(ctx); err != nil {
		fatal("%v", err)
	}
}

func cmdStatus() {
	ctx, cancel := runCtx()
	defer cancel()

	runner, plane := newRunner(ctx)
	defer plane.Close()

	if err := runner.Status(ctx); err != nil {
		fatal("daemon unreachable: %v", err)
	}
	fmt.Fprintln(os.Stderr, "etchook: daemon is reachable")
}

func cmdRcvar() {
	fmt.Print(rcvar.Render(hook.Default(), ""))
}
