// Package control abstracts how the hook reaches the management daemon.
//
// The daemon exposes namespaced methods ("etc.generate", "core.ping"). The
// default transport shells out to the daemon's client utility; the daemon
// can instead be called directly over its control socket or the system bus,
// but only when that transport is requested explicitly.
// Implementations register themselves and are selected through Open.
package control

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nasbsd/etchook/internal/executor"
)

// Method identifies a daemon method as namespace plus name.
type Method struct {
	Namespace string
	Name      string
}

// String renders the wire form, e.g. "etc.generate".
func (m Method) String() string {
	return m.Namespace + "." + m.Name
}

// Well-known daemon methods.
var (
	// MethodGenerateAll rebuilds every managed configuration file.
	MethodGenerateAll = Method{Namespace: "etc", Name: "generate"}
	// MethodPing checks that the daemon is up and answering.
	MethodPing = Method{Namespace: "core", Name: "ping"}
)

// Kind identifies a transport implementation.
type Kind string

const (
	KindExec Kind = "exec"
	KindUnix Kind = "unix"
	KindDBus Kind = "dbus"
)

// Config configures a transport implementation.
type Config struct {
	Kind Kind

	// ClientPath is the daemon's client utility (exec transport).
	ClientPath string

	// SocketPath is the daemon's control socket (unix transport).
	SocketPath string

	// Env is the environment for spawned client processes; nil inherits
	// the parent's environment.
	Env []string

	// Executor spawns client processes. Defaults to the os/exec executor.
	Executor executor.Executor

	// Stderr receives the spawned client's stderr. Defaults to os.Stderr.
	Stderr io.Writer
}

// ControlPlane performs daemon method calls.
type ControlPlane interface {
	// Call invokes method and returns an error if the daemon reports
	// failure. Any output the call produces is discarded.
	Call(ctx context.Context, method Method) error

	// Ping reports whether the daemon is reachable.
	Ping(ctx context.Context) error

	Close() error
}

type opener func(ctx context.Context, cfg Config) (ControlPlane, error)

var openers = map[Kind]opener{}

// Register makes a transport implementation available to Open.
// Implementations should call this from init().
func Register(kind Kind, o opener) {
	if kind == "" {
		panic("control: register with empty kind")
	}
	if o == nil {
		panic("control: register with nil opener")
	}
	if _, exists := openers[kind]; exists {
		panic("control: duplicate register for kind " + string(kind))
	}
	openers[kind] = o
}

// Open constructs a control plane from cfg. The requested Kind must be
// registered. An empty Kind means exec: spawning the client utility is the
// hook's stock path, regardless of what else the daemon happens to expose.
func Open(ctx context.Context, cfg Config) (ControlPlane, error) {
	cfg = withDefaults(cfg)
	o, ok := openers[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown transport %q", cfg.Kind)
	}
	return o(ctx, cfg)
}

func withDefaults(cfg Config) Config {
	if cfg.Kind == "" {
		cfg.Kind = KindExec
	}
	if cfg.Executor == nil {
		cfg.Executor = executor.Default()
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return cfg
}
