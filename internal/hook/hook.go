// Package hook implements the boot-time configuration regeneration hook.
//
// The hook is a thin lifecycle shim between the init framework and the
// management daemon that owns /etc: "start" asks the daemon to rebuild
// every managed configuration file, "stop" does nothing. There is no
// retry and no recovery; a failed daemon call is a failed hook, and the
// init framework decides what a failed hook means for the boot.
package hook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/nasbsd/etchook/internal/control"
	"github.com/nasbsd/etchook/internal/lockfile"
)

// Definition declares the hook to the init framework: its name, where it
// sits in the boot order, and what it asks the daemon to do.
type Definition struct {
	// Name is the service name the init framework knows the hook by.
	Name string

	// Provides, Requires and Before are boot-order names. The init
	// framework's own resolver consumes them; the hook only declares.
	Provides []string
	Requires []string
	Before   []string

	// Method is the daemon method that start invokes.
	Method control.Method

	// LibraryDir is prepended to the dynamic-library search path of
	// spawned client processes.
	LibraryDir string
}

// Default returns the stock declaration: regenerate /etc after the
// filesystems and the daemon are up, before the network comes online.
func Default() Definition {
	return Definition{
		Name:       "ix-etc",
		Provides:   []string{"ix-etc"},
		Requires:   []string{"FILESYSTEMS", "middlewared"},
		Before:     []string{"NETWORKING"},
		Method:     control.MethodGenerateAll,
		LibraryDir: "/usr/local/lib",
	}
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Definition Definition

	// Plane is the transport to the daemon.
	Plane control.ControlPlane

	// LockPath guards against overlapping regenerations. Empty disables
	// the lock.
	LockPath string

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Runner executes lifecycle verbs for a hook definition.
type Runner struct {
	def      Definition
	plane    control.ControlPlane
	lockPath string
	log      *slog.Logger
}

// NewRunner creates a Runner from cfg.
func NewRunner(cfg RunnerConfig) *Runner {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		def:      cfg.Definition,
		plane:    cfg.Plane,
		lockPath: cfg.LockPath,
		log:      log,
	}
}

// Start asks the daemon to regenerate the configuration. It returns an
// error when the daemon call fails; the caller maps that to a non-zero
// exit status.
func (r *Runner) Start(ctx context.Context) error {
	if r.lockPath != "" {
		lock, err := lockfile.TryAcquire(r.lockPath)
		if errors.Is(err, lockfile.ErrBusy) {
			return fmt.Errorf("%s: a regeneration is already in progress", r.def.Name)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", r.def.Name, err)
		}
		defer lock.Release()
	}

	r.log.Info("regenerating configuration", "hook", r.def.Name, "method", r.def.Method.String())

	if err := r.plane.Call(ctx, r.def.Method); err != nil {
		r.log.Error("regeneration failed", "hook", r.def.Name, "error", err)
		return err
	}

	// No-op unless we were started as a systemd service.
	daemon.SdNotify(false, daemon.SdNotifyReady)

	r.log.Debug("regeneration complete", "hook", r.def.Name)
	return nil
}

// Stop does nothing. The hook owns no state worth tearing down.
func (r *Runner) Stop(ctx context.Context) error {
	daemon.SdNotify(false, daemon.SdNotifyStopping)
	return nil
}

// Restart is Stop then Start, the generic init-framework convention.
func (r *Runner) Restart(ctx context.Context) error {
	if err := r.Stop(ctx); err != nil {
		return err
	}
	return r.Start(ctx)
}

// Status reports whether the daemon is reachable. It never triggers a
// regeneration.
func (r *Runner) Status(ctx context.Context) error {
	return r.plane.Ping(ctx)
}
