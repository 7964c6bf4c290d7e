package hook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nasbsd/etchook/internal/control"
	_ "github.com/nasbsd/etchook/internal/control/execclient"
	"github.com/nasbsd/etchook/internal/env"
	"github.com/nasbsd/etchook/internal/executor"
	"github.com/nasbsd/etchook/internal/hook"
	"github.com/nasbsd/etchook/internal/lockfile"
)

// fakePlane records daemon calls without any transport.
type fakePlane struct {
	calls []control.Method
	pings int
	err   error
}

func (p *fakePlane) Call(ctx context.Context, m control.Method) error {
	p.calls = append(p.calls, m)
	return p.err
}

func (p *fakePlane) Ping(ctx context.Context) error {
	p.pings++
	return p.err
}

func (p *fakePlane) Close() error { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRunner(plane control.ControlPlane, lockPath string) *hook.Runner {
	return hook.NewRunner(hook.RunnerConfig{
		Definition: hook.Default(),
		Plane:      plane,
		LockPath:   lockPath,
		Logger:     quietLogger(),
	})
}

func TestStart_CallsGenerateAll(t *testing.T) {
	plane := &fakePlane{}
	r := newRunner(plane, "")

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(plane.calls) != 1 || plane.calls[0] != control.MethodGenerateAll {
		t.Errorf("expected one etc.generate call, got %v", plane.calls)
	}
}

func TestStart_PropagatesFailure(t *testing.T) {
	plane := &fakePlane{err: errors.New("daemon down")}
	r := newRunner(plane, "")

	err := r.Start(context.Background())
	if err == nil {
		t.Fatal("expected error when daemon call fails")
	}
	if !strings.Contains(err.Error(), "daemon down") {
		t.Errorf("expected daemon error propagated, got %q", err)
	}
}

func TestStop_NoDaemonCallAlwaysSucceeds(t *testing.T) {
	plane := &fakePlane{err: errors.New("daemon down")}
	r := newRunner(plane, "")

	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("Stop must always succeed, got %v", err)
	}
	if len(plane.calls) != 0 || plane.pings != 0 {
		t.Errorf("Stop must not touch the daemon, got calls=%v pings=%d", plane.calls, plane.pings)
	}
}

func TestStop_WorksWithoutPlane(t *testing.T) {
	r := hook.NewRunner(hook.RunnerConfig{
		Definition: hook.Default(),
		Logger:     quietLogger(),
	})
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestRestart_StopsThenStarts(t *testing.T) {
	plane := &fakePlane{}
	r := newRunner(plane, "")

	if err := r.Restart(context.Background()); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if len(plane.calls) != 1 || plane.calls[0] != control.MethodGenerateAll {
		t.Errorf("expected exactly one regeneration, got %v", plane.calls)
	}
}

func TestStatus_PingsWithoutRegenerating(t *testing.T) {
	plane := &fakePlane{}
	r := newRunner(plane, "")

	if err := r.Status(context.Background()); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if plane.pings != 1 {
		t.Errorf("expected one ping, got %d", plane.pings)
	}
	if len(plane.calls) != 0 {
		t.Errorf("Status must not regenerate, got %v", plane.calls)
	}
}

func TestStart_LockHeldFails(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "regenerate.lock")
	held, err := lockfile.TryAcquire(lockPath)
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	defer held.Release()

	plane := &fakePlane{}
	r := newRunner(plane, lockPath)

	err = r.Start(context.Background())
	if err == nil {
		t.Fatal("expected error while lock is held")
	}
	if !strings.Contains(err.Error(), "already in progress") {
		t.Errorf("expected in-progress error, got %q", err)
	}
	if len(plane.calls) != 0 {
		t.Errorf("daemon must not be called while locked, got %v", plane.calls)
	}
}

func TestStart_LockReleasedAfterRun(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "regenerate.lock")
	plane := &fakePlane{}
	r := newRunner(plane, lockPath)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("second Start after release: %v", err)
	}
	if len(plane.calls) != 2 {
		t.Errorf("expected two regenerations, got %v", plane.calls)
	}
}

// TestStart_ExecTransportEndToEnd runs the full start path through the exec
// transport with a fake client, checking the exact child argv and the
// library path in its environment.
func TestStart_ExecTransportEndToEnd(t *testing.T) {
	exec := executor.NewFakeExecutor()
	exec.RegisterCommand("midclt", func(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) int {
		io.WriteString(stdout, "True\n")
		return 0
	})

	def := hook.Default()
	childEnv := env.PrependLibraryPath([]string{"PATH=/bin"}, def.LibraryDir)

	plane, err := control.Open(context.Background(), control.Config{
		Kind:       control.KindExec,
		ClientPath: "midclt",
		Env:        childEnv,
		Executor:   exec,
		Stderr:     io.Discard,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer plane.Close()

	r := hook.NewRunner(hook.RunnerConfig{
		Definition: def,
		Plane:      plane,
		LockPath:   filepath.Join(t.TempDir(), "regenerate.lock"),
		Logger:     quietLogger(),
	})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	calls := exec.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 spawn, got %d", len(calls))
	}
	wantArgs := []string{"midclt", "call", "etc.generate"}
	if !reflect.DeepEqual(calls[0].Args, wantArgs) {
		t.Errorf("expected argv %v, got %v", wantArgs, calls[0].Args)
	}

	v, ok := env.Lookup(calls[0].Env, env.LibraryPathVar)
	if !ok {
		t.Fatalf("expected %s in child env, got %v", env.LibraryPathVar, calls[0].Env)
	}
	if v != def.LibraryDir {
		t.Errorf("expected library path %q, got %q", def.LibraryDir, v)
	}
}

func TestDefaultDefinition(t *testing.T) {
	d := hook.Default()
	if d.Name == "" {
		t.Error("default definition must be named")
	}
	if d.Method != control.MethodGenerateAll {
		t.Errorf("expected etc.generate, got %v", d.Method)
	}
	if d.LibraryDir == "" {
		t.Error("default definition must carry a library dir")
	}
}
