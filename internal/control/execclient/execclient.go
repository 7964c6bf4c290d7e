// Package execclient reaches the daemon by spawning its client utility.
//
// Each call runs one child process:
//
//	<client> call <namespace.method>
//
// The child's stdout is discarded so the hook's own stdout stays clean for
// the init framework; stderr passes through. A non-zero child exit becomes
// the call's error.
package execclient

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/nasbsd/etchook/internal/control"
	"github.com/nasbsd/etchook/internal/executor"
)

func init() {
	control.Register(control.KindExec, open)
}

// Client implements control.ControlPlane over client-utility invocations.
type Client struct {
	clientPath string
	env        []string
	exec       executor.Executor
	stderr     io.Writer
}

var _ control.ControlPlane = (*Client)(nil)

func open(ctx context.Context, cfg control.Config) (control.ControlPlane, error) {
	if cfg.ClientPath == "" {
		return nil, fmt.Errorf("client utility path is empty")
	}
	return &Client{
		clientPath: cfg.ClientPath,
		env:        cfg.Env,
		exec:       cfg.Executor,
		stderr:     cfg.Stderr,
	}, nil
}

// Call implements control.ControlPlane.Call.
func (c *Client) Call(ctx context.Context, method control.Method) error {
	argv := []string{c.clientPath, "call", method.String()}

	proc, err := c.exec.Start(argv, c.env, nil, io.Discard, c.stderr)
	if err != nil {
		return fmt.Errorf("spawning %s: %w", filepath.Base(c.clientPath), err)
	}

	code, err := c.wait(ctx, proc)
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", filepath.Base(c.clientPath), err)
	}
	if code != 0 {
		return fmt.Errorf("%s: %s exited with status %d", method, filepath.Base(c.clientPath), code)
	}
	return nil
}

// Ping implements control.ControlPlane.Ping.
func (c *Client) Ping(ctx context.Context) error {
	return c.Call(ctx, control.MethodPing)
}

func (c *Client) Close() error {
	return nil
}

// wait blocks until the child exits or ctx is cancelled; cancellation kills
// the child and waits for it to be reaped.
func (c *Client) wait(ctx context.Context, proc executor.Process) (int, error) {
	type result struct {
		code int
		err  error
	}
	done := make(chan result, 1)
	go func() {
		code, err := proc.Wait()
		done <- result{code, err}
	}()

	select {
	case r := <-done:
		return r.code, r.err
	case <-ctx.Done():
		proc.Kill()
		<-done
		return 0, ctx.Err()
	}
}
