package executor

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// FakeCommand is a function that simulates a command execution.
// It receives the command arguments, stdin, stdout, stderr and should return an exit code.
// The context is cancelled when the process should be killed.
type FakeCommand func(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) int

// Call records a single Start invocation on a FakeExecutor.
type Call struct {
	Args []string
	Env  []string
}

// FakeExecutor is a test implementation of Executor that runs registered fake commands.
type FakeExecutor struct {
	mu       sync.RWMutex
	commands map[string]FakeCommand
	calls    []Call
}

// NewFakeExecutor creates a new FakeExecutor.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{
		commands: make(map[string]FakeCommand),
	}
}

// RegisterCommand registers a fake command implementation.
// The name should match the first element of the command slice.
func (e *FakeExecutor) RegisterCommand(name string, handler FakeCommand) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands[name] = handler
}

// Calls returns a copy of every Start invocation seen so far.
func (e *FakeExecutor) Calls() []Call {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Call, len(e.calls))
	copy(out, e.calls)
	return out
}

// fakeProcess implements Process for FakeExecutor.
type fakeProcess struct {
	cancel   context.CancelFunc
	done     chan struct{}
	exitCode int
	mu       sync.Mutex
}

func (p *fakeProcess) Wait() (int, error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, nil
}

func (p *fakeProcess) Kill() error {
	p.cancel()
	return nil
}

// Start implements Executor.Start for FakeExecutor.
func (e *FakeExecutor) Start(cmdArgs []string, env []string, stdin io.Reader, stdout, stderr io.Writer) (Process, error) {
	if len(cmdArgs) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	e.mu.Lock()
	handler, ok := e.commands[cmdArgs[0]]
	if ok {
		e.calls = append(e.calls, Call{
			Args: append([]string(nil), cmdArgs...),
			Env:  append([]string(nil), env...),
		})
	}
	e.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("executable %q not found", cmdArgs[0])
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	proc := &fakeProcess{
		cancel: cancel,
		done:   done,
	}

	go func() {
		exitCode := handler(ctx, stdin, stdout, stderr, cmdArgs)
		proc.mu.Lock()
		proc.exitCode = exitCode
		proc.mu.Unlock()
		close(done)
	}()

	return proc, nil
}
