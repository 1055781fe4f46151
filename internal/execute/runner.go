// Package execute runs rendered backend commands as local subprocesses.
package execute

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/MoAlyousef/dpm/internal/backend"
)

// ExecutionError reports a command that exited non-zero, with enough context
// (backend, operation, package names, captured output) for the user to
// intervene manually and re-run.
type ExecutionError struct {
	Backend   string
	Operation backend.Operation
	Packages  []string
	ExitCode  int
	Output    string
	Err       error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Backend, e.Operation)
	if len(e.Packages) > 0 {
		msg += " for " + strings.Join(e.Packages, ", ")
	}
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Runner executes one rendered command to completion.
type Runner interface {
	Run(ctx context.Context, cmd backend.Command) error
}

// ExecRunner runs commands via os/exec, blocking until each completes.
// Output is captured and attached to the error on failure.
type ExecRunner struct{}

// Run executes the command and waits for it. A non-zero exit is returned as
// an *ExecutionError.
func (ExecRunner) Run(ctx context.Context, cmd backend.Command) error {
	if len(cmd.Argv) == 0 {
		return fmt.Errorf("%s %s: empty command", cmd.Backend, cmd.Operation)
	}

	c := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	output, err := c.CombinedOutput()
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return &ExecutionError{
			Backend:   cmd.Backend,
			Operation: cmd.Operation,
			Packages:  cmd.Packages,
			ExitCode:  exitCode,
			Output:    string(output),
			Err:       err,
		}
	}
	return nil
}

// RecordingRunner captures commands without executing anything. It backs
// dry-run mode and tests.
type RecordingRunner struct {
	mu       sync.Mutex
	Commands []backend.Command
}

// Run records the command and always succeeds.
func (r *RecordingRunner) Run(_ context.Context, cmd backend.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commands = append(r.Commands, cmd)
	return nil
}

// Recorded returns a copy of the commands seen so far.
func (r *RecordingRunner) Recorded() []backend.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]backend.Command(nil), r.Commands...)
}
