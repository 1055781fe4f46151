package execute

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MoAlyousef/dpm/internal/backend"
)

func TestExecRunner_Success(t *testing.T) {
	r := ExecRunner{}
	cmd := backend.Command{
		Backend:   "apt",
		Operation: backend.OpUpdate,
		Argv:      []string{"true"},
	}
	if err := r.Run(context.Background(), cmd); err != nil {
		t.Errorf("Run() failed for a zero-exit command: %v", err)
	}
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	r := ExecRunner{}
	cmd := backend.Command{
		Backend:   "apt",
		Operation: backend.OpInstall,
		Packages:  []string{"jq"},
		Argv:      []string{"sh", "-c", "echo boom >&2; exit 3"},
	}

	err := r.Run(context.Background(), cmd)
	if err == nil {
		t.Fatal("Run() should fail for a non-zero exit")
	}

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error = %v; want *ExecutionError", err)
	}
	if execErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d; want 3", execErr.ExitCode)
	}
	if execErr.Backend != "apt" || execErr.Operation != backend.OpInstall {
		t.Errorf("error context = %s/%s; want apt/install", execErr.Backend, execErr.Operation)
	}
	if !strings.Contains(execErr.Output, "boom") {
		t.Errorf("Output = %q; want captured stderr", execErr.Output)
	}
}

func TestExecRunner_EmptyCommand(t *testing.T) {
	r := ExecRunner{}
	if err := r.Run(context.Background(), backend.Command{Backend: "apt"}); err == nil {
		t.Error("Run() should reject an empty argv")
	}
}

func TestExecutionError_Message(t *testing.T) {
	err := &ExecutionError{
		Backend:   "apt",
		Operation: backend.OpUninstall,
		Packages:  []string{"jq", "vim"},
		ExitCode:  1,
		Output:    "E: could not get lock",
	}

	msg := err.Error()
	for _, want := range []string{"apt", "uninstall", "jq", "vim", "exit 1", "could not get lock"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q; should mention %q", msg, want)
		}
	}
}

func TestRecordingRunner(t *testing.T) {
	r := &RecordingRunner{}
	cmds := []backend.Command{
		{Backend: "apt", Operation: backend.OpInstall, Argv: []string{"apt", "install", "jq"}},
		{Backend: "brew", Operation: backend.OpUninstall, Argv: []string{"brew", "uninstall", "fd"}},
	}
	for _, cmd := range cmds {
		if err := r.Run(context.Background(), cmd); err != nil {
			t.Fatalf("Run() failed: %v", err)
		}
	}

	recorded := r.Recorded()
	if len(recorded) != 2 {
		t.Fatalf("Recorded() = %d commands; want 2", len(recorded))
	}
	if recorded[0].Backend != "apt" || recorded[1].Backend != "brew" {
		t.Errorf("recorded order = %s, %s; want apt, brew", recorded[0].Backend, recorded[1].Backend)
	}
}
