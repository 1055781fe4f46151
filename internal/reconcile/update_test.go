package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/MoAlyousef/dpm/internal/backend"
	"github.com/MoAlyousef/dpm/internal/execute"
)

func TestUpdateOrUpgrade_RequiresTarget(t *testing.T) {
	st := newTestStore(t)
	runner := &execute.RecordingRunner{}
	rec := New(st, runner, zerolog.Nop(), false)

	for _, target := range []string{"", "bogus"} {
		_, err := rec.UpdateOrUpgrade(context.Background(), []backend.Descriptor{aptBackend()}, target, backend.OpUpdate)
		if err == nil {
			t.Fatalf("UpdateOrUpgrade(%q) should fail", target)
		}
		if !errors.Is(err, ErrInvalidTarget) {
			t.Errorf("UpdateOrUpgrade(%q) error = %v; want errors.Is(err, ErrInvalidTarget)", target, err)
		}
	}

	if len(runner.Recorded()) != 0 {
		t.Errorf("invalid targets ran %d commands; want 0", len(runner.Recorded()))
	}
}

func TestUpdateOrUpgrade_SingleBackend(t *testing.T) {
	st := newTestStore(t)
	runner := &execute.RecordingRunner{}
	rec := New(st, runner, zerolog.Nop(), false)

	backends := []backend.Descriptor{aptBackend(), brewBackend()}
	_, err := rec.UpdateOrUpgrade(context.Background(), backends, "apt", backend.OpUpdate)
	if err != nil {
		t.Fatalf("UpdateOrUpgrade() failed: %v", err)
	}

	ran := runner.Recorded()
	if len(ran) != 1 {
		t.Fatalf("executed %d commands; want 1", len(ran))
	}
	if got, want := ran[0].String(), "sudo apt-get update"; got != want {
		t.Errorf("command = %q; want %q", got, want)
	}
}

func TestUpdateOrUpgrade_AllSkipsMissingTemplates(t *testing.T) {
	st := newTestStore(t)
	runner := &execute.RecordingRunner{}
	rec := New(st, runner, zerolog.Nop(), false)

	// brewBackend has no update template: it must be skipped, not fail.
	backends := []backend.Descriptor{aptBackend(), brewBackend()}
	report, err := rec.UpdateOrUpgrade(context.Background(), backends, TargetAll, backend.OpUpdate)
	if err != nil {
		t.Fatalf("UpdateOrUpgrade() failed: %v", err)
	}

	if len(runner.Recorded()) != 1 {
		t.Errorf("executed %d commands; want 1 (apt only)", len(runner.Recorded()))
	}
	if len(report.Backends) != 2 {
		t.Fatalf("report covers %d backends; want 2", len(report.Backends))
	}
	if report.Backends[1].Backend != "brew" || report.Backends[1].Skipped == "" {
		t.Errorf("brew result = %+v; want a skipped entry", report.Backends[1])
	}
}

func TestUpdateOrUpgrade_DryRun(t *testing.T) {
	st := newTestStore(t)
	runner := &execute.RecordingRunner{}
	rec := New(st, runner, zerolog.Nop(), true)

	report, err := rec.UpdateOrUpgrade(context.Background(), []backend.Descriptor{aptBackend()}, "apt", backend.OpUpgrade)
	if err != nil {
		t.Fatalf("UpdateOrUpgrade() failed: %v", err)
	}
	if len(runner.Recorded()) != 0 {
		t.Errorf("dry run invoked the runner %d times; want 0", len(runner.Recorded()))
	}
	if report.CommandCount() != 1 {
		t.Errorf("planned %d commands; want 1", report.CommandCount())
	}
}

func TestUpdateOrUpgrade_FailureHalts(t *testing.T) {
	st := newTestStore(t)
	runner := &failRunner{failOn: "apt-get update"}
	rec := New(st, runner, zerolog.Nop(), false)

	// apt fails; brew (which has no update template anyway) and anything
	// after must not run.
	backends := []backend.Descriptor{
		aptBackend(),
		{
			Name:              "pacman",
			Update:            "sudo pacman -Sy",
			Install:           "sudo pacman -S $",
			Uninstall:         "sudo pacman -R $",
			SupportsMultiArgs: true,
		},
	}
	report, err := rec.UpdateOrUpgrade(context.Background(), backends, TargetAll, backend.OpUpdate)
	if err == nil {
		t.Fatal("UpdateOrUpgrade() should fail when a command fails")
	}

	for _, cmd := range runner.ran {
		if cmd.Backend == "pacman" {
			t.Errorf("pacman command %q ran after the apt failure", cmd.String())
		}
	}
	if failed := report.Failed(); failed == nil || failed.Backend != "apt" {
		t.Errorf("report.Failed() = %+v; want apt", failed)
	}
}

func TestUpdateOrUpgrade_RejectsOtherOperations(t *testing.T) {
	st := newTestStore(t)
	rec := New(st, &execute.RecordingRunner{}, zerolog.Nop(), false)

	_, err := rec.UpdateOrUpgrade(context.Background(), []backend.Descriptor{aptBackend()}, TargetAll, backend.OpInstall)
	if err == nil {
		t.Error("UpdateOrUpgrade() should reject install/uninstall operations")
	}
}
