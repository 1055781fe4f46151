package reconcile

import (
	"context"
	"fmt"

	"github.com/MoAlyousef/dpm/internal/backend"
)

// TargetAll selects every configured backend for update/upgrade. It must be
// given explicitly; there is no implicit "all backends" default.
const TargetAll = "all"

// UpdateOrUpgrade runs the update or upgrade command of the targeted
// backend, or of every backend when target is "all". The target is validated
// before anything executes: an unknown name fails with ErrInvalidTarget and
// zero commands run.
//
// Backends without the requested template are logged and skipped; a missing
// template is "not applicable", never an error. No generation is committed:
// updating the package index or upgrading installed packages does not change
// the declared state.
func (r *Reconciler) UpdateOrUpgrade(ctx context.Context, backends []backend.Descriptor, target string, op backend.Operation) (*Report, error) {
	if op != backend.OpUpdate && op != backend.OpUpgrade {
		return nil, fmt.Errorf("operation %q is not update or upgrade", op)
	}

	selected, err := selectTargets(backends, target)
	if err != nil {
		return nil, err
	}

	report := &Report{DryRun: r.dryRun}
	for _, desc := range selected {
		result := BackendResult{Backend: desc.Name}

		cmds, err := desc.Render(op, nil)
		if err != nil {
			return nil, err
		}
		if len(cmds) == 0 {
			result.Skipped = fmt.Sprintf("no %s template", op)
			r.log.Info().Str("backend", desc.Name).Msgf("no %s template, skipping", op)
			report.Backends = append(report.Backends, result)
			continue
		}
		result.Commands = cmds

		if r.dryRun {
			report.Backends = append(report.Backends, result)
			continue
		}

		if err := r.runCommands(ctx, cmds); err != nil {
			result.Err = err
			report.Backends = append(report.Backends, result)
			return report, err
		}
		result.Executed = true
		report.Backends = append(report.Backends, result)
	}
	return report, nil
}

// selectTargets resolves the target argument against the configured
// backends, preserving declared order.
func selectTargets(backends []backend.Descriptor, target string) ([]backend.Descriptor, error) {
	if target == "" {
		return nil, fmt.Errorf("no target given: %w", ErrInvalidTarget)
	}
	if target == TargetAll {
		return backends, nil
	}
	for _, d := range backends {
		if d.Name == target {
			return []backend.Descriptor{d}, nil
		}
	}
	return nil, fmt.Errorf("unknown backend %q: %w", target, ErrInvalidTarget)
}
