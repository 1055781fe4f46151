// Package reconcile drives the switch/rollback/update pipeline: it loads the
// previous generation, diffs it against the desired state, executes the
// resulting commands backend by backend, and commits a new generation on
// success.
//
// Execution is strictly sequential. Package managers commonly hold exclusive
// locks on system package databases, so backends run one at a time in their
// declared order, and commands within a backend run one at a time. A failing
// command halts the run: earlier backends stay applied, later backends are
// never touched, and no automatic compensation is attempted.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/MoAlyousef/dpm/internal/backend"
	"github.com/MoAlyousef/dpm/internal/diff"
	"github.com/MoAlyousef/dpm/internal/store"
)

// ErrInvalidTarget is returned when update/upgrade is invoked without a
// configured backend name or the literal "all".
var ErrInvalidTarget = errors.New("target must be a configured backend name or 'all'")

// Runner executes one rendered command to completion.
type Runner interface {
	Run(ctx context.Context, cmd backend.Command) error
}

// Reconciler orchestrates diffing, command execution, and generation
// commits for one switch or rollback call. It holds owned snapshots only;
// construct one per operation.
type Reconciler struct {
	store  *store.Store
	runner Runner
	log    zerolog.Logger
	dryRun bool
}

// New creates a Reconciler. In dry-run mode commands are rendered and
// reported but never executed, and no generation is committed.
func New(st *store.Store, runner Runner, log zerolog.Logger, dryRun bool) *Reconciler {
	return &Reconciler{store: st, runner: runner, log: log, dryRun: dryRun}
}

// SwitchOptions augments a switch run. Update runs each backend's update
// command before its uninstalls; Upgrade runs its upgrade command after its
// installs. Backends without the corresponding template are skipped.
type SwitchOptions struct {
	Update  bool
	Upgrade bool
}

// Switch reconciles the live state toward the declared configuration and
// commits a new generation when anything changed. The previous state comes
// from the latest stored generation; an empty store behaves as an empty
// previous state, so the first switch installs everything declared.
func (r *Reconciler) Switch(ctx context.Context, backends []backend.Descriptor, opts SwitchOptions) (*Report, error) {
	prev, err := r.loadPrevious()
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(backends))
	desired := make(map[string][]string, len(backends))
	for _, d := range backends {
		order = append(order, d.Name)
		desired[d.Name] = d.Packages
	}
	r.warnRemovedBackends(prev, desired)

	return r.apply(ctx, backends, prev, desired, order, opts)
}

// loadPrevious returns the latest generation's state, or an empty state when
// the store has no generations yet.
func (r *Reconciler) loadPrevious() (map[string][]string, error) {
	latest, err := r.store.Latest()
	if err != nil && !errors.Is(err, store.ErrNotInitialized) {
		return nil, fmt.Errorf("failed to load latest generation: %w", err)
	}
	if latest == nil {
		r.log.Debug().Msg("no previous generation, starting from empty state")
		return map[string][]string{}, nil
	}
	r.log.Debug().Int64("sequence", latest.Sequence).Msg("loaded previous generation")
	return latest.State, nil
}

// warnRemovedBackends flags backends that were tracked by the previous
// generation but are gone from configuration. Their packages are left
// installed: removing a backend never uninstalls anything implicitly.
func (r *Reconciler) warnRemovedBackends(prev, desired map[string][]string) {
	for name, pkgs := range prev {
		if _, ok := desired[name]; !ok && len(pkgs) > 0 {
			r.log.Warn().
				Str("backend", name).
				Int("packages", len(pkgs)).
				Msg("backend removed from config; its packages remain installed")
		}
	}
}

// apply is the shared pipeline behind Switch and Rollback: diff, execute in
// order, commit. desired/order describe the target state; prev is the state
// being moved away from.
func (r *Reconciler) apply(ctx context.Context, backends []backend.Descriptor, prev, desired map[string][]string, order []string, opts SwitchOptions) (*Report, error) {
	byName := make(map[string]*backend.Descriptor, len(backends))
	for i := range backends {
		byName[backends[i].Name] = &backends[i]
	}

	diffs := diff.Compute(prev, desired, order)

	report := &Report{DryRun: r.dryRun}
	changed := false

	for _, d := range diffs {
		desc, ok := byName[d.Backend]
		if !ok {
			// Historical backend with no current descriptor: nothing can be
			// rendered for it, but its entry stays in the order so a commit
			// still records its packages.
			report.Backends = append(report.Backends, BackendResult{
				Backend: d.Backend,
				Skipped: "no configured backend",
			})
			r.log.Warn().Str("backend", d.Backend).Msg("skipping backend with no configuration")
			continue
		}

		result := BackendResult{Backend: d.Backend}
		cmds, err := r.renderBackend(desc, d, opts)
		if err != nil {
			return nil, err
		}
		result.Commands = cmds

		if d.Empty() && len(cmds) == 0 {
			r.log.Info().Str("backend", d.Backend).Msg("nothing to resolve")
			report.Backends = append(report.Backends, result)
			continue
		}
		changed = changed || !d.Empty()

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

	if r.dryRun {
		return report, nil
	}
	if !changed {
		report.NoOp = true
		return report, nil
	}

	gen, err := r.store.Append(order, desired)
	if err != nil {
		// State already changed on the system; history missed it. Surface
		// loudly instead of swallowing.
		report.HistoryDrift = true
		r.log.Error().Err(err).Msg("system state changed but generation was not recorded")
		return report, fmt.Errorf("failed to record generation after applying changes: %w", err)
	}
	report.CommittedSequence = gen.Sequence
	r.log.Info().Int64("sequence", gen.Sequence).Msg("committed generation")
	return report, nil
}

// renderBackend renders every command one backend needs for its diff, in
// fixed order: update, uninstalls, installs, upgrade. Uninstall-before-
// install frees conflicting names before anything is reinstalled.
func (r *Reconciler) renderBackend(desc *backend.Descriptor, d diff.BackendDiff, opts SwitchOptions) ([]backend.Command, error) {
	var cmds []backend.Command

	if opts.Update {
		update, err := desc.Render(backend.OpUpdate, nil)
		if err != nil {
			return nil, err
		}
		if len(update) == 0 {
			r.log.Debug().Str("backend", desc.Name).Msg("no update template, skipping update")
		}
		cmds = append(cmds, update...)
	}

	uninstalls, err := desc.Render(backend.OpUninstall, d.ToUninstall)
	if err != nil {
		return nil, err
	}
	cmds = append(cmds, uninstalls...)

	installs, err := desc.Render(backend.OpInstall, d.ToInstall)
	if err != nil {
		return nil, err
	}
	cmds = append(cmds, installs...)

	if opts.Upgrade {
		upgrade, err := desc.Render(backend.OpUpgrade, nil)
		if err != nil {
			return nil, err
		}
		if len(upgrade) == 0 {
			r.log.Debug().Str("backend", desc.Name).Msg("no upgrade template, skipping upgrade")
		}
		cmds = append(cmds, upgrade...)
	}

	return cmds, nil
}

// runCommands executes rendered commands sequentially, halting on the first
// failure.
func (r *Reconciler) runCommands(ctx context.Context, cmds []backend.Command) error {
	for _, cmd := range cmds {
		r.log.Info().
			Str("backend", cmd.Backend).
			Str("operation", string(cmd.Operation)).
			Str("command", cmd.String()).
			Msg("running")
		if err := r.runner.Run(ctx, cmd); err != nil {
			r.log.Error().
				Str("backend", cmd.Backend).
				Str("operation", string(cmd.Operation)).
				Err(err).
				Msg("command failed, halting remaining backends")
			return err
		}
	}
	return nil
}
