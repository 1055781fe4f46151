package reconcile

import (
	"context"
	"fmt"

	"github.com/MoAlyousef/dpm/internal/backend"
	"github.com/MoAlyousef/dpm/internal/store"
)

// Rollback reconciles the system toward the state recorded by generation
// targetSeq. Pass 0 to target the generation before the current one.
//
// Rollback is a forward-recorded transition: on success a NEW generation is
// appended whose state copies the target's, so history stays append-only and
// rolling back repeatedly is safe. It shares the exact pipeline Switch uses;
// there is no separate undo path.
func (r *Reconciler) Rollback(ctx context.Context, backends []backend.Descriptor, targetSeq int64) (*Report, error) {
	latest, err := r.store.Latest()
	if err != nil {
		return nil, fmt.Errorf("failed to load latest generation: %w", err)
	}
	if latest == nil {
		return nil, fmt.Errorf("no generations recorded yet: %w", store.ErrNotFound)
	}

	if targetSeq == 0 {
		targetSeq = latest.Sequence - 1
		if targetSeq < 1 {
			return nil, fmt.Errorf("no generation before %d: %w", latest.Sequence, store.ErrNotFound)
		}
	}

	if targetSeq == latest.Sequence {
		r.log.Info().Int64("sequence", targetSeq).Msg("already at target generation")
		return &Report{DryRun: r.dryRun, NoOp: true}, nil
	}

	target, err := r.store.Get(targetSeq)
	if err != nil {
		return nil, err
	}

	r.log.Info().
		Int64("from", latest.Sequence).
		Int64("to", target.Sequence).
		Msg("rolling back")

	// The target's state is the desired state; the current generation is
	// what we are moving away from. Configured backends lead the processing
	// order. Backends the target recorded that are no longer configured
	// follow: no commands can be rendered for them, but their entries still
	// belong to the restored state, so the committed generation must carry
	// them.
	order := make([]string, 0, len(backends))
	configured := make(map[string]struct{}, len(backends))
	for _, d := range backends {
		order = append(order, d.Name)
		configured[d.Name] = struct{}{}
	}
	for _, name := range target.Backends {
		if _, ok := configured[name]; !ok {
			order = append(order, name)
		}
	}

	return r.apply(ctx, backends, latest.State, target.State, order, SwitchOptions{})
}
