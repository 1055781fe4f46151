// Package diff computes per-backend package deltas between two declared
// states. It is pure: no I/O, and identical inputs always produce identical
// outputs.
package diff

// BackendDiff is the delta for one backend: what must be installed and what
// must be uninstalled to move from the previous state to the desired one.
// Both slices preserve declared ordering so rendered commands are
// deterministic.
type BackendDiff struct {
	Backend     string
	ToInstall   []string
	ToUninstall []string
}

// Empty reports whether the diff requires no action.
func (d BackendDiff) Empty() bool {
	return len(d.ToInstall) == 0 && len(d.ToUninstall) == 0
}

// Compute returns one BackendDiff per backend in the given order.
//
// ToInstall is desired minus previous, in desired order; ToUninstall is
// previous minus desired, in previous order. A backend absent from the
// previous state has an empty previous set (full install, no uninstall).
// Backends present only in the previous state are not visited at all:
// removing a backend from configuration deliberately does not uninstall its
// packages, that decision is left to the user.
func Compute(previous, desired map[string][]string, order []string) []BackendDiff {
	diffs := make([]BackendDiff, 0, len(order))
	for _, name := range order {
		diffs = append(diffs, BackendDiff{
			Backend:     name,
			ToInstall:   subtract(desired[name], previous[name]),
			ToUninstall: subtract(previous[name], desired[name]),
		})
	}
	return diffs
}

// subtract returns the elements of a not present in b, preserving a's order.
func subtract(a, b []string) []string {
	if len(a) == 0 {
		return nil
	}
	exclude := make(map[string]struct{}, len(b))
	for _, s := range b {
		exclude[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := exclude[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
