package store

import "time"

// Generation is one immutable snapshot of the full desired state across all
// backends at the moment it was committed. Backends preserves the declared
// processing order at snapshot time; State maps each backend name to its
// declared package list in declared order.
type Generation struct {
	Sequence  int64
	CreatedAt time.Time
	Backends  []string
	State     map[string][]string
}

// Packages returns the package list for one backend, nil if the backend was
// not part of this generation.
func (g *Generation) Packages(backend string) []string {
	return g.State[backend]
}

// PackageCount returns the total number of packages across all backends.
func (g *Generation) PackageCount() int {
	n := 0
	for _, pkgs := range g.State {
		n += len(pkgs)
	}
	return n
}
