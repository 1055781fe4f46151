// Package output renders generation history and reconcile reports for the
// terminal. All rendering uses ASCII layout plus ANSI color codes, gated by
// TTY detection and NO_COLOR.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/MoAlyousef/dpm/internal/reconcile"
	"github.com/MoAlyousef/dpm/internal/store"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(color, s string) string {
	if !IsColorEnabled() {
		return s
	}
	return color + s + colorReset
}

// RenderGenerationTable renders the generation history, oldest first, with
// the current generation marked.
func RenderGenerationTable(gens []*store.Generation) string {
	if len(gens) == 0 {
		return "No generations recorded yet. Run 'dpm switch' to create one.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-12s %-21s %-15s %-10s %s\n", "Generation", "Created", "Age", "Packages", "Backends"))
	sb.WriteString(strings.Repeat("─", 78))
	sb.WriteString("\n")

	current := gens[len(gens)-1].Sequence
	for _, gen := range gens {
		label := fmt.Sprintf("%d", gen.Sequence)
		if gen.Sequence == current {
			label = colorize(colorGreen, label+" (current)")
		}
		sb.WriteString(fmt.Sprintf("%-12s %-21s %-15s %-10d %s\n",
			label,
			gen.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			FormatAge(gen.CreatedAt),
			gen.PackageCount(),
			summarizeBackends(gen),
		))
	}
	return sb.String()
}

// summarizeBackends returns "apt(12) brew(3)" style per-backend counts in
// the generation's declared order.
func summarizeBackends(gen *store.Generation) string {
	parts := make([]string, 0, len(gen.Backends))
	for _, name := range gen.Backends {
		parts = append(parts, fmt.Sprintf("%s(%d)", name, len(gen.State[name])))
	}
	return strings.Join(parts, " ")
}

// RenderReport renders the outcome of a switch, rollback, or update run:
// every command planned or executed per backend, failures, and warnings.
func RenderReport(report *reconcile.Report) string {
	var sb strings.Builder

	verb := "ran"
	if report.DryRun {
		verb = "would run"
		sb.WriteString(colorize(colorYellow, "Dry run, nothing was executed.\n"))
	}

	for _, b := range report.Backends {
		if b.Skipped != "" {
			sb.WriteString(fmt.Sprintf("%s: %s\n", b.Backend, colorize(colorGray, "skipped: "+b.Skipped)))
			continue
		}
		if len(b.Commands) == 0 {
			sb.WriteString(fmt.Sprintf("%s: nothing to resolve\n", b.Backend))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s (%s %d command(s)):\n", b.Backend, verb, len(b.Commands)))
		for _, cmd := range b.Commands {
			sb.WriteString(fmt.Sprintf("  [%s] %s\n", cmd.Operation, cmd.String()))
		}
		if b.Err != nil {
			sb.WriteString(colorize(colorRed, fmt.Sprintf("  failed: %v\n", b.Err)))
		}
	}

	if failed := report.Failed(); failed != nil {
		sb.WriteString(colorize(colorRed,
			fmt.Sprintf("Halted at backend %s; earlier backends are applied, later ones untouched.\n", failed.Backend)))
	}
	if report.HistoryDrift {
		sb.WriteString(colorize(colorRed,
			"WARNING: commands were applied but the generation was NOT recorded.\n"+
				"History and system state have drifted; re-run 'dpm switch' once the store is writable.\n"))
	}
	if report.NoOp && !report.DryRun {
		sb.WriteString("Already up to date, no generation recorded.\n")
	}
	if report.CommittedSequence > 0 {
		sb.WriteString(colorize(colorGreen,
			fmt.Sprintf("Committed generation %d.\n", report.CommittedSequence)))
	}
	return sb.String()
}

// FormatAge renders a timestamp as a relative age for display.
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "month")
	default:
		return plural(int(diff.Hours()/24/365), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
