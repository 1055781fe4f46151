// Package backend defines the backend descriptor: the data-driven definition
// of one package manager (its command templates, capabilities, and declared
// package set). All backends share identical execution semantics; they differ
// only in this data.
package backend

import (
	"fmt"
	"strings"
)

// Placeholder is the token in a command template where package names are
// substituted. Example: "sudo apt-get install -y $".
const Placeholder = "$"

// Operation identifies one kind of package-manager invocation.
type Operation string

const (
	OpInstall   Operation = "install"
	OpUninstall Operation = "uninstall"
	OpUpdate    Operation = "update"
	OpUpgrade   Operation = "upgrade"
)

// Descriptor describes one package manager. Install and Uninstall templates
// are mandatory; Update and Upgrade are optional and an absent template means
// the operation is unsupported for this backend.
type Descriptor struct {
	Name              string
	Update            string
	Upgrade           string
	Install           string
	Uninstall         string
	SupportsMultiArgs bool
	Packages          []string
}

// Command is a single rendered invocation for one backend operation.
// Argv[0] is the program, the rest are its arguments.
type Command struct {
	Backend   string
	Operation Operation
	Packages  []string
	Argv      []string
}

// String returns the command as a shell-style line, for display only.
func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// ConfigError reports a malformed backend descriptor. It is fatal and
// surfaced before any command execution.
type ConfigError struct {
	Backend string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Backend == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config: backend %s: %s", e.Backend, e.Reason)
}

// Validate checks the descriptor invariants: mandatory install/uninstall
// templates, the placeholder present in templates that take package
// arguments, and no duplicate package names.
func (d *Descriptor) Validate() error {
	if strings.TrimSpace(d.Install) == "" {
		return &ConfigError{Backend: d.Name, Reason: "missing install template"}
	}
	if strings.TrimSpace(d.Uninstall) == "" {
		return &ConfigError{Backend: d.Name, Reason: "missing uninstall template"}
	}
	if !strings.Contains(d.Install, Placeholder) {
		return &ConfigError{Backend: d.Name, Reason: fmt.Sprintf("install template has no %q placeholder", Placeholder)}
	}
	if !strings.Contains(d.Uninstall, Placeholder) {
		return &ConfigError{Backend: d.Name, Reason: fmt.Sprintf("uninstall template has no %q placeholder", Placeholder)}
	}

	seen := make(map[string]struct{}, len(d.Packages))
	for _, pkg := range d.Packages {
		if _, dup := seen[pkg]; dup {
			return &ConfigError{Backend: d.Name, Reason: fmt.Sprintf("duplicate package %q", pkg)}
		}
		seen[pkg] = struct{}{}
	}
	return nil
}

// Render turns an operation plus a package-name list into zero or more
// commands.
//
// For install/uninstall: with multi-arg support, one command carries all
// names joined by single spaces at the placeholder, preserving input order;
// without it, one command is emitted per name. An empty list renders no
// commands and is not an error.
//
// For update/upgrade: the package list is ignored; an absent template
// renders no commands, meaning "not applicable" rather than failure.
func (d *Descriptor) Render(op Operation, pkgs []string) ([]Command, error) {
	switch op {
	case OpUpdate, OpUpgrade:
		tmpl := d.Update
		if op == OpUpgrade {
			tmpl = d.Upgrade
		}
		if strings.TrimSpace(tmpl) == "" {
			return nil, nil
		}
		return []Command{{
			Backend:   d.Name,
			Operation: op,
			Argv:      strings.Fields(tmpl),
		}}, nil

	case OpInstall, OpUninstall:
		tmpl := d.Install
		if op == OpUninstall {
			tmpl = d.Uninstall
		}
		if len(pkgs) == 0 {
			return nil, nil
		}
		if d.SupportsMultiArgs {
			line := strings.Replace(tmpl, Placeholder, strings.Join(pkgs, " "), 1)
			return []Command{{
				Backend:   d.Name,
				Operation: op,
				Packages:  append([]string(nil), pkgs...),
				Argv:      strings.Fields(line),
			}}, nil
		}
		cmds := make([]Command, 0, len(pkgs))
		for _, pkg := range pkgs {
			line := strings.Replace(tmpl, Placeholder, pkg, 1)
			cmds = append(cmds, Command{
				Backend:   d.Name,
				Operation: op,
				Packages:  []string{pkg},
				Argv:      strings.Fields(line),
			})
		}
		return cmds, nil

	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}
