// Package config loads the declarative configuration: dpm.toml names the
// active package managers in processing order, and each manager has its own
// <name>.toml descriptor file alongside it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/MoAlyousef/dpm/internal/backend"
)

// MainFile is the top-level config file naming the active managers.
const MainFile = "dpm.toml"

// Config is the fully loaded and validated declarative configuration.
// Backends are in declared processing order.
type Config struct {
	Backends []backend.Descriptor
}

// Order returns the backend names in declared order.
func (c *Config) Order() []string {
	names := make([]string, 0, len(c.Backends))
	for _, d := range c.Backends {
		names = append(names, d.Name)
	}
	return names
}

// mainConfig mirrors dpm.toml.
type mainConfig struct {
	Managers []string `toml:"managers"`
}

// managerConfig mirrors one <name>.toml descriptor file.
// supports_multi_args is a pointer so that an absent key defaults to true.
type managerConfig struct {
	Update            string   `toml:"update"`
	Upgrade           string   `toml:"upgrade"`
	Install           string   `toml:"install"`
	Uninstall         string   `toml:"uninstall"`
	SupportsMultiArgs *bool    `toml:"supports_multi_args"`
	Packages          []string `toml:"packages"`
}

// Load reads dpm.toml from dir, then one descriptor file per listed manager,
// validating each. Any malformed descriptor fails the whole load with a
// *backend.ConfigError before a single command can run.
func Load(dir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, MainFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", MainFile, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, &backend.ConfigError{Reason: fmt.Sprintf("%s is empty", MainFile)}
	}

	var main mainConfig
	if err := toml.Unmarshal(data, &main); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", MainFile, err)
	}
	if len(main.Managers) == 0 {
		return nil, &backend.ConfigError{Reason: fmt.Sprintf("%s declares no managers", MainFile)}
	}

	seen := make(map[string]struct{}, len(main.Managers))
	cfg := &Config{Backends: make([]backend.Descriptor, 0, len(main.Managers))}
	for _, name := range main.Managers {
		if _, dup := seen[name]; dup {
			return nil, &backend.ConfigError{Backend: name, Reason: "listed twice in managers"}
		}
		seen[name] = struct{}{}

		desc, err := loadManager(dir, name)
		if err != nil {
			return nil, err
		}
		cfg.Backends = append(cfg.Backends, *desc)
	}
	return cfg, nil
}

// loadManager reads and validates a single backend descriptor file.
func loadManager(dir, name string) (*backend.Descriptor, error) {
	path := filepath.Join(dir, name+".toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor for %s: %w", name, err)
	}

	var mc managerConfig
	if err := toml.Unmarshal(data, &mc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	multi := true
	if mc.SupportsMultiArgs != nil {
		multi = *mc.SupportsMultiArgs
	}

	desc := &backend.Descriptor{
		Name:              name,
		Update:            mc.Update,
		Upgrade:           mc.Upgrade,
		Install:           mc.Install,
		Uninstall:         mc.Uninstall,
		SupportsMultiArgs: multi,
		Packages:          mc.Packages,
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return desc, nil
}
