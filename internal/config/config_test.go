package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/MoAlyousef/dpm/internal/backend"
)

// writeConfig lays out a config directory from file name to TOML content.
func writeConfig(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

const aptToml = `
update = "sudo apt-get update"
upgrade = "sudo apt-get upgrade -y"
install = "sudo apt-get install -y $"
uninstall = "sudo apt-get remove -y $"
packages = ["jq", "vim"]
`

func TestLoad_OK(t *testing.T) {
	dir := writeConfig(t, map[string]string{
		"dpm.toml": `managers = ["apt", "brew"]`,
		"apt.toml": aptToml,
		"brew.toml": `
install = "brew install $"
uninstall = "brew uninstall $"
supports_multi_args = false
packages = ["ripgrep"]
`,
	})

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if !reflect.DeepEqual(cfg.Order(), []string{"apt", "brew"}) {
		t.Errorf("Order() = %v; want [apt brew]", cfg.Order())
	}

	apt := cfg.Backends[0]
	if apt.Name != "apt" {
		t.Errorf("backend name = %q; want apt (derived from file name)", apt.Name)
	}
	if !apt.SupportsMultiArgs {
		t.Error("supports_multi_args should default to true when absent")
	}
	if !reflect.DeepEqual(apt.Packages, []string{"jq", "vim"}) {
		t.Errorf("apt packages = %v; want [jq vim]", apt.Packages)
	}

	brew := cfg.Backends[1]
	if brew.SupportsMultiArgs {
		t.Error("brew supports_multi_args = true; want explicit false honored")
	}
	if brew.Update != "" {
		t.Errorf("brew update template = %q; want empty (unsupported)", brew.Update)
	}
}

func TestLoad_MissingMainFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load() should fail without dpm.toml")
	}
}

func TestLoad_EmptyMainFile(t *testing.T) {
	dir := writeConfig(t, map[string]string{"dpm.toml": "  \n"})

	_, err := Load(dir)
	if err == nil {
		t.Fatal("Load() should fail on an empty dpm.toml")
	}
	var cfgErr *backend.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("error = %v; want *backend.ConfigError", err)
	}
}

func TestLoad_NoManagers(t *testing.T) {
	dir := writeConfig(t, map[string]string{"dpm.toml": `managers = []`})
	if _, err := Load(dir); err == nil {
		t.Error("Load() should fail when no managers are declared")
	}
}

func TestLoad_ManagerListedTwice(t *testing.T) {
	dir := writeConfig(t, map[string]string{
		"dpm.toml": `managers = ["apt", "apt"]`,
		"apt.toml": aptToml,
	})
	if _, err := Load(dir); err == nil {
		t.Error("Load() should reject a manager listed twice")
	}
}

func TestLoad_MissingDescriptorFile(t *testing.T) {
	dir := writeConfig(t, map[string]string{"dpm.toml": `managers = ["apt"]`})
	if _, err := Load(dir); err == nil {
		t.Error("Load() should fail when a listed manager has no descriptor file")
	}
}

func TestLoad_InvalidDescriptorFailsBeforeAnyExecution(t *testing.T) {
	dir := writeConfig(t, map[string]string{
		"dpm.toml": `managers = ["apt"]`,
		// install template lacks the "$" placeholder
		"apt.toml": `
install = "sudo apt-get install -y"
uninstall = "sudo apt-get remove -y $"
`,
	})

	_, err := Load(dir)
	if err == nil {
		t.Fatal("Load() should fail on an invalid descriptor")
	}
	var cfgErr *backend.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v; want *backend.ConfigError", err)
	}
	if cfgErr.Backend != "apt" {
		t.Errorf("ConfigError.Backend = %q; want apt", cfgErr.Backend)
	}
}

func TestLoad_DuplicatePackages(t *testing.T) {
	dir := writeConfig(t, map[string]string{
		"dpm.toml": `managers = ["apt"]`,
		"apt.toml": `
install = "sudo apt-get install -y $"
uninstall = "sudo apt-get remove -y $"
packages = ["jq", "jq"]
`,
	})
	if _, err := Load(dir); err == nil {
		t.Error("Load() should reject duplicate package names")
	}
}

func TestDir_RespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() failed: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-test", "dpm") {
		t.Errorf("Dir() = %q; want /tmp/xdg-test/dpm", dir)
	}
}

func TestStateDir_RespectsXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_STATE_HOME", base)

	dir, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir() failed: %v", err)
	}
	if dir != filepath.Join(base, "dpm") {
		t.Errorf("StateDir() = %q; want %s/dpm", dir, base)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("StateDir() did not create the directory: %v", err)
	}
}
