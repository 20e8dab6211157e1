// Package config holds the on-disk configuration: ledger and audit paths,
// the inbox directory for batch files, and the guard toggles.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/revguard/internal/boundary"
)

// GuardSettings mirrors the boundary guarding knobs: a global enable switch
// and per-visibility decoration flags.
type GuardSettings struct {
	Enabled           bool `yaml:"enabled"`
	DecoratePublic    bool `yaml:"decorate_public_methods"`
	DecorateNonPublic bool `yaml:"decorate_private_methods"`
}

// Config holds all configurable parameters.
type Config struct {
	LedgerPath string        `yaml:"ledger_path"`
	AuditPath  string        `yaml:"audit_path"`
	InboxPath  string        `yaml:"inbox_path"`
	Guard      GuardSettings `yaml:"guard"`
}

// DefaultConfig returns the built-in configuration rooted at ~/.revguard.
func DefaultConfig() *Config {
	base := "."
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".revguard")
	}
	return &Config{
		LedgerPath: filepath.Join(base, "ledger.db"),
		AuditPath:  filepath.Join(base, "audit.jsonl"),
		InboxPath:  filepath.Join(base, "inbox"),
		Guard: GuardSettings{
			Enabled:           true,
			DecoratePublic:    true,
			DecorateNonPublic: true,
		},
	}
}

// DefaultPath is the config file location used when no path is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".revguard", "config.yaml")
}

// LoadConfig loads configuration from a YAML file. Empty path falls back to
// ~/.revguard/config.yaml. Missing file returns defaults. Invalid YAML
// returns an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Write renders the config as YAML at path, creating parent directories.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Apply pushes the guard settings into the process-wide boundary policy:
// the global enable switch and the per-visibility decoration flags.
func (g GuardSettings) Apply() {
	boundary.SetEnabled(g.Enabled)
	boundary.SetDecoration(g.DecoratePublic, g.DecorateNonPublic)
}

// DefaultConfigYAML returns a commented YAML string for init.
func DefaultConfigYAML() string {
	cfg := DefaultConfig()
	return fmt.Sprintf(`# revguard configuration
# Generated by: revguard init

# SQLite ledger holding committed revisions and their edit journals.
ledger_path: %s

# Hash-chained JSONL audit trail. Verify with: revguard audit verify
audit_path: %s

# Directory watched by: revguard watch
# Drop YAML batch files here to apply edits.
inbox_path: %s

# Call boundary guarding.
#   enabled: global switch; off disables rejection and checks entirely
#   decorate_private_methods: run guards on non-public operations
#   decorate_public_methods: run guards on public operations too
guard:
  enabled: true
  decorate_private_methods: true
  decorate_public_methods: true
`, cfg.LedgerPath, cfg.AuditPath, cfg.InboxPath)
}
