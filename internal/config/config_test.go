package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/revguard/internal/boundary"
)

func TestDefaultConfigIsGuardedEverywhere(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Guard.Enabled || !cfg.Guard.DecorateNonPublic || !cfg.Guard.DecoratePublic {
		t.Errorf("defaults = %+v", cfg.Guard)
	}
	if cfg.LedgerPath == "" || cfg.AuditPath == "" || cfg.InboxPath == "" {
		t.Errorf("defaults missing paths: %+v", cfg)
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Guard.Enabled {
		t.Error("missing file should produce defaults")
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "ledger_path: /tmp/x.db\nguard:\n  enabled: false\n  decorate_private_methods: true\n"
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LedgerPath != "/tmp/x.db" {
		t.Errorf("ledger_path = %q", cfg.LedgerPath)
	}
	if cfg.Guard.Enabled {
		t.Error("guard.enabled should be overridden to false")
	}
	if cfg.AuditPath == "" {
		t.Error("unspecified fields should keep defaults")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("::::not yaml"), 0600)
	if _, err := LoadConfig(path); err == nil {
		t.Error("invalid YAML should fail")
	}
}

func TestWriteRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.LedgerPath = "/data/ledger.db"
	if err := cfg.Write(path); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.LedgerPath != "/data/ledger.db" {
		t.Errorf("ledger_path = %q", got.LedgerPath)
	}
}

func TestGuardSettingsApply(t *testing.T) {
	defer DefaultConfig().Guard.Apply()

	GuardSettings{Enabled: true, DecoratePublic: false, DecorateNonPublic: true}.Apply()
	if !boundary.Enabled() {
		t.Error("enabled not applied")
	}
	pub, nonPub := boundary.Decoration()
	if pub || !nonPub {
		t.Errorf("decoration = %v,%v, want false,true", pub, nonPub)
	}

	GuardSettings{Enabled: false}.Apply()
	if boundary.Enabled() {
		t.Error("disable not applied")
	}
}

func TestDefaultConfigYAMLParses(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(DefaultConfigYAML()), &cfg); err != nil {
		t.Fatalf("generated YAML should parse: %v", err)
	}
	if !cfg.Guard.Enabled || !strings.HasSuffix(cfg.AuditPath, "audit.jsonl") {
		t.Errorf("parsed = %+v", cfg)
	}
}

func TestReloaderFiresAfterDebounce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("guard:\n  enabled: true\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var fired atomic.Int32
	r, err := NewReloader([]string{path, ""}, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("new reloader: %v", err)
	}
	if len(r.Paths()) != 1 {
		t.Fatalf("watched = %v", r.Paths())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("guard:\n  enabled: false\n"), 0600); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for fired.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("onChange never fired")
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}
