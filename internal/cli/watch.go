package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/revguard/internal/audit"
	"github.com/ppiankov/revguard/internal/config"
	"github.com/ppiankov/revguard/internal/daemon"
	"github.com/ppiankov/revguard/internal/ledger"
	"github.com/ppiankov/revguard/internal/store"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the inbox and apply batch files",
	Long: `Loads the ledger, then watches the inbox directory for YAML batch
files and applies each one as a session: creations and edits commit together,
land in the SQLite ledger, and append to the audit trail. Failed batches are
renamed to .failed and left in place.

The config file is hot-reloaded; flipping guard.enabled takes effect without
a restart.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.Guard.Apply()

	if err := os.MkdirAll(cfg.InboxPath, 0o755); err != nil {
		return err
	}

	s, err := store.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer s.Close()

	a, err := audit.Open(cfg.AuditPath)
	if err != nil {
		return err
	}
	defer a.Close()

	m := ledger.New(ledger.Config{Store: s, Audit: a})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := m.Load(ctx)
	if err != nil {
		return err
	}
	logger.Info("ledger loaded", "entities", n, "inbox", cfg.InboxPath)

	// Batches apply one at a time; a second concurrent session would be
	// rejected and the batch spuriously marked failed.
	var applyMu sync.Mutex
	handler := func(path string) {
		applyMu.Lock()
		defer applyMu.Unlock()
		if err := applyBatchFile(ctx, m, path); err != nil {
			logger.Error("batch failed", "path", path, "error", err)
			if rerr := os.Rename(path, path+".failed"); rerr != nil {
				logger.Error("mark failed", "path", path, "error", rerr)
			}
			return
		}
		logger.Info("batch applied", "path", path)
		if err := os.Remove(path); err != nil {
			logger.Error("remove batch", "path", path, "error", err)
		}
	}

	if err := daemon.ScanExisting(cfg.InboxPath, handler); err != nil {
		return err
	}

	reloader, err := config.NewReloader([]string{configPathOrDefault()}, func() {
		next, err := config.LoadConfig(configPath)
		if err != nil {
			logger.Error("config reload failed", "error", err)
			return
		}
		next.Guard.Apply()
		logger.Info("config reloaded", "guard_enabled", next.Guard.Enabled)
	})
	if err != nil {
		return err
	}
	go func() {
		if err := reloader.Run(ctx); err != nil {
			logger.Error("config reloader stopped", "error", err)
		}
	}()

	logger.Info("watching inbox", "path", cfg.InboxPath)
	return daemon.NewInboxWatcher(cfg.InboxPath, handler).Run(ctx)
}

func applyBatchFile(ctx context.Context, m *ledger.Manager, path string) error {
	b, err := daemon.LoadBatch(path)
	if err != nil {
		return err
	}
	_, err = b.Apply(ctx, m)
	return err
}

func configPathOrDefault() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}
