package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/revguard/internal/config"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config files")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap revguard configuration",
	Long: `Creates the config directory, a default config.yaml, and the inbox
directory watched by: revguard watch.

Writes to ~/.revguard/ unless --config points elsewhere.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	var created []string

	if wrote, err := writeIfMissing(path, config.DefaultConfigYAML()); err != nil {
		return err
	} else if wrote {
		created = append(created, path)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.InboxPath, 0o755); err != nil {
		return fmt.Errorf("create inbox directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LedgerPath), 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	fmt.Println("revguard init complete.")
	fmt.Println()
	if len(created) > 0 {
		fmt.Println("Created:")
		for _, p := range created {
			fmt.Printf("  %s\n", p)
		}
	} else {
		fmt.Println("All files already exist (use --force to overwrite).")
	}
	fmt.Println()
	fmt.Println("Next:")
	fmt.Printf("  revguard watch              # apply batches dropped into %s\n", cfg.InboxPath)
	fmt.Printf("  revguard audit verify %s\n", cfg.AuditPath)

	return nil
}

// writeIfMissing writes content to path if it doesn't exist or --force is set.
// Returns true if the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
