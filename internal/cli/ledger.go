package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/revguard/internal/config"
	"github.com/ppiankov/revguard/internal/store"
)

var showVersion int

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerShowCmd)
	ledgerCmd.AddCommand(ledgerUIDsCmd)
	ledgerShowCmd.Flags().IntVar(&showVersion, "version", 0, "Show one version instead of the whole history")
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the revision ledger",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show <uid>",
	Short: "Show the stored revisions of an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerShow,
}

var ledgerUIDsCmd = &cobra.Command{
	Use:   "uids",
	Short: "List every entity in the ledger",
	Args:  cobra.NoArgs,
	RunE:  runLedgerUIDs,
}

func openStore() (*store.Store, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.LedgerPath)
}

func runLedgerShow(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := context.Background()
	uid := args[0]

	if showVersion > 0 {
		rev, edits, err := s.GetRevision(ctx, uid, showVersion)
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(map[string]any{"revision": rev, "edits": edits}, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	revs, err := s.ListRevisions(ctx, uid)
	if err != nil {
		return err
	}
	for _, rev := range revs {
		fields, _ := json.Marshal(rev.Fields)
		fmt.Printf("v%-4d %-20s %-16s %-24s %s\n",
			rev.Version, rev.CreatedAt.Format("2006-01-02 15:04:05"), rev.Actor, rev.Reason, fields)
	}
	return nil
}

func runLedgerUIDs(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	uids, err := s.ListUIDs(context.Background())
	if err != nil {
		return err
	}
	for _, uid := range uids {
		fmt.Println(uid)
	}
	return nil
}
