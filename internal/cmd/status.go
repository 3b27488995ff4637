package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store table counts and last run metadata",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.DatabasePath); os.IsNotExist(err) {
		fmt.Printf("No database found at %s\n", cfg.DatabasePath)
		return nil
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	counts, err := store.Counts()
	if err != nil {
		return fmt.Errorf("failed to read table counts: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tROWS")
	for _, table := range []string{
		"keywords", "suggestions", "serp_metrics",
		"listing_metrics", "trend_metrics", "snapshots",
	} {
		fmt.Fprintf(w, "%s\t%d\n", table, counts[table])
	}
	_ = w.Flush()

	for _, key := range []string{"last_discover_run", "last_score_run"} {
		if value, err := store.GetMeta(key); err == nil && value != "" {
			fmt.Printf("%s: %s\n", key, value)
		}
	}

	return nil
}
