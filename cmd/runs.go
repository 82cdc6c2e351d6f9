package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cinedex/cinedex/pkg/history"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent reconciliation runs (default 20)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		dataDir, err := resolveDataDir(cmd)
		if err != nil {
			return err
		}
		ledgerPath := filepath.Join(dataDir, "cinedex.sqlite")
		if _, err := os.Stat(ledgerPath); err != nil {
			return fmt.Errorf("run ledger not found: %s", ledgerPath)
		}

		ledger, err := history.Open(ledgerPath)
		if err != nil {
			return err
		}
		defer ledger.Close()

		runs, err := ledger.ListRecentRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			ts := r.FinishedAt.Format("2006-01-02 15:04:05")
			fmt.Printf("%s  %-6s  total=%d  new=%d  stale=%d  errors=%d  truncated=%t\n", ts, r.ItemType, r.Total, r.New, r.Stale, r.Errors, r.Truncated)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().Int("limit", 20, "Number of recent runs to show")
}
