package cmd

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cinedex/cinedex/internal/utils"
	"github.com/cinedex/cinedex/pkg/dataset"
	"github.com/cinedex/cinedex/pkg/history"
	"github.com/cinedex/cinedex/pkg/reconcile"
	"github.com/cinedex/cinedex/pkg/tmdb"
)

// buildCmd implements: cinedex build
//
// Reconciles the movie dataset, then the series dataset, sequentially.
// The two runs share one time budget; when it expires the current run
// checkpoints, the remaining work is skipped, and the process still
// exits 0 so a scheduler can simply re-trigger later and resume.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Reconcile the daily TMDB exports into the enriched dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		token := viper.GetString("tmdb.token")
		if token == "" {
			return errors.New("missing TMDB access token: set TMDB_ACCESS_TOKEN or tmdb.token in the config file")
		}

		dataDir, err := resolveDataDir(cmd)
		if err != nil {
			return err
		}

		lock, err := utils.NewRunLock(dataDir)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		// The ledger is operator tooling; a broken ledger must not
		// block dataset builds.
		ledger, err := history.Open(filepath.Join(dataDir, "cinedex.sqlite"))
		if err != nil {
			utils.Log.Warnf("Could not open run ledger: %v", err)
			ledger = nil
		}
		defer ledger.Close()

		started := time.Now()
		cfg := reconcile.Config{
			Client:  tmdb.NewClient(token),
			DataDir: dataDir,
			Log:     utils.Log,
			Started: started,
		}

		for _, itemType := range []dataset.ItemType{dataset.Movie, dataset.Series} {
			res, err := reconcile.Run(cmd.Context(), cfg, itemType)
			if err != nil {
				return err
			}

			utils.Log.Infof("%s: total=%d new=%d stale=%d errors=%d truncated=%t",
				itemType, res.Total, res.New, res.Stale, res.Errors, res.Truncated)

			if ledger != nil {
				run := history.Run{
					StartedAt: started,
					ItemType:  string(itemType),
					Total:     res.Total,
					New:       res.New,
					Stale:     res.Stale,
					Errors:    res.Errors,
					Truncated: res.Truncated,
				}
				if err := ledger.RecordRun(cmd.Context(), run); err != nil {
					utils.Log.Warnf("Could not record run for %s: %v", itemType, err)
				}
			}

			if res.Truncated {
				utils.Log.Warnf("Time budget exhausted; the next invocation will resume where this one stopped.")
				break
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
