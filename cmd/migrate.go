package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cinedex/cinedex/internal/utils"
	"github.com/cinedex/cinedex/pkg/dataset"
)

// migrateCmd converts a legacy artifact (bare JSON array with long
// field names) into the current envelope format. One-shot; it does not
// touch the provider API.
var migrateCmd = &cobra.Command{
	Use:   "migrate <legacy-file>",
	Short: "Convert a legacy dataset artifact to the current format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typeStr, _ := cmd.Flags().GetString("type")
		itemType := dataset.ItemType(typeStr)
		if itemType != dataset.Movie && itemType != dataset.Series {
			return fmt.Errorf("invalid type %q: must be movie or series", typeStr)
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		store, err := dataset.MigrateLegacy(raw)
		if err != nil {
			return fmt.Errorf("migrate %s: %w", args[0], err)
		}

		dataDir, err := resolveDataDir(cmd)
		if err != nil {
			return err
		}
		if err := dataset.Save(dataDir, itemType, store, false); err != nil {
			return err
		}

		utils.Log.Infof("Migrated %d records into %s", len(store), dataset.Path(dataDir, itemType))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().String("type", "movie", "Item type: movie or series")
}
