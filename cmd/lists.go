package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cinedex/cinedex/internal/utils"
	"github.com/cinedex/cinedex/pkg/dataset"
	"github.com/cinedex/cinedex/pkg/tmdb"
)

// listArtifact is the standalone output of the lists command. It is not
// part of the reconciled dataset and carries no resumable state.
type listArtifact struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Kind        string           `json:"kind"`
	Count       int              `json:"count"`
	Entries     []tmdb.ListEntry `json:"entries"`
}

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Fetch a curated TMDB list into a standalone artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		token := viper.GetString("tmdb.token")
		if token == "" {
			return errors.New("missing TMDB access token: set TMDB_ACCESS_TOKEN or tmdb.token in the config file")
		}

		kind, _ := cmd.Flags().GetString("kind")
		typeStr, _ := cmd.Flags().GetString("type")
		pages, _ := cmd.Flags().GetInt("pages")

		itemType := dataset.ItemType(typeStr)
		if itemType != dataset.Movie && itemType != dataset.Series {
			return fmt.Errorf("invalid type %q: must be movie or series", typeStr)
		}

		dataDir, err := resolveDataDir(cmd)
		if err != nil {
			return err
		}

		client := tmdb.NewClient(token)
		entries, err := client.FetchList(cmd.Context(), itemType, kind, pages)
		if err != nil {
			return err
		}

		artifact := listArtifact{
			GeneratedAt: time.Now().UTC(),
			Kind:        kind,
			Count:       len(entries),
			Entries:     entries,
		}
		b, err := json.Marshal(artifact)
		if err != nil {
			return err
		}

		outPath := filepath.Join(dataDir, fmt.Sprintf("%s_%s.json", itemType, kind))
		if err := os.WriteFile(outPath, b, 0o644); err != nil {
			return err
		}

		utils.Log.Infof("Wrote %d %s entries to %s", len(entries), kind, outPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listsCmd)
	listsCmd.Flags().String("kind", "popular", "List kind: popular, top_rated, ...")
	listsCmd.Flags().String("type", "movie", "Item type: movie or series")
	listsCmd.Flags().Int("pages", 5, "Number of pages to fetch")
}
