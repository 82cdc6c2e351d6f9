package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cinedex/cinedex/pkg/dataset"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the persisted dataset artifacts.",
	Long:  "Prints statistics about the persisted dataset artifacts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := resolveDataDir(cmd)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "TYPE\tENTRIES\tGENERATED AT\tTOP TITLE\t")

		found := false
		total := 0
		for _, itemType := range []dataset.ItemType{dataset.Movie, dataset.Series} {
			artifact, err := dataset.ReadArtifact(dataDir, itemType)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return err
			}
			found = true
			total += artifact.Count

			topTitle := ""
			if len(artifact.Entries) > 0 {
				topTitle = artifact.Entries[0].Title
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t\n", itemType, artifact.Count, artifact.GeneratedAt.Format("2006-01-02 15:04:05"), topTitle)
		}

		if !found {
			fmt.Println("No dataset artifacts found. Run 'cinedex build' first.")
			return nil
		}

		fmt.Fprintln(w, " \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t\t\t\n", total)

		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
