package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bianoble/yoga-sync/pkg/yogasync"
)

var pruneDryRun bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove leftovers of interrupted runs from the cache",
	Long: `Removes everything in the cache root that yoga-sync does not own: partial
downloads, half-extracted staging directories and swapped-out header trees
left behind by an interrupted run. Archives, binaries, headers, bindings and
the ledger are never touched. Use --dry-run to see what would be removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		res, err := client.Prune(yogasync.PruneOptions{DryRun: pruneDryRun})
		if err != nil {
			return err
		}

		if pruneDryRun {
			info("Dry run — nothing removed.")
		}
		if len(res.Removed) == 0 {
			info("Nothing to prune.")
			return nil
		}
		for _, name := range res.Removed {
			info("  remove  %s", name)
		}
		info("\nPruned %d item(s), %s.", len(res.Removed), humanSize(res.Bytes))
		return nil
	},
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "show what would be removed without acting")
	rootCmd.AddCommand(pruneCmd)
}
