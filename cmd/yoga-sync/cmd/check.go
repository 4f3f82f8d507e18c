package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the cache is complete (for CI)",
	Long: `Exits non-zero if any target's archive or binaries, or the header checkout,
are missing or stale for the pinned library version. Performs no network
access and changes nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		st, err := client.Status()
		if err != nil {
			return err
		}

		if st.Complete() {
			info("Cache is complete for Yoga %s.", st.Version)
			return nil
		}

		var problems int
		for _, t := range st.Targets {
			if !t.Archive.Satisfied() {
				errorf("%s: archive %s", t.Ref.Target, t.Archive)
				problems++
			}
			if !t.Unpack.Satisfied() {
				errorf("%s: binaries %s", t.Ref.Target, t.Unpack)
				problems++
			}
		}
		if !st.Headers.Satisfied() {
			errorf("headers %s", st.Headers)
			problems++
		}
		return fmt.Errorf("cache incomplete: %d problem(s) — run 'yoga-sync run'", problems)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
