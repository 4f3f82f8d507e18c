package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/yoga-sync/pkg/yogasync"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cache state of every target",
	Long: `Reports, for each target, whether the downloaded archive and the unpacked
binaries are present, missing, or stale for the pinned library version, and
the state of the shared header checkout. Performs no network access.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		st, err := client.Status()
		if err != nil {
			return err
		}
		printStatus(st)
		return nil
	},
}

func printStatus(st *yogasync.Status) {
	info("Yoga %s", st.Version)
	info("")
	info("%s", paint(headStyle, fmt.Sprintf("%-14s %-8s %-8s %s", "TARGET", "ARCHIVE", "BINARIES", "FINGERPRINT")))
	for _, t := range st.Targets {
		info("%-14s %s %s %s", t.Ref.Target, verdictLabel(t.Archive), verdictLabel(t.Unpack), shortDigest(t.Fingerprint))
		detail("archive:  %s", t.Ref.ArchivePath)
		detail("binaries: %s", t.Ref.UnpackDir)
		if t.Binding != nil {
			detail("bound:    %s, %d library file(s)", t.Binding.LibraryVersion, len(t.Binding.Libraries))
		}
	}
	info("")
	info("%-14s %s %s@%s", "headers", verdictLabel(st.Headers), st.HeaderRef.Repo, st.HeaderRef.Ref)
	detail("path:   %s", st.HeaderRef.Path)
	if st.Commit != "" {
		detail("commit: %s", st.Commit)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
