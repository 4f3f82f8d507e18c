package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/yoga-sync/pkg/yogasync"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the supported targets and where their artifacts come from",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		loc := client.Locator()
		v := client.Config().Library.Version

		for _, t := range yogasync.Targets() {
			ref, err := loc.Locate(t, v)
			if err != nil {
				return err
			}
			info("%-14s %s", t, ref.RemoteAddress)
			detail("-> %s", ref.UnpackDir)
		}
		hdr, err := loc.Headers(v)
		if err != nil {
			return fmt.Errorf("resolving headers: %w", err)
		}
		info("%-14s %s@%s", "headers", hdr.Repo, hdr.Ref)
		detail("-> %s", hdr.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
