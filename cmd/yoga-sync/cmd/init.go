package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

// initTemplate is the default yoga-sync.yaml scaffold.
const initTemplate = `# yoga-sync configuration
version: 1

library:
  # Yoga release whose prebuilt binaries and headers are acquired.
  version: "3.1.0"

# Relative to this file. The cache lives in <build_dir>/yoga.
build_dir: build

# Maximum number of tasks acting at once.
concurrency: 5

# http:
#   timeout: 10m
#   max_size: 268435456      # bytes per archive, 0 = unlimited

# unpack:
#   max_bytes: 1073741824    # uncompressed bytes per archive, 0 = unlimited

# cache:
#   fingerprints: true       # record what each cache entry was built from

# Native interop step, run once per target. Without it a manifest is
# written to <build_dir>/yoga/bindings/<target>.yaml instead.
# interop:
#   command: ["./scripts/bind.sh", "{{.Target}}", "{{.BinaryDir}}", "{{.HeaderDir}}"]
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter yoga-sync.yaml configuration",
	Long: `Creates a yoga-sync.yaml file with the default library version, build
directory and concurrency, and commented-out HTTP, cache and interop settings.

Use --force to overwrite an existing configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := configPath
		if !filepath.IsAbs(outPath) {
			abs, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		if err := os.WriteFile(outPath, []byte(initTemplate), 0644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		info("Created %s", outPath)
		info("")
		info("Next steps:")
		info("  1. Pin the Yoga version you build against")
		info("  2. Run 'yoga-sync run --dry-run' to review the plan")
		info("  3. Run 'yoga-sync run' to fetch binaries and headers")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
