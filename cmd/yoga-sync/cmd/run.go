package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bianoble/yoga-sync/internal/graph"
	"github.com/bianoble/yoga-sync/pkg/yogasync"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Acquire binaries and headers, then run the interop step",
	Long: `Builds the task graph for the pinned library version and executes it:
one download and one unpack per target, a shared header checkout with a
refresh, and one interop binding per target once everything is in place.

Steps whose output is already present are skipped. A failing target does not
stop the others; only the tasks that depend on it are abandoned.
Use --dry-run to print the plan without touching the network or the disk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if runDryRun {
			return printPlan(client)
		}

		info("Acquiring Yoga %s into %s", client.Config().Library.Version, client.Locator().CacheRoot())
		rep, runErr := client.Run(cmd.Context(), yogasync.RunOptions{Notify: printEvent})
		if rep == nil {
			return runErr
		}

		info("")
		info("Run %s: %d/%d targets bound, %d download(s) (%s), %d extraction(s), %d clone(s), %d refresh(es).",
			rep.RunID, len(rep.Completed), len(yogasync.Targets()), rep.Downloads,
			humanSize(rep.DownloadedBytes), rep.Extractions, rep.Clones, rep.Pulls)

		if runErr == nil {
			return nil
		}
		var failed, abandoned int
		for _, o := range rep.Tasks {
			switch o.State {
			case yogasync.StateFailed:
				failed++
			case yogasync.StateAbandoned:
				abandoned++
			}
		}
		for _, e := range unwrapJoined(runErr) {
			errorf("%s", e)
		}
		if failed == 0 {
			return fmt.Errorf("run interrupted: %d task(s) abandoned", abandoned)
		}
		return fmt.Errorf("run failed: %d task(s) failed, %d abandoned", failed, abandoned)
	},
}

// printEvent reports terminal task transitions as they happen.
func printEvent(e yogasync.Event) {
	switch e.State {
	case yogasync.StateCompleted, yogasync.StateFailed:
		info("  %s %s  %s", stateLabel(e.State), e.Task, e.Elapsed.Round(time.Millisecond))
	case yogasync.StateUpToDate:
		detail("%s %s", stateLabel(e.State), e.Task)
	case yogasync.StateAbandoned:
		var dep *graph.DependencyError
		if errors.As(e.Err, &dep) {
			detail("%s %s  (%s %s)", stateLabel(e.State), e.Task, dep.Dependency, dep.State)
			return
		}
		detail("%s %s", stateLabel(e.State), e.Task)
	}
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func printPlan(client *yogasync.Client) error {
	plan, err := client.Plan()
	if err != nil {
		return err
	}
	info("Dry run — nothing is downloaded or written.")
	info("")
	info("%s", paint(headStyle, fmt.Sprintf("%-22s %-9s %-8s %s", "TASK", "GROUP", "CACHE", "DETAIL")))
	var pending int
	for _, t := range plan {
		cache := fmt.Sprintf("%-8s", "-")
		if t.Verdict != nil {
			cache = verdictLabel(*t.Verdict)
		}
		info("%-22s %-9s %s %s", t.Name, t.Group, cache, t.Detail)
		if len(t.DependsOn) > 0 {
			detail("after %s", strings.Join(t.DependsOn, ", "))
		}
		if len(t.Dependents) > 0 {
			detail("blocks %s", strings.Join(t.Dependents, ", "))
		}
		if t.Verdict != nil && t.WouldRun() {
			pending++
		}
	}
	info("")
	info("%d of %d cached step(s) would run.", pending, countGated(plan))
	return nil
}

func countGated(plan []yogasync.PlannedTask) int {
	var n int
	for _, t := range plan {
		if t.Verdict != nil {
			n++
		}
	}
	return n
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the task plan without acting")
	rootCmd.AddCommand(runCmd)
}
