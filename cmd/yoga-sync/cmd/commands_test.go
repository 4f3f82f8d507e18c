package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points the global flags at a fresh project directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	oldCfg, oldInherit, oldQuiet := configPath, noInherit, quiet
	configPath = filepath.Join(dir, "yoga-sync.yaml")
	noInherit = true
	quiet = true
	t.Cleanup(func() { configPath, noInherit, quiet = oldCfg, oldInherit, oldQuiet })
	return dir
}

func TestCheckFailsOnEmptyCache(t *testing.T) {
	isolate(t)
	err := checkCmd.RunE(checkCmd, nil)
	if err == nil {
		t.Fatal("check should fail on an empty cache")
	}
	if !strings.Contains(err.Error(), "cache incomplete: 11 problem(s)") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunDryRunDoesNotAct(t *testing.T) {
	dir := isolate(t)
	runDryRun = true
	t.Cleanup(func() { runDryRun = false })

	if err := runCmd.RunE(runCmd, nil); err != nil {
		t.Fatalf("run --dry-run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "build")); !os.IsNotExist(err) {
		t.Error("dry run created the build directory")
	}
}

func TestInvalidVersionFlag(t *testing.T) {
	isolate(t)
	old := libraryVersion
	libraryVersion = "3.1.0/../x"
	t.Cleanup(func() { libraryVersion = old })

	if err := statusCmd.RunE(statusCmd, nil); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestTargetsAndPrune(t *testing.T) {
	isolate(t)
	if err := targetsCmd.RunE(targetsCmd, nil); err != nil {
		t.Fatalf("targets: %v", err)
	}
	if err := pruneCmd.RunE(pruneCmd, nil); err != nil {
		t.Fatalf("prune: %v", err)
	}
}
