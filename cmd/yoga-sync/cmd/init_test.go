package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bianoble/yoga-sync/internal/config"
)

func withConfigPath(t *testing.T, path string) {
	t.Helper()
	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })
}

func TestInitCreatesConfig(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "yoga-sync.yaml")
	withConfigPath(t, outPath)

	initForce = false
	if err := initCmd.RunE(initCmd, nil); err != nil {
		t.Fatalf("init: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("config file is empty")
	}
}

func TestInitRefusesOverwrite(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "yoga-sync.yaml")
	if err := os.WriteFile(outPath, []byte("existing"), 0644); err != nil {
		t.Fatal(err)
	}
	withConfigPath(t, outPath)

	initForce = false
	err := initCmd.RunE(initCmd, nil)
	if err == nil {
		t.Fatal("expected error when file exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error should mention 'already exists': %v", err)
	}
}

func TestInitForceOverwrites(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "yoga-sync.yaml")
	if err := os.WriteFile(outPath, []byte("old content"), 0644); err != nil {
		t.Fatal(err)
	}
	withConfigPath(t, outPath)

	initForce = true
	t.Cleanup(func() { initForce = false })
	if err := initCmd.RunE(initCmd, nil); err != nil {
		t.Fatalf("init --force: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "old content" {
		t.Error("file was not overwritten")
	}
}

func TestInitTemplateLoads(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "yoga-sync.yaml")
	if err := os.WriteFile(outPath, []byte(initTemplate), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(outPath)
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	if cfg.Library.Version != config.DefaultLibraryVersion {
		t.Errorf("library.version = %q, want %q", cfg.Library.Version, config.DefaultLibraryVersion)
	}
	if cfg.Concurrency != config.DefaultConcurrency {
		t.Errorf("concurrency = %d", cfg.Concurrency)
	}
}
