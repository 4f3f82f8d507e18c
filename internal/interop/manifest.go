package interop

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bianoble/yoga-sync/internal/sandbox"
)

// Manifest describes the inputs of one interop compilation.
type Manifest struct {
	Version        int      `yaml:"version"`
	Target         string   `yaml:"target"`
	Platform       string   `yaml:"platform"`
	Arch           string   `yaml:"arch"`
	LibraryVersion string   `yaml:"library_version"`
	BinaryDir      string   `yaml:"binary_dir"`
	HeaderDir      string   `yaml:"header_dir"`
	Libraries      []string `yaml:"libraries"`
}

var libraryExts = map[string]bool{
	".a":     true,
	".lib":   true,
	".so":    true,
	".dylib": true,
	".dll":   true,
}

// ManifestBinder writes <Dir>/<target>.yaml for each binding. It is the
// default binder when no command is configured.
type ManifestBinder struct {
	Dir string
}

// Bind writes the manifest for b.
func (m *ManifestBinder) Bind(ctx context.Context, b Binding) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	libs, err := findLibraries(b.BinaryDir)
	if err != nil {
		return &Error{Target: b.Target, Err: err}
	}

	man := Manifest{
		Version:        1,
		Target:         b.Target.String(),
		Platform:       string(b.Target.Platform),
		Arch:           string(b.Target.Arch),
		LibraryVersion: b.LibraryVersion,
		BinaryDir:      filepath.ToSlash(b.BinaryDir),
		HeaderDir:      filepath.ToSlash(b.HeaderDir),
		Libraries:      libs,
	}
	data, err := yaml.Marshal(&man)
	if err != nil {
		return &Error{Target: b.Target, Err: fmt.Errorf("marshaling manifest: %w", err)}
	}

	if err := sandbox.SafeWrite(m.Dir, b.Target.String()+".yaml", data, 0644); err != nil {
		return &Error{Target: b.Target, Err: err}
	}
	return nil
}

// ReadManifest loads a manifest written by ManifestBinder.
func ReadManifest(data []byte) (*Manifest, error) {
	var man Manifest
	if err := yaml.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &man, nil
}

// findLibraries lists native library files under dir, relative and sorted.
func findLibraries(dir string) ([]string, error) {
	var libs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !libraryExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		libs = append(libs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning binaries in %s: %w", dir, err)
	}
	sort.Strings(libs)
	return libs, nil
}
