package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const configDirName = "yoga-sync"

// Level is the precedence level of a configuration file.
type Level string

const (
	LevelUser    Level = "user"
	LevelProject Level = "project"
)

// LayerInfo describes a discovered config file and its load status.
type LayerInfo struct {
	Err    error // non-nil if the file exists but failed to load
	Path   string
	Level  Level
	Loaded bool
}

// DiscoverOptions controls how config paths are discovered.
type DiscoverOptions struct {
	// ProjectPath is the project-level config path (required).
	ProjectPath string

	// UserConfigPath overrides the default user config path.
	// Empty means use the OS default. Set to a nonexistent path to skip.
	UserConfigPath string

	// NoInherit skips the user layer.
	NoInherit bool
}

// DiscoverPaths returns the config files to check, lowest precedence
// first. Paths are deduplicated by absolute path.
func DiscoverPaths(opts DiscoverOptions) []LayerInfo {
	var layers []LayerInfo
	seen := make(map[string]bool)

	add := func(level Level, path string) {
		if path == "" {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		layers = append(layers, LayerInfo{Path: path, Level: level})
	}

	if !opts.NoInherit {
		userPath := opts.UserConfigPath
		if userPath == "" {
			userPath = defaultUserConfigPath()
		}
		add(LevelUser, userPath)
	}
	add(LevelProject, opts.ProjectPath)

	return layers
}

func defaultUserConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, configDirName, FileName)
}

// LoadLayered loads every discovered layer that exists, merges them in
// precedence order, fills defaults, and validates the result. Missing
// files are skipped; when none exist the result is Default().
func LoadLayered(opts DiscoverOptions) (*Config, []LayerInfo, error) {
	layers := DiscoverPaths(opts)

	var merged *Config
	for i := range layers {
		l := &layers[i]
		cfg, err := parse(l.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			l.Err = err
			return nil, layers, err
		}
		l.Loaded = true

		merged, err = Merge(merged, cfg)
		if err != nil {
			l.Err = err
			return nil, layers, err
		}
	}

	if merged == nil {
		merged = Default()
	}
	merged.Resolve()

	if errs := Validate(merged); len(errs) > 0 {
		return nil, layers, &ValidationError{Errors: errs}
	}
	return merged, layers, nil
}
