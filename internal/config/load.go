package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a yoga-sync.yaml configuration file.
func Load(path string) (*Config, error) {
	cfg, err := parse(path)
	if err != nil {
		return nil, err
	}

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return cfg, nil
}

func parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version 1 is supported", cfg.Version))
	}

	errs = append(errs, validateLibraryVersion(cfg.Library.Version)...)

	if cfg.Concurrency < 0 {
		errs = append(errs, fmt.Sprintf("concurrency must not be negative, got %d", cfg.Concurrency))
	}
	if cfg.HTTP.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("http.timeout must not be negative, got %s", cfg.HTTP.Timeout))
	}
	if cfg.HTTP.MaxSize < 0 {
		errs = append(errs, fmt.Sprintf("http.max_size must not be negative, got %d", cfg.HTTP.MaxSize))
	}
	if cfg.Unpack.MaxBytes < 0 {
		errs = append(errs, fmt.Sprintf("unpack.max_bytes must not be negative, got %d", cfg.Unpack.MaxBytes))
	}

	if len(cfg.Interop.Command) > 0 && strings.TrimSpace(cfg.Interop.Command[0]) == "" {
		errs = append(errs, "interop.command: first element must name a program — e.g. command: [\"interop-compile\", \"{{.Target}}\"]")
	}

	return errs
}

func validateLibraryVersion(v string) []string {
	switch {
	case v == "":
		return []string{"library.version is required — add 'library: {version: \"3.1.0\"}'"}
	case strings.ContainsAny(v, "/\\ \t\n"):
		return []string{fmt.Sprintf("library.version %q must not contain path separators or whitespace", v)}
	case strings.Contains(v, ".."):
		return []string{fmt.Sprintf("library.version %q must not contain '..'", v)}
	}
	return nil
}
