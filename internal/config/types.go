package config

import "time"

// FileName is the project-level configuration file name.
const FileName = "yoga-sync.yaml"

// Defaults applied by Default and by Resolve for unset fields.
const (
	DefaultLibraryVersion = "3.1.0"
	DefaultBuildDir       = "build"
	DefaultConcurrency    = 5
	DefaultHTTPTimeout    = 10 * time.Minute
)

// Config represents the yoga-sync.yaml configuration file.
type Config struct {
	Version     int     `yaml:"version"`
	Library     Library `yaml:"library"`
	BuildDir    string  `yaml:"build_dir,omitempty"`
	Concurrency int     `yaml:"concurrency,omitempty"`
	HTTP        HTTP    `yaml:"http,omitempty"`
	Unpack      Unpack  `yaml:"unpack,omitempty"`
	Cache       Cache   `yaml:"cache,omitempty"`
	Interop     Interop `yaml:"interop,omitempty"`
}

// Library pins the Yoga release shared by binaries and headers.
type Library struct {
	Version string `yaml:"version"`
}

// HTTP tunes archive downloads. MaxSize 0 means unlimited.
type HTTP struct {
	Timeout time.Duration `yaml:"timeout,omitempty"`
	MaxSize int64         `yaml:"max_size,omitempty"`
}

// Unpack limits archive extraction. MaxBytes caps the uncompressed size
// of each archive; 0 means unlimited.
type Unpack struct {
	MaxBytes int64 `yaml:"max_bytes,omitempty"`
}

// Cache controls the completion ledger.
type Cache struct {
	// Fingerprints enables stale detection through the ledger. Nil means on.
	Fingerprints *bool `yaml:"fingerprints,omitempty"`
}

// FingerprintsEnabled reports whether ledger checks are on.
func (c Cache) FingerprintsEnabled() bool {
	return c.Fingerprints == nil || *c.Fingerprints
}

// Interop selects the binding step. An empty Command writes manifests.
type Interop struct {
	Command []string `yaml:"command,omitempty"`
}

// Default returns a configuration usable when no file exists.
func Default() *Config {
	return &Config{
		Version:     1,
		Library:     Library{Version: DefaultLibraryVersion},
		BuildDir:    DefaultBuildDir,
		Concurrency: DefaultConcurrency,
		HTTP:        HTTP{Timeout: DefaultHTTPTimeout},
	}
}

// Resolve fills unset fields with defaults. It does not touch fields the
// file or flags set.
func (c *Config) Resolve() {
	d := Default()
	if c.Version == 0 {
		c.Version = d.Version
	}
	if c.Library.Version == "" {
		c.Library.Version = d.Library.Version
	}
	if c.BuildDir == "" {
		c.BuildDir = d.BuildDir
	}
	if c.Concurrency == 0 {
		c.Concurrency = d.Concurrency
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = d.HTTP.Timeout
	}
}
