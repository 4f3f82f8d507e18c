// Package yogasync provides the public Go library API for yoga-sync.
//
// yoga-sync acquires the prebuilt Yoga binaries for every supported
// target, checks out the matching header sources, and hands both to the
// native interop step. Completed work is recorded so repeated runs skip it.
//
// # Basic Usage
//
//	client, err := yogasync.New(yogasync.Options{
//	    ConfigPath: "yoga-sync.yaml",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Acquire everything that is missing or stale
//	report, err := client.Run(ctx, yogasync.RunOptions{})
//
//	// Inspect the cache without network access
//	status, err := client.Status()
package yogasync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bianoble/yoga-sync/internal/config"
	"github.com/bianoble/yoga-sync/internal/ctxlog"
	"github.com/bianoble/yoga-sync/internal/fetch"
	"github.com/bianoble/yoga-sync/internal/gate"
	"github.com/bianoble/yoga-sync/internal/interop"
	"github.com/bianoble/yoga-sync/internal/ledger"
	"github.com/bianoble/yoga-sync/internal/locate"
	"github.com/bianoble/yoga-sync/internal/pipeline"
)

// Options configures a yoga-sync client.
type Options struct {
	// ProjectRoot is the directory a relative build_dir resolves against.
	// If empty, defaults to the directory containing ConfigPath.
	ProjectRoot string

	// ConfigPath is the path to the config file. Default: "yoga-sync.yaml".
	// A missing file is not an error; defaults apply.
	ConfigPath string

	// UserConfigPath overrides the user-level config location.
	UserConfigPath string

	// NoInherit skips the user-level config.
	NoInherit bool

	// Overrides are applied on top of the loaded config, the way the
	// command-line flags are.
	LibraryVersion string
	BuildDir       string
	Concurrency    int

	// RegistryBase and HeaderRepo replace the upstream coordinates, for
	// mirrors and tests.
	RegistryBase string
	HeaderRepo   string

	// Collaborators. Nil means the production implementation.
	HTTPClient HTTPClient
	Git        Git
	Binder     Binder

	// CommandOutput receives the output of a configured interop command.
	CommandOutput io.Writer

	// Logger receives structured logs. Nil discards them.
	Logger *slog.Logger
}

// RunOptions configures a run.
type RunOptions struct {
	// Notify, if set, is called for every task state transition.
	Notify func(Event)
}

// PruneOptions configures a prune.
type PruneOptions struct {
	DryRun bool
}

// Client is the main entry point for the yoga-sync library.
type Client struct {
	cfg         *config.Config
	layers      []ConfigLayer
	projectRoot string
	buildDir    string
	opts        Options
}

// New creates a Client, loading and validating the configuration.
func New(opts Options) (*Client, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.FileName
	}

	root := opts.ProjectRoot
	if root == "" {
		abs, err := filepath.Abs(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		root = filepath.Dir(abs)
	}

	cfg, layers, err := config.LoadLayered(config.DiscoverOptions{
		ProjectPath:    opts.ConfigPath,
		UserConfigPath: opts.UserConfigPath,
		NoInherit:      opts.NoInherit,
	})
	if err != nil {
		return nil, err
	}

	cfg, err = config.Merge(cfg, &config.Config{
		Library:     config.Library{Version: opts.LibraryVersion},
		BuildDir:    opts.BuildDir,
		Concurrency: opts.Concurrency,
	})
	if err != nil {
		return nil, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, &config.ValidationError{Errors: errs}
	}

	buildDir := cfg.BuildDir
	if !filepath.IsAbs(buildDir) {
		buildDir = filepath.Join(root, buildDir)
	}

	return &Client{
		cfg:         cfg,
		layers:      layers,
		projectRoot: root,
		buildDir:    buildDir,
		opts:        opts,
	}, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return *c.cfg }

// ConfigLayers reports which config files were found and loaded.
func (c *Client) ConfigLayers() []ConfigLayer { return c.layers }

// BuildDir returns the absolute build directory.
func (c *Client) BuildDir() string { return c.buildDir }

// Locator returns the resolver for remote addresses and cache paths.
func (c *Client) Locator() locate.Locator {
	loc := locate.New(c.buildDir)
	if c.opts.RegistryBase != "" {
		loc.RegistryBase = c.opts.RegistryBase
	}
	if c.opts.HeaderRepo != "" {
		loc.HeaderRepo = c.opts.HeaderRepo
	}
	return loc
}

func (c *Client) pipeline() (*pipeline.Pipeline, error) {
	loc := c.Locator()

	g := &gate.Gate{}
	if c.cfg.Cache.FingerprintsEnabled() {
		store, err := ledger.Open(loc.LedgerPath())
		if err != nil {
			return nil, fmt.Errorf("opening ledger: %w", err)
		}
		g.Ledger = store
	}

	var git fetch.Git = &fetch.GitCLI{}
	if c.opts.Git != nil {
		git = c.opts.Git
	}

	return &pipeline.Pipeline{
		Locator: loc,
		Version: c.cfg.Library.Version,
		Fetcher: &fetch.HTTPFetcher{
			Client:  c.opts.HTTPClient,
			MaxSize: c.cfg.HTTP.MaxSize,
			Timeout: c.cfg.HTTP.Timeout,
		},
		Git:            git,
		Binder:         c.binder(loc),
		Gate:           g,
		MaxUnpackBytes: c.cfg.Unpack.MaxBytes,
	}, nil
}

func (c *Client) binder(loc locate.Locator) interop.Binder {
	if c.opts.Binder != nil {
		return c.opts.Binder
	}
	if len(c.cfg.Interop.Command) > 0 {
		return &interop.CommandBinder{
			Args:   c.cfg.Interop.Command,
			Dir:    c.projectRoot,
			Output: c.opts.CommandOutput,
		}
	}
	return &interop.ManifestBinder{Dir: filepath.Join(loc.CacheRoot(), locate.BindingsDirName)}
}

// Run acquires everything missing or stale and runs the interop step.
// The report is returned even when the error is non-nil.
func (c *Client) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	p, err := c.pipeline()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := c.opts.Logger
	if logger == nil {
		logger = ctxlog.FromContext(ctx)
	}
	logger = logger.With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)

	logger.Info("Starting run.", "version", p.Version, "build_dir", c.buildDir, "concurrency", c.cfg.Concurrency)
	rep, err := p.Run(ctx, pipeline.RunOptions{
		Concurrency: c.cfg.Concurrency,
		Notify:      opts.Notify,
	})
	if rep != nil {
		rep.RunID = runID
		logger.Info("Run finished.", "ok", rep.OK(), "downloads", rep.Downloads,
			"extractions", rep.Extractions, "clones", rep.Clones, "pulls", rep.Pulls)
	}
	return rep, err
}

// Status reports the cache state without network access.
func (c *Client) Status() (*Status, error) {
	p, err := c.pipeline()
	if err != nil {
		return nil, err
	}
	return p.Status()
}

// Plan lists the tasks a run would schedule, with current verdicts.
func (c *Client) Plan() ([]PlannedTask, error) {
	p, err := c.pipeline()
	if err != nil {
		return nil, err
	}
	return p.Plan()
}

// Prune removes leftovers of interrupted runs from the cache root.
func (c *Client) Prune(opts PruneOptions) (*PruneResult, error) {
	p, err := c.pipeline()
	if err != nil {
		return nil, err
	}
	return p.Prune(pipeline.PruneOptions{DryRun: opts.DryRun})
}
