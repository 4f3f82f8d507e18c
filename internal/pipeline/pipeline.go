// Package pipeline assembles the Yoga acquisition task graph and runs it.
//
// Per target: download-<t> -> unpack-<t> -> aggregate-binaries.
// Shared headers: clone-headers -> refresh-headers.
// Interop: {aggregate-binaries, refresh-headers} -> bind-<t>.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/bianoble/yoga-sync/internal/fetch"
	"github.com/bianoble/yoga-sync/internal/gate"
	"github.com/bianoble/yoga-sync/internal/graph"
	"github.com/bianoble/yoga-sync/internal/interop"
	"github.com/bianoble/yoga-sync/internal/locate"
	"github.com/bianoble/yoga-sync/internal/target"
	"github.com/bianoble/yoga-sync/internal/unpack"
)

// Task groups.
const (
	GroupBinaries = "binaries"
	GroupHeaders  = "headers"
	GroupInterop  = "interop"
)

// Fixed task names.
const (
	TaskAggregate = "aggregate-binaries"
	TaskClone     = "clone-headers"
	TaskRefresh   = "refresh-headers"
)

// DownloadTask returns the name of t's download task.
func DownloadTask(t target.Target) string { return "download-" + t.String() }

// UnpackTask returns the name of t's unpack task.
func UnpackTask(t target.Target) string { return "unpack-" + t.String() }

// BindTask returns the name of t's interop binding task.
func BindTask(t target.Target) string { return "bind-" + t.String() }

// Fetcher downloads one archive.
type Fetcher interface {
	Download(ctx context.Context, name, url, dest string) (*fetch.Download, error)
}

// Extractor expands an archive into a directory.
type Extractor func(archive, dest string, opts unpack.Options) (*unpack.Result, error)

// Pipeline holds the collaborators for one library version.
type Pipeline struct {
	Locator locate.Locator
	Version string

	Fetcher Fetcher
	Git     fetch.Git
	Binder  interop.Binder

	// Gate decides skip/redo. A Gate without a ledger is a pure
	// existence check.
	Gate *gate.Gate

	// Extract defaults to unpack.Extract.
	Extract Extractor

	// MaxUnpackBytes caps each archive's uncompressed size (0 = no limit).
	MaxUnpackBytes int64
}

// RunOptions configures a single run.
type RunOptions struct {
	Concurrency int
	Notify      func(graph.Event)
}

// Report summarizes a run.
type Report struct {
	// RunID is set by the caller to correlate logs with the report.
	RunID   string
	Version string
	Tasks   []graph.Outcome

	// Completed lists the targets whose interop binding succeeded.
	Completed []target.Target

	Downloads       int
	DownloadedBytes int64
	Extractions     int
	Clones          int
	Pulls           int
}

// OK reports whether every task succeeded.
func (r *Report) OK() bool {
	for _, o := range r.Tasks {
		if !graph.IsSuccessful(o.State) {
			return false
		}
	}
	return true
}

// counters are updated from concurrently running actions.
type counters struct {
	downloads       atomic.Int64
	downloadedBytes atomic.Int64
	extractions     atomic.Int64
	clones          atomic.Int64
	pulls           atomic.Int64
}

// run is the state shared by the tasks of one execution.
type run struct {
	p      *Pipeline
	stats  counters
	cloned atomic.Bool
}

func (p *Pipeline) validate() error {
	if p.Version == "" {
		return fmt.Errorf("library version is required")
	}
	if p.Fetcher == nil {
		return fmt.Errorf("pipeline has no fetcher")
	}
	if p.Git == nil {
		return fmt.Errorf("pipeline has no git client")
	}
	if p.Binder == nil {
		return fmt.Errorf("pipeline has no interop binder")
	}
	if _, err := p.Locator.Headers(p.Version); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) extractor() Extractor {
	if p.Extract != nil {
		return p.Extract
	}
	return unpack.Extract
}

// Graph builds the task graph for this pipeline.
func (p *Pipeline) Graph() (*graph.Graph, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p.newRun().graph()
}

func (p *Pipeline) newRun() *run { return &run{p: p} }

func (r *run) graph() (*graph.Graph, error) {
	p := r.p
	hdr, err := p.Locator.Headers(p.Version)
	if err != nil {
		return nil, err
	}

	var tasks []graph.Task
	var unpacks []string
	for _, t := range target.All() {
		ref, err := p.Locator.Locate(t, p.Version)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks,
			graph.Task{
				Name:   DownloadTask(t),
				Group:  GroupBinaries,
				Guard:  r.downloadGuard(ref),
				Action: r.download(ref),
			},
			graph.Task{
				Name:      UnpackTask(t),
				Group:     GroupBinaries,
				DependsOn: []string{DownloadTask(t)},
				Guard:     r.unpackGuard(ref),
				Action:    r.unpack(ref),
			},
		)
		unpacks = append(unpacks, UnpackTask(t))
	}

	tasks = append(tasks,
		graph.Task{Name: TaskAggregate, Group: GroupBinaries, DependsOn: unpacks},
		graph.Task{
			Name:   TaskClone,
			Group:  GroupHeaders,
			Guard:  r.cloneGuard(hdr),
			Action: r.clone(hdr),
		},
		graph.Task{
			Name:      TaskRefresh,
			Group:     GroupHeaders,
			DependsOn: []string{TaskClone},
			Guard:     r.refreshGuard(hdr),
			Action:    r.refresh(hdr),
		},
	)

	for _, t := range target.All() {
		ref, err := p.Locator.Locate(t, p.Version)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, graph.Task{
			Name:      BindTask(t),
			Group:     GroupInterop,
			DependsOn: []string{TaskAggregate, TaskRefresh},
			Action:    r.bind(ref, hdr),
		})
	}

	return graph.New(tasks)
}

// Run executes the pipeline. The returned error joins the root causes of
// every failed task; the report is returned either way.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	r := p.newRun()
	g, err := r.graph()
	if err != nil {
		return nil, fmt.Errorf("building task graph: %w", err)
	}

	res := graph.NewExecutor(g, graph.Options{
		Concurrency: opts.Concurrency,
		Notify:      opts.Notify,
	}).Run(ctx)

	rep := &Report{
		Version:         p.Version,
		Tasks:           res.Outcomes,
		Downloads:       int(r.stats.downloads.Load()),
		DownloadedBytes: r.stats.downloadedBytes.Load(),
		Extractions:     int(r.stats.extractions.Load()),
		Clones:          int(r.stats.clones.Load()),
		Pulls:           int(r.stats.pulls.Load()),
	}
	for _, t := range target.All() {
		if o, ok := res.Outcome(BindTask(t)); ok && graph.IsSuccessful(o.State) {
			rep.Completed = append(rep.Completed, t)
		}
	}

	return rep, res.Err()
}
