package yogasync

import (
	"github.com/bianoble/yoga-sync/internal/config"
	"github.com/bianoble/yoga-sync/internal/fetch"
	"github.com/bianoble/yoga-sync/internal/gate"
	"github.com/bianoble/yoga-sync/internal/graph"
	"github.com/bianoble/yoga-sync/internal/interop"
	"github.com/bianoble/yoga-sync/internal/pipeline"
	"github.com/bianoble/yoga-sync/internal/target"
)

// Type aliases re-export internal types as the public API.

type Config = config.Config
type ConfigLayer = config.LayerInfo
type Target = target.Target
type Verdict = gate.Verdict
type Report = pipeline.Report
type Status = pipeline.Status
type TargetStatus = pipeline.TargetStatus
type PlannedTask = pipeline.PlannedTask
type PruneResult = pipeline.PruneResult
type Event = graph.Event
type Outcome = graph.Outcome
type State = graph.State
type Binding = interop.Binding
type Binder = interop.Binder
type Git = fetch.Git
type HTTPClient = fetch.HTTPClient

// Task states.
const (
	StatePending   = graph.StatePending
	StateRunning   = graph.StateRunning
	StateCompleted = graph.StateCompleted
	StateUpToDate  = graph.StateUpToDate
	StateFailed    = graph.StateFailed
	StateAbandoned = graph.StateAbandoned
)

// Gate verdicts.
const (
	Missing = gate.Missing
	Present = gate.Present
	Stale   = gate.Stale
)

// Targets returns the five supported targets in their fixed order.
func Targets() []Target { return target.All() }
