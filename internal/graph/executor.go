package graph

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/bianoble/yoga-sync/internal/ctxlog"
)

// Event is emitted on every state transition.
type Event struct {
	Task    string
	Group   string
	State   State
	Err     error
	Elapsed time.Duration
}

// Options controls a single execution.
type Options struct {
	// Concurrency bounds the number of actions running at once.
	// Zero or negative means one action per task.
	Concurrency int

	// Notify, if set, is called serially for every transition.
	Notify func(Event)
}

// Outcome is the final state of one task.
type Outcome struct {
	Name    string
	Group   string
	State   State
	Err     error
	Elapsed time.Duration
}

// Result holds every outcome in topological order.
type Result struct {
	Outcomes []Outcome
	index    map[string]int
}

// Outcome returns the outcome for a task.
func (r *Result) Outcome(name string) (Outcome, bool) {
	i, ok := r.index[name]
	if !ok {
		return Outcome{}, false
	}
	return r.Outcomes[i], true
}

// Failed returns the tasks whose action returned an error.
func (r *Result) Failed() []Outcome { return r.filter(StateFailed) }

// Abandoned returns the tasks that never ran.
func (r *Result) Abandoned() []Outcome { return r.filter(StateAbandoned) }

// OK reports whether every task ended completed or up-to-date.
func (r *Result) OK() bool {
	for _, o := range r.Outcomes {
		if !IsSuccessful(o.State) {
			return false
		}
	}
	return true
}

// Err joins the root-cause errors: failed actions, plus the context error
// if cancellation abandoned work. Dependency abandonment is not repeated.
func (r *Result) Err() error {
	var errs []error
	var ctxErr error
	for _, o := range r.Outcomes {
		switch o.State {
		case StateFailed:
			errs = append(errs, &TaskError{Task: o.Name, Err: o.Err})
		case StateAbandoned:
			var de *DependencyError
			if o.Err != nil && !errors.As(o.Err, &de) && ctxErr == nil {
				ctxErr = o.Err
			}
		}
	}
	if ctxErr != nil {
		errs = append(errs, ctxErr)
	}
	return errors.Join(errs...)
}

func (r *Result) filter(s State) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.State == s {
			out = append(out, o)
		}
	}
	return out
}

// TaskError attributes an action error to its task.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string { return e.Task + ": " + e.Err.Error() }

func (e *TaskError) Unwrap() error { return e.Err }

// Executor runs a Graph once.
type Executor struct {
	graph *Graph
	opts  Options

	mu       sync.Mutex
	state    ExecutionState
	outcomes []Outcome
	done     []chan struct{}
}

// NewExecutor returns an Executor for g.
func NewExecutor(g *Graph, opts Options) *Executor {
	return &Executor{graph: g, opts: opts}
}

// Run executes every task. Independent tasks run concurrently; a task
// starts only once all of its dependencies reach a terminal state. A
// failure abandons the failed task's dependents and nothing else.
func (e *Executor) Run(ctx context.Context) *Result {
	g := e.graph
	n := len(g.tasks)

	e.state = make(ExecutionState, n)
	e.outcomes = make([]Outcome, n)
	e.done = make([]chan struct{}, n)
	for i, t := range g.tasks {
		e.state[t.Name] = StatePending
		e.outcomes[i] = Outcome{Name: t.Name, Group: t.Group, State: StatePending}
		e.done[i] = make(chan struct{})
	}

	limit := int64(e.opts.Concurrency)
	if limit <= 0 {
		limit = int64(n)
	}
	sem := semaphore.NewWeighted(limit)

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Executing task graph.", "tasks", n, "concurrency", limit)

	var eg errgroup.Group
	for _, i := range g.order {
		eg.Go(func() error {
			defer close(e.done[i])
			e.runTask(ctx, i, sem)
			return nil
		})
	}
	_ = eg.Wait()

	res := &Result{
		Outcomes: make([]Outcome, 0, n),
		index:    make(map[string]int, n),
	}
	for _, i := range g.order {
		res.index[g.tasks[i].Name] = len(res.Outcomes)
		res.Outcomes = append(res.Outcomes, e.outcomes[i])
	}
	return res
}

func (e *Executor) runTask(ctx context.Context, i int, sem *semaphore.Weighted) {
	t := e.graph.tasks[i]
	logger := ctxlog.FromContext(ctx).With("task", t.Name)

	for _, d := range e.graph.deps[i] {
		<-e.done[d]
	}
	for _, d := range e.graph.deps[i] {
		dep := e.outcome(d)
		if !IsSuccessful(dep.State) {
			logger.Debug("Abandoning task.", "dependency", dep.Name, "state", dep.State)
			e.finish(i, StatePending, StateAbandoned, &DependencyError{Task: t.Name, Dependency: dep.Name, State: dep.State}, 0)
			return
		}
	}

	if err := ctx.Err(); err != nil {
		e.finish(i, StatePending, StateAbandoned, err, 0)
		return
	}

	if t.Guard != nil && t.Guard(ctx) {
		logger.Debug("Task output already present.")
		e.finish(i, StatePending, StateUpToDate, nil, 0)
		return
	}

	if t.Action != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			e.finish(i, StatePending, StateAbandoned, err, 0)
			return
		}
		defer sem.Release(1)
	}

	e.finish(i, StatePending, StateRunning, nil, 0)
	start := time.Now()

	var err error
	if t.Action != nil {
		err = t.Action(ctx)
	}
	elapsed := time.Since(start)

	if err != nil {
		logger.Debug("Task failed.", "error", err, "elapsed", elapsed)
		e.finish(i, StateRunning, StateFailed, err, elapsed)
		return
	}
	logger.Debug("Task completed.", "elapsed", elapsed)
	e.finish(i, StateRunning, StateCompleted, nil, elapsed)
}

func (e *Executor) outcome(i int) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outcomes[i]
}

// finish applies a transition and notifies. Transition errors are
// programming errors in runTask and panic.
func (e *Executor) finish(i int, from, to State, err error, elapsed time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := e.graph.tasks[i].Name
	if terr := Transition(e.state, name, from, to); terr != nil {
		panic(terr)
	}
	o := &e.outcomes[i]
	o.State = to
	o.Err = err
	o.Elapsed = elapsed

	if e.opts.Notify != nil {
		e.opts.Notify(Event{Task: name, Group: o.Group, State: to, Err: err, Elapsed: elapsed})
	}
}
