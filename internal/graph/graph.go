package graph

import "context"

// Task is a node in the graph.
type Task struct {
	Name string

	// Group is a display label ("binaries", "headers", "interop").
	Group string

	DependsOn []string

	// Guard reports whether the task's output already exists. It runs
	// only after every dependency has succeeded; true skips Action.
	// A nil Guard is always false.
	Guard func(ctx context.Context) bool

	// Action performs the work. A nil Action makes the task a pure
	// synchronization barrier.
	Action func(ctx context.Context) error
}

// Graph is an immutable, validated task graph. Safe for concurrent reads.
type Graph struct {
	tasks      []Task
	index      map[string]int
	deps       [][]int
	dependents [][]int
	order      []int // topological, ties broken by declaration order
}

// New builds and validates a Graph. It rejects empty or duplicate names,
// unknown or duplicate dependencies, self dependencies, and cycles.
func New(tasks []Task) (*Graph, error) {
	if len(tasks) == 0 {
		return nil, invalidf("no tasks")
	}

	g := &Graph{
		tasks:      make([]Task, len(tasks)),
		index:      make(map[string]int, len(tasks)),
		deps:       make([][]int, len(tasks)),
		dependents: make([][]int, len(tasks)),
	}
	copy(g.tasks, tasks)

	for i, t := range g.tasks {
		if t.Name == "" {
			return nil, invalidf("task name is required")
		}
		if _, dup := g.index[t.Name]; dup {
			return nil, invalidf("duplicate task name: %q", t.Name)
		}
		g.index[t.Name] = i
	}

	for i, t := range g.tasks {
		seen := make(map[int]bool, len(t.DependsOn))
		for _, dep := range t.DependsOn {
			j, ok := g.index[dep]
			if !ok {
				return nil, invalidf("task %q depends on unknown task %q", t.Name, dep)
			}
			if j == i {
				return nil, invalidf("task %q depends on itself", t.Name)
			}
			if seen[j] {
				return nil, invalidf("task %q lists dependency %q twice", t.Name, dep)
			}
			seen[j] = true
			g.deps[i] = append(g.deps[i], j)
			g.dependents[j] = append(g.dependents[j], i)
		}
	}

	g.order = g.topoOrder()
	if len(g.order) != len(g.tasks) {
		return nil, cycleError(g.findCycle())
	}
	return g, nil
}

// Len returns the number of tasks.
func (g *Graph) Len() int { return len(g.tasks) }

// Tasks returns the tasks in topological order.
func (g *Graph) Tasks() []Task {
	out := make([]Task, 0, len(g.order))
	for _, i := range g.order {
		out = append(out, g.tasks[i])
	}
	return out
}

// Dependents returns the names of the tasks that depend directly on name.
func (g *Graph) Dependents(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.dependents[i]))
	for _, j := range g.dependents[i] {
		out = append(out, g.tasks[j].Name)
	}
	return out
}

// topoOrder is Kahn's algorithm; ready tasks are taken lowest declaration
// index first so the order is deterministic. A short result means a cycle.
func (g *Graph) topoOrder() []int {
	indeg := make([]int, len(g.tasks))
	for i := range g.tasks {
		indeg[i] = len(g.deps[i])
	}

	out := make([]int, 0, len(g.tasks))
	done := make([]bool, len(g.tasks))
	for len(out) < len(g.tasks) {
		next := -1
		for i := range g.tasks {
			if !done[i] && indeg[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		done[next] = true
		out = append(out, next)
		for _, j := range g.dependents[next] {
			indeg[j]--
		}
	}
	return out
}

// findCycle returns one cycle as a list of task names, first name repeated
// at the end.
func (g *Graph) findCycle() []string {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(g.tasks))
	stack := make([]int, 0, len(g.tasks))

	var cycle []int
	var visit func(u int) bool
	visit = func(u int) bool {
		color[u] = gray
		stack = append(stack, u)
		for _, v := range g.deps[u] {
			switch color[v] {
			case gray:
				for k := len(stack) - 1; k >= 0; k-- {
					if stack[k] == v {
						cycle = append([]int{}, stack[k:]...)
						cycle = append(cycle, v)
						return true
					}
				}
			case white:
				if visit(v) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[u] = black
		return false
	}

	for i := range g.tasks {
		if color[i] == white && visit(i) {
			break
		}
	}

	names := make([]string, len(cycle))
	for i, idx := range cycle {
		names[i] = g.tasks[idx].Name
	}
	return names
}
