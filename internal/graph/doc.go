// Package graph is the explicit task graph behind a pipeline run.
//
// A Graph is an immutable, validated set of tasks and dependency edges.
// An Executor runs it once, tracking per-task state:
//
//	pending -> running -> completed | failed
//	pending -> up-to-date   (guard reported the output already present)
//	pending -> abandoned    (a dependency did not succeed, or ctx ended)
//
// Failure propagates only along declared edges: a failed task abandons its
// transitive dependents and nothing else.
package graph
