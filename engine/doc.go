// Package engine is a reference scheduler for parseq.Task graphs. It
// implements parseq.Context atop a priority-ordered ready queue and a
// fixed worker-goroutine pool. The graph is discovered lazily, task by
// task, as combinators schedule their dependencies, rather than being
// computed upfront by a topological sort over a precompiled DAG.
package engine
