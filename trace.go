package parseq

import (
	"time"

	"github.com/google/uuid"
)

// RelationKind identifies the nature of an edge between two tasks in the
// trace graph.
type RelationKind int

const (
	// RelationParent marks the task that scheduled another task as its
	// first caller. Never set by the task itself — only the Context that
	// ran it (or the base Task's ContextRun bookkeeping) records it.
	RelationParent RelationKind = iota

	// RelationPredecessor marks an upstream task whose outcome this task
	// waits on, recorded by the combinators that build this task or passed
	// to ContextRun. Context.After does not record it.
	RelationPredecessor

	// RelationSuccessorOf is the inverse view of RelationPredecessor.
	// Nothing in this package records it: predecessor edges are stored
	// only on the successor.
	RelationSuccessorOf

	// RelationTimer marks a timer task associated with this task (created
	// by WithTimeout; WithTimer records no relationship).
	RelationTimer

	// RelationPotentialParent marks a task that attempted to schedule an
	// already-scheduled task (a diamond dependency, or a deliberately
	// Share()d task). Unlike RelationParent, a task may accumulate many
	// potential-parent edges.
	RelationPotentialParent

	// RelationSideEffectParent marks the upstream task that scheduled a
	// side-effect subtree via WithSideEffect.
	RelationSideEffectParent
)

// String renders a RelationKind the way ShallowTrace and tracetree expect.
func (k RelationKind) String() string {
	switch k {
	case RelationParent:
		return "parent"
	case RelationPredecessor:
		return "predecessor"
	case RelationSuccessorOf:
		return "successor-of"
	case RelationTimer:
		return "timer"
	case RelationPotentialParent:
		return "potential-parent"
	case RelationSideEffectParent:
		return "side-effect-parent"
	default:
		return "unknown"
	}
}

// Relationship is one edge in the trace graph: (kind, other-task).
type Relationship struct {
	Kind  RelationKind
	Other TaskHandle
}

// TaskHandle is the non-generic identity and status surface every Task[T]
// exposes, regardless of its result type. Relationships are stored as
// TaskHandle because an edge's endpoints may carry different T.
type TaskHandle interface {
	ID() uuid.UUID
	Name() string
	Priority() int
	State() State
	ShallowTrace() ShallowTrace
	Relationships() []Relationship
	Cancel(err error) bool

	// OnTerminal registers fn to run once the task reaches a terminal
	// state, erasing the task's own result type so a Context can wait on
	// heterogeneous predecessors (see Context.After). Like Promise.Listen,
	// fn fires synchronously if the task is already terminal.
	OnTerminal(fn func())
}

// ShallowTrace is an immutable snapshot of a single task's identity and
// status, taken at the moment ShallowTrace() is called.
type ShallowTrace struct {
	ID           uuid.UUID
	Name         string
	State        State
	Priority     int
	SystemHidden bool
	ScheduledAt  time.Time
	StartedAt    time.Time
	EndedAt      time.Time
	ValueSummary string
	ErrSummary   string
	Attributes   map[string]any
}

// Trace is the transitive closure reachable from a task's relationships at
// the moment Trace() was called. Nodes is keyed by task ID so a diamond
// dependency appears once; Edges lists every (from, kind, to) triple
// discovered during the walk.
type Trace struct {
	Root  ShallowTrace
	Nodes map[uuid.UUID]ShallowTrace
	Edges []TraceEdge
}

// TraceEdge is one edge of a Trace, with both endpoints resolved to IDs so
// Trace can be serialized or rendered without holding live task references.
type TraceEdge struct {
	From uuid.UUID
	Kind RelationKind
	To   uuid.UUID
}

// buildTrace walks the relationship graph reachable from root via
// breadth-first search, guarding against revisiting a node (relationships
// form a DAG during construction, but the walk must tolerate a task
// reachable through more than one path, e.g. RelationPotentialParent).
func buildTrace(root TaskHandle) Trace {
	t := Trace{
		Root:  root.ShallowTrace(),
		Nodes: map[uuid.UUID]ShallowTrace{root.ID(): root.ShallowTrace()},
	}

	queue := []TaskHandle{root}
	visited := map[uuid.UUID]bool{root.ID(): true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, rel := range cur.Relationships() {
			if rel.Other == nil {
				continue
			}
			t.Edges = append(t.Edges, TraceEdge{From: cur.ID(), Kind: rel.Kind, To: rel.Other.ID()})
			if visited[rel.Other.ID()] {
				continue
			}
			visited[rel.Other.ID()] = true
			t.Nodes[rel.Other.ID()] = rel.Other.ShallowTrace()
			queue = append(queue, rel.Other)
		}
	}

	return t
}
