package parseq

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Body is the work a task performs once scheduled. It receives the
// scheduling Context and returns a Promise that eventually carries the
// task's result. Most callers never write a Body directly — they use the
// factories (Value, Failure, Callable, Action, Async, Blocking) or a
// combinator, which construct one internally.
type Body[T any] func(ctx Context) *Promise[T]

// Task is a Promise of T combined with a Body that, when scheduled by a
// Context, eventually completes that Promise. Task is both a node in the
// composition graph and a handle to its eventual result.
//
// A Task's zero value is not usable; construct one via a factory or
// combinator. Task is safe for concurrent use.
type Task[T any] struct {
	id   uuid.UUID
	name string
	desc string

	priority atomic.Int64
	state    atomic.Int32

	promise *Promise[T]
	body    Body[T]

	runOnce sync.Once
	wrapMu  sync.Mutex
	wrapper ContextRunWrapper[T]
	started atomic.Bool

	mu            sync.Mutex
	systemHidden  bool
	relationships []Relationship
	attributes    map[string]any
	scheduledAt   time.Time
	startedAt     time.Time
	endedAt       time.Time
}

// newTask constructs a Task in the created state.
func newTask[T any](name string, body Body[T]) *Task[T] {
	t := &Task[T]{
		id:      uuid.New(),
		name:    name,
		promise: NewPromise[T](),
		body:    body,
	}
	t.state.Store(int32(StateCreated))
	return t
}

// ID returns the task's identity, stable for its lifetime.
func (t *Task[T]) ID() uuid.UUID { return t.id }

// Name returns the task's human-readable name.
func (t *Task[T]) Name() string { return t.name }

// Desc returns the task's optional free-form description.
func (t *Task[T]) Desc() string { return t.desc }

// SetDesc attaches a free-form description, returned by Desc. It may be
// called at any time; the description is not part of the shallow trace.
func (t *Task[T]) SetDesc(desc string) *Task[T] {
	t.desc = desc
	return t
}

// Priority returns the task's current priority.
func (t *Task[T]) Priority() int {
	return int(t.priority.Load())
}

// SetPriority changes the task's priority. It fails with
// ErrPriorityOutOfRange if p falls outside [MinPriority, MaxPriority], and
// with ErrTaskAlreadyStarted once the task has left the created state.
func (t *Task[T]) SetPriority(p int) error {
	if p < MinPriority || p > MaxPriority {
		return fmt.Errorf("%w: %d", ErrPriorityOutOfRange, p)
	}
	if State(t.state.Load()) != StateCreated {
		return ErrTaskAlreadyStarted
	}
	t.priority.Store(int64(p))
	return nil
}

// State returns the task's current lifecycle state.
func (t *Task[T]) State() State {
	return State(t.state.Load())
}

// SystemHidden reports whether the task is marked hidden on the trace. It
// never affects dataflow.
func (t *Task[T]) SystemHidden() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.systemHidden
}

// MarkSystemHidden sets the systemHidden trace attribute.
func (t *Task[T]) MarkSystemHidden(hidden bool) *Task[T] {
	t.mu.Lock()
	t.systemHidden = hidden
	t.mu.Unlock()
	return t
}

// SetAttribute attaches a free-form key/value pair to the shallow trace.
// Attributes are dataflow-inert; they exist purely for trace consumers.
func (t *Task[T]) SetAttribute(key string, value any) *Task[T] {
	t.mu.Lock()
	if t.attributes == nil {
		t.attributes = make(map[string]any)
	}
	t.attributes[key] = value
	t.mu.Unlock()
	return t
}

// Relationships returns a snapshot of the task's relationship set. Reads
// during execution may observe a partial graph — relationships accumulate
// as combinators are built and run (predecessor, timer, side-effect edges)
// and as ContextRun records its parent, predecessor and potential-parent
// callers.
func (t *Task[T]) Relationships() []Relationship {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Relationship, len(t.relationships))
	copy(out, t.relationships)
	return out
}

func (t *Task[T]) addRelationship(r Relationship) {
	t.mu.Lock()
	t.relationships = append(t.relationships, r)
	t.mu.Unlock()
}

// ShallowTrace returns an immutable snapshot of the task's identity and
// status.
func (t *Task[T]) ShallowTrace() ShallowTrace {
	val, err, done := t.promise.Peek()

	t.mu.Lock()
	defer t.mu.Unlock()

	st := ShallowTrace{
		ID:           t.id,
		Name:         t.name,
		State:        State(t.state.Load()),
		Priority:     int(t.priority.Load()),
		SystemHidden: t.systemHidden,
		ScheduledAt:  t.scheduledAt,
		StartedAt:    t.startedAt,
		EndedAt:      t.endedAt,
	}
	if len(t.attributes) > 0 {
		st.Attributes = make(map[string]any, len(t.attributes))
		for k, v := range t.attributes {
			st.Attributes[k] = v
		}
	}
	if done {
		if err != nil {
			st.ErrSummary = err.Error()
		} else {
			st.ValueSummary = fmt.Sprintf("%v", val)
		}
	}
	return st
}

// Trace returns the transitive closure of the task's relationship graph at
// the moment of the call.
func (t *Task[T]) Trace() Trace {
	return buildTrace(t)
}

// Promise returns the task's own result promise. Listen on it to observe
// completion; it is the same promise ShallowTrace/Cancel operate on.
func (t *Task[T]) Promise() *Promise[T] {
	return t.promise
}

// Listen registers fn to fire once the task's result is available, per
// Promise.Listen's synchronous-if-already-terminal contract.
func (t *Task[T]) Listen(fn func(T, error)) {
	t.promise.Listen(fn)
}

// OnTerminal implements TaskHandle.
func (t *Task[T]) OnTerminal(fn func()) {
	t.promise.Listen(func(T, error) { fn() })
}

// Cancel transitions a non-terminal task to cancelled, failing its promise
// with an error that wraps ErrCancelled. It returns true only for the call
// that performs the transition; later calls (from any goroutine) return
// false. Cancellation does not reach upstream tasks.
func (t *Task[T]) Cancel(err error) bool {
	cancelErr := error(ErrCancelled)
	if err != nil {
		cancelErr = fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	var zero T
	return t.finalize(StateCancelled, zero, cancelErr)
}

// finalize stamps the terminal state and end time and then commits the
// task's promise, only for the call that wins the race to a terminal state.
// The state is stored before the promise's listeners fire, so an
// OnTerminal callback always observes the terminal State. It is the single
// point where Task.state and Task.promise are kept consistent.
func (t *Task[T]) finalize(state State, v T, err error) bool {
	for {
		cur := t.state.Load()
		if State(cur).Terminal() {
			return false
		}
		if t.state.CompareAndSwap(cur, int32(state)) {
			break
		}
	}
	t.mu.Lock()
	t.endedAt = time.Now()
	t.mu.Unlock()
	t.promise.complete(v, err)
	return true
}

// MarkScheduled implements Runnable.
func (t *Task[T]) MarkScheduled() {
	if t.state.CompareAndSwap(int32(StateCreated), int32(StateScheduled)) {
		t.mu.Lock()
		t.scheduledAt = time.Now()
		t.mu.Unlock()
	}
}

// WrapContextRun composes wrapper outside any wrappers already attached:
// the outermost wrapper's Before runs first and After runs last. It must be
// called before the task's body begins executing; once execution has
// started it is a no-op that returns ErrAlreadyRun (see DESIGN.md for why
// this implementation chose no-op-with-error over silently succeeding or
// panicking).
func (t *Task[T]) WrapContextRun(wrapper ContextRunWrapper[T]) error {
	t.wrapMu.Lock()
	defer t.wrapMu.Unlock()
	if t.started.Load() {
		return ErrAlreadyRun
	}
	if t.wrapper == nil {
		t.wrapper = wrapper
	} else {
		t.wrapper = t.wrapper.Compose(wrapper)
	}
	return nil
}

// ContextRun implements Runnable. See the Runnable interface doc for the
// contract; this method is reserved for the scheduler.
func (t *Task[T]) ContextRun(ctx Context, parent TaskHandle, predecessors []TaskHandle) {
	first := false
	t.runOnce.Do(func() { first = true })
	if !first {
		// Already run once (a diamond dependency, or an explicitly Share()d
		// task): record the extra caller without re-running the body.
		if parent != nil {
			t.addRelationship(Relationship{Kind: RelationPotentialParent, Other: parent})
		}
		return
	}

	t.started.Store(true)
	for {
		cur := t.state.Load()
		if State(cur).Terminal() {
			// Cancelled before it ran: the body is never invoked.
			return
		}
		if t.state.CompareAndSwap(cur, int32(StateRunning)) {
			break
		}
	}

	t.mu.Lock()
	t.startedAt = time.Now()
	if parent != nil {
		t.relationships = append(t.relationships, Relationship{Kind: RelationParent, Other: parent})
	}
	for _, pred := range predecessors {
		t.relationships = append(t.relationships, Relationship{Kind: RelationPredecessor, Other: pred})
	}
	wrapper := t.wrapper
	t.mu.Unlock()

	if wrapper != nil {
		wrapper.Before(ctx)
	}
	bodyPromise := t.runBodySafely(ctx)
	if wrapper != nil {
		bodyPromise = wrapper.After(ctx, bodyPromise)
	}

	bodyPromise.Listen(func(v T, err error) {
		if err != nil {
			t.finalize(StateFailed, v, err)
			return
		}
		t.finalize(StateDone, v, nil)
	})
}

// runBodySafely invokes the task's body, converting a panic into a failed
// promise instead of propagating it into the scheduler's goroutine. User
// bodies and combinator functions are expected to report failure via a
// returned error; the recover here is a backstop for the unexpected case,
// mirroring the recover-at-the-boundary idiom used elsewhere in this
// codebase's request/worker handlers.
func (t *Task[T]) runBodySafely(ctx Context) (result *Promise[T]) {
	defer func() {
		if r := recover(); r != nil {
			result = Failed[T](fmt.Errorf("parseq: task %q panicked: %v", t.name, r))
		}
	}()
	return t.body(ctx)
}
