package parseq

import "time"

// Runnable is the scheduler-facing surface of a Task[T], stripped of its
// type parameter so a Context can hold heterogeneous tasks. Task[T]
// implements Runnable for every T; callers never implement it themselves.
type Runnable interface {
	TaskHandle

	// MarkScheduled transitions the task from created to scheduled and
	// records the scheduling timestamp. Called by a Context immediately
	// upon accepting the task, before it becomes eligible to run.
	MarkScheduled()

	// ContextRun is reserved for the scheduler: it transitions the task to
	// running, invokes its body (through any wrappers), records the parent
	// and predecessor relationships supplied by the caller, and hooks the
	// body's returned promise to the task's own result. A task runs its
	// body at most once; subsequent calls only record a potential-parent
	// relationship and return.
	ContextRun(ctx Context, parent TaskHandle, predecessors []TaskHandle)
}

// Context is the capability surface a running task body uses to schedule
// further work. parseq consumes this interface; it does not implement it —
// see the engine package for a reference scheduler.
type Context interface {
	// Run schedules t for execution immediately, subject to priority
	// ordering among tasks that become ready at the same time.
	Run(t Runnable)

	// After returns a PendingRunner that schedules work once every
	// predecessor in preds has reached a terminal state.
	After(preds ...Runnable) PendingRunner

	// CreateTimer schedules t to run after d elapses, unless cancelled
	// first.
	CreateTimer(d time.Duration, t Runnable)
}

// PendingRunner schedules a task once a set of predecessors has terminated.
type PendingRunner interface {
	// Run schedules t once every predecessor has reached a terminal state,
	// in any outcome (success, failure, or cancellation).
	Run(t Runnable)

	// RunSideEffect schedules t once every predecessor has terminated
	// successfully. If any predecessor failed or was cancelled, t is
	// cancelled instead of being scheduled.
	RunSideEffect(t Runnable)
}

// ContextRunWrapper decorates a task's execution, e.g. to race a body
// against a timer (WithTimeout). Before is called ahead of the body;
// After receives the promise the body produced and returns the promise that
// must back the task's final result — it may be a different promise
// entirely, as WithTimeout's is.
type ContextRunWrapper[T any] interface {
	Before(ctx Context)
	After(ctx Context, body *Promise[T]) *Promise[T]
	Compose(outer ContextRunWrapper[T]) ContextRunWrapper[T]
}

// composedWrapper chains two wrappers so the outer's Before runs first and
// After runs last (outer wraps inner).
type composedWrapper[T any] struct {
	outer ContextRunWrapper[T]
	inner ContextRunWrapper[T]
}

func (c *composedWrapper[T]) Before(ctx Context) {
	c.outer.Before(ctx)
	c.inner.Before(ctx)
}

func (c *composedWrapper[T]) After(ctx Context, body *Promise[T]) *Promise[T] {
	return c.outer.After(ctx, c.inner.After(ctx, body))
}

func (c *composedWrapper[T]) Compose(outer ContextRunWrapper[T]) ContextRunWrapper[T] {
	return &composedWrapper[T]{outer: outer, inner: c}
}
